package models

import (
	"strings"
)

// CreateEntryRequest is the body of POST /entries. Fields other than the
// required ones are forwarded to the backend untouched.
type CreateEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate requires a title and content. Both fields are reported whenever
// either one is blank.
func (r *CreateEntryRequest) Validate() []FieldError {
	if len(required(map[string]string{"title": r.Title, "content": r.Content}, "title", "content")) == 0 {
		return nil
	}
	return []FieldError{
		{Field: "title", Message: "title is required", Code: CodeRequired},
		{Field: "content", Message: "content is required", Code: CodeRequired},
	}
}

// TagSuggestRequest is the body of POST /entries/tags/suggest.
type TagSuggestRequest struct {
	Content string `json:"content"`
}

// Validate requires content.
func (r *TagSuggestRequest) Validate() []FieldError {
	return required(map[string]string{"content": r.Content}, "content")
}

// CreateCategoryRequest is the body of POST /settings/categories.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// Validate requires a name.
func (r *CreateCategoryRequest) Validate() []FieldError {
	return required(map[string]string{"name": r.Name}, "name")
}

// CreatePromptRequest is the body of POST /prompts.
type CreatePromptRequest struct {
	Text string `json:"text"`
}

// Validate requires text.
func (r *CreatePromptRequest) Validate() []FieldError {
	return required(map[string]string{"text": r.Text}, "text")
}

func required(values map[string]string, fields ...string) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		if strings.TrimSpace(values[f]) == "" {
			errs = append(errs, FieldError{
				Field:   f,
				Message: f + " is required",
				Code:    CodeRequired,
			})
		}
	}
	return errs
}

// ValidationMessage summarizes field errors in one sentence, for example
// "title and content are required".
func ValidationMessage(errs []FieldError) string {
	var missing, other []string
	for _, e := range errs {
		if e.Code == CodeRequired {
			missing = append(missing, e.Field)
		} else {
			other = append(other, e.Message)
		}
	}

	var parts []string
	switch len(missing) {
	case 0:
	case 1:
		parts = append(parts, missing[0]+" is required")
	default:
		parts = append(parts, strings.Join(missing[:len(missing)-1], ", ")+" and "+missing[len(missing)-1]+" are required")
	}
	parts = append(parts, other...)

	if len(parts) == 0 {
		return "invalid request"
	}
	return strings.Join(parts, "; ")
}
