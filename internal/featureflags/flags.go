// Package featureflags provides runtime switches for the API.
package featureflags

import "time"

// Well-known flag keys.
const (
	// FlagUseMockData makes mock-eligible endpoints serve fixtures without calling the backend.
	FlagUseMockData = "use_mock_data"

	// FlagDisablePromptGeneration turns POST /prompts/generate into a 503.
	FlagDisablePromptGeneration = "disable_prompt_generation"
)

// Flag is a boolean feature switch.
type Flag struct {
	Key       string    `json:"key"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEnabled reports whether the flag is on. A nil flag is off.
func (f *Flag) IsEnabled() bool {
	return f != nil && f.Enabled
}

// DefaultFlags returns the flags used when the repository has no value.
// useMockData seeds FlagUseMockData, normally from USE_MOCK_DATA.
func DefaultFlags(useMockData bool) map[string]*Flag {
	return map[string]*Flag{
		FlagUseMockData:             {Key: FlagUseMockData, Enabled: useMockData},
		FlagDisablePromptGeneration: {Key: FlagDisablePromptGeneration, Enabled: false},
	}
}
