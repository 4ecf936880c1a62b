package middleware

import (
	"net/http"

	"github.com/quillnote/quillnote/internal/api/models"
)

// writeError writes the error envelope. The response package cannot be used
// here because it depends on this package for the request id.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	models.NewError(status, GetRequestID(r.Context()), message).Write(w)
}
