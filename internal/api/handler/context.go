package handler

import (
	"net/http"

	"github.com/quillnote/quillnote/internal/api/middleware"
)

// accessToken returns the backend access token carried by the request's
// session, or "" when there is none.
func accessToken(r *http.Request) string {
	if s := middleware.GetSession(r.Context()); s != nil {
		return s.AccessToken
	}
	return ""
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
