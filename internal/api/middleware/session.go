package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quillnote/quillnote/internal/session"
)

type sessionKey struct{}

// SessionResolver resolves the identity-provider session of a request.
type SessionResolver interface {
	Resolve(r *http.Request) (*session.Session, error)
}

// Session attaches the caller's session to the request context when one can
// be resolved. It never rejects a request; see RequireSession.
func Session(resolver SessionResolver, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := resolver.Resolve(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					log.Debug().
						Err(err).
						Str("request_id", GetRequestID(r.Context())).
						Msg("session rejected")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession rejects requests without a session with 401 before any
// handler logic runs.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// GetSession returns the session attached to ctx, or nil.
func GetSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// GetUserID returns the session user id, or an empty string when anonymous.
func GetUserID(ctx context.Context) string {
	if sess := GetSession(ctx); sess != nil {
		return sess.UserID
	}
	return ""
}
