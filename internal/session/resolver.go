package session

import (
	"net/http"
	"strings"
)

// DefaultCookieName is the identity provider's session cookie.
const DefaultCookieName = "quillnote.session-token"

// Resolver reads the session token from a request and resolves it through a Store.
// JWTVerifier satisfies Store for the jwt strategy.
type Resolver struct {
	store      Store
	cookieName string
}

// NewResolver creates a resolver. An empty cookieName uses DefaultCookieName.
func NewResolver(store Store, cookieName string) *Resolver {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Resolver{store: store, cookieName: cookieName}
}

// Resolve returns the session for r. The bearer header takes precedence over the cookie.
func (res *Resolver) Resolve(r *http.Request) (*Session, error) {
	token := TokenFromRequest(r, res.cookieName)
	if token == "" {
		return nil, ErrNoSession
	}
	return res.store.Lookup(r.Context(), token)
}

// TokenFromRequest extracts the session token from the Authorization header
// or, failing that, the named cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
