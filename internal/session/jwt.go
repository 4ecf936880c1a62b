package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of sessions minted by Issuer.
const DefaultTTL = 1 * time.Hour

// Claims are the claims of an identity-provider session token.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string `json:"uid"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"at"`
}

// JWTConfig holds the identity-provider signing parameters.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// JWTVerifier validates session JWTs.
type JWTVerifier struct {
	key      []byte
	issuer   string
	audience string
}

// NewJWTVerifier creates a verifier for HS256 session tokens.
func NewJWTVerifier(cfg JWTConfig) *JWTVerifier {
	return &JWTVerifier{
		key:      []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Lookup validates token and returns the session it carries.
func (v *JWTVerifier) Lookup(_ context.Context, token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidSession
	}

	sess := &Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		AccessToken: claims.AccessToken,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Issuer mints session JWTs the way the identity provider does.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer creates an issuer. A non-positive ttl uses DefaultTTL.
func NewIssuer(cfg JWTConfig, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		key:      []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
	}
}

// Issue signs a token for sess. When sess.ExpiresAt is zero the issuer's ttl applies.
func (i *Issuer) Issue(sess Session) (string, error) {
	now := time.Now()
	expiresAt := sess.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(i.ttl)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   sess.UserID,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        generateTokenID(),
		},
		UserID:      sess.UserID,
		Email:       sess.Email,
		AccessToken: sess.AccessToken,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// NewOpaqueToken returns a random token for database-backed sessions.
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func generateTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
