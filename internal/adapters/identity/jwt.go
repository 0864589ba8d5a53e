// Package identity verifies caller identities and talks to the identity
// provider's admin API.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTVerifier accepts HS256 access tokens signed with the identity
// provider's shared secret. The subject claim is the user id.
type JWTVerifier struct {
	secret   []byte
	audience string
}

// NewJWTVerifier builds a verifier. An empty audience skips the aud check.
func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience}
}

func (v *JWTVerifier) Authenticate(r *http.Request) (domain.UserID, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
}

// Verify validates token and returns its subject.
func (v *JWTVerifier) Verify(token string) (domain.UserID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return domain.UserID(claims.Subject), nil
}

// HeaderAuthenticator trusts the X-User-ID header. Local mode only.
type HeaderAuthenticator struct {
	Fallback domain.UserID
}

func (h HeaderAuthenticator) Authenticate(r *http.Request) (domain.UserID, error) {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return domain.UserID(id), nil
	}
	if h.Fallback != "" {
		return h.Fallback, nil
	}
	return "", ErrMissingToken
}
