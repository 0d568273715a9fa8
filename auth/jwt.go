// Package auth issues and checks HS256 bearer tokens for the mutating task
// routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 30 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("jwt secret is empty")
	ErrInvalidToken  = errors.New("invalid token")
)

type ctxKey string

const subjectKey ctxKey = "subject"

// GenerateToken signs an HS256 token for subject that expires after ttl.
func GenerateToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its subject.
func ParseToken(secret []byte, tokenString string) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Middleware checks bearer tokens signed with one shared secret.
type Middleware struct {
	secret []byte
}

// New returns a Middleware for secret.
func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

// Wrap rejects requests without a valid bearer token.
func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeUnauthorized(w, "missing token")
			return
		}
		subject, err := ParseToken(m.secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeUnauthorized(w, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next(w, r.WithContext(ctx))
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"error\":%q}\n", msg)
}

// SubjectFromContext returns the token subject stored by Wrap.
func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey).(string)
	return v, ok
}
