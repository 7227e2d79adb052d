// Package auth verifies bearer ID tokens and exposes the authenticated
// subject to handlers.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Subject is the authenticated caller.
type Subject struct {
	UID   string
	Email string
}

// Verifier validates a bearer ID token and resolves its subject.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Subject, error)
}

// ExtractBearerToken extracts the token from an Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errors.New("missing Authorization header")
	}
	parts := strings.Split(h, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid Authorization header format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

type ctxKey struct{}

// WithSubject stores the subject in the context.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SubjectFrom returns the subject stored by the middleware, or nil.
func SubjectFrom(ctx context.Context) *Subject {
	s, _ := ctx.Value(ctxKey{}).(*Subject)
	return s
}
