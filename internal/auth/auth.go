// Package auth resolves bearer tokens to user identities.
//
// Identity verification is an external concern; Verifier is the contract
// the rest of the service depends on. StaticVerifier is the shipped
// implementation backed by the configured API-key map.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingToken is returned when no bearer token is supplied.
	ErrMissingToken = errors.New("missing authorization token")
	// ErrInvalidToken is returned when the token resolves to no user.
	ErrInvalidToken = errors.New("invalid authorization token")
)

// Verifier resolves an opaque bearer token to a user id.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (userID string, err error)
}

// StaticVerifier verifies tokens against a fixed token -> user id map.
type StaticVerifier struct {
	keys map[string]string
}

// NewStaticVerifier creates a verifier from a token -> user id map.
func NewStaticVerifier(keys map[string]string) *StaticVerifier {
	// Copy to insulate from caller mutation.
	m := make(map[string]string, len(keys))
	for k, v := range keys {
		m[k] = v
	}
	return &StaticVerifier{keys: m}
}

func (v *StaticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	userID, ok := v.keys[token]
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// BearerToken extracts the token from an Authorization header value.
// Returns ErrMissingToken when the header is absent or not Bearer-formed.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix)), nil
}
