package auth

import "inkwell/internal/domain/models"

// TokenVerifier validates bearer tokens from the external identity provider
// and returns the principal they carry. The core performs no authorization
// logic of its own; it trusts the pre-checked permission in the claims.
type TokenVerifier interface {
	// VerifyToken validates a JWT and returns the authenticated principal.
	// Returns ErrUnauthorized for invalid, expired, or mis-signed tokens.
	VerifyToken(tokenString string) (*models.Principal, error)

	// Close releases any resources held by the verifier.
	Close() error
}
