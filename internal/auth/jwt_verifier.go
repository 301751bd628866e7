package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
)

// jwksVerifier implements TokenVerifier against a JWKS endpoint. Keys are
// cached and refreshed by keyfunc based on HTTP cache headers.
type jwksVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from the
// identity provider's JWKS endpoint.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (TokenVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &jwksVerifier{jwks: jwks, logger: logger}, nil
}

// VerifyToken validates a JWT and extracts the principal.
func (v *jwksVerifier) VerifyToken(tokenString string) (*models.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Reject algorithm confusion: only asymmetric signatures are accepted.
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	if claims.Role != "authenticated" {
		v.logger.Debug("token has invalid role", "role", claims.Role, "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	permission := models.Permission(claims.Permission)
	if permission == "" {
		permission = models.PermissionViewer
	}

	return &models.Principal{
		Subject:    claims.Subject,
		Email:      claims.Email,
		Permission: permission,
	}, nil
}

// Close releases resources held by the verifier. keyfunc manages its own
// refresh lifecycle, so this is shutdown bookkeeping only.
func (v *jwksVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
