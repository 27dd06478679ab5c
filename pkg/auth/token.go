package auth

import (
	"fmt"

	"github.com/cocoaloft/storefront-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the subset of the externally issued token the storefront
// cares about. Token issuance, refresh and revocation all live in the
// identity service; this package only verifies.
type AccessClaims struct {
	UserID uuid.UUID
	jwt.RegisteredClaims
}

type rawClaims struct {
	jwt.RegisteredClaims
}

// ParseAccessToken verifies the signature, issuer and expiry of a bearer
// token and extracts the authenticated user id from its subject.
func ParseAccessToken(cfg config.JWTConfig, token string) (*AccessClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}

	var claims rawClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}

	return &AccessClaims{
		UserID:           userID,
		RegisteredClaims: claims.RegisteredClaims,
	}, nil
}
