// Package auth issues and validates the HS256 bearer tokens accepted by
// the API. Tokens are minted out of band (an operator CLI or an upstream
// identity service), the API only verifies them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/lethe/internal/domain"
)

// Claims holds the JWT token payload. The Auth middleware parses
// incoming tokens into this shape via ValidateToken.
type Claims struct {
	jwt.RegisteredClaims
	TenantID  string `json:"tid"`
	ActorID   string `json:"sub_id"`
	ActorType string `json:"act"`
	Role      string `json:"role"`
}

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueUserToken creates a signed token for a human principal.
func IssueUserToken(secret string, tenantID uuid.UUID, userID, role string, ttl time.Duration) (string, error) {
	return issueToken(secret, tenantID, domain.UserActor(userID), role, ttl)
}

// IssueIntegrationToken creates a signed token for a machine principal
// such as a sync connector. Integration tokens always carry the member
// role.
func IssueIntegrationToken(secret string, tenantID uuid.UUID, integrationID string, ttl time.Duration) (string, error) {
	actor := domain.Actor{Type: domain.ActorIntegration, ID: integrationID}
	return issueToken(secret, tenantID, actor, "member", ttl)
}

func issueToken(secret string, tenantID uuid.UUID, actor domain.Actor, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "lethe",
		},
		TenantID:  tenantID.String(),
		ActorID:   actor.ID,
		ActorType: string(actor.Type),
		Role:      role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the
// embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}
