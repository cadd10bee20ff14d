package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OperatorTokenPayload captures the data available when minting a JWT.
type OperatorTokenPayload struct {
	OperatorID uuid.UUID
	Name       string
	Scopes     []string
	JTI        string
}

// OperatorTokenClaims represents the typed JWT issued to payout operators.
type OperatorTokenClaims struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Name       string    `json:"name,omitempty"`
	Scopes     []string  `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token carries the named scope.
func (c *OperatorTokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
