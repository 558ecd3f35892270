package auth

import (
	"context"
	"time"
)

// TokenService defines operations for bearer token handling.
type TokenService interface {
	// GenerateToken creates a signed access token for the given identity.
	// Production token issuance is an external collaborator; this exists
	// for tests and operator tooling that need a valid credential.
	GenerateToken(ctx context.Context, identity Identity) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims containing the principal's username and roles if
	// the token is valid, or an error if validation fails (expired, invalid
	// signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated content of a bearer token.
type Claims struct {
	// Username is the principal the token was issued for.
	Username string `json:"sub,omitempty"`

	// Roles is the principal's role set.
	Roles []string `json:"roles,omitempty"`

	// Standard registered JWT claims
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// Identity converts the claims into the pre-resolved Identity value used
// by the service layer.
func (c *Claims) Identity() Identity {
	return Identity{
		Username: c.Username,
		Roles:    c.Roles,
	}
}
