package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID string) (string, error)

	// ValidateToken verifies tokenString and returns its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	// UserID is the learner the token was issued for.
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
