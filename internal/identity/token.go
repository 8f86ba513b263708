package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims mirrors the claims the identity service embeds in its tokens
type tokenClaims struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	jwt.RegisteredClaims
}

// identityFromToken reads the identity claims out of a bearer token without
// verifying the signature. The client never holds the signing secret; the
// server re-validates every request, so the claims are only used to seed the
// local session and to detect expiry.
func identityFromToken(token string) (*Identity, error) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("token carries no email claim")
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}

	return &Identity{
		ID:          id,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}
