package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	models "github.com/phillip/event-easy-go/models"
)

type claims struct {
	jwt.RegisteredClaims
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// JWTResolver turns HS256 bearer tokens into identities. Tokens carry the user id in the
// "id" claim; "sub" is accepted as a fallback.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(credential string) (models.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return models.Identity{}, fmt.Errorf("missing token: %w", models.ErrUnauthorized)
	}

	var c claims
	_, err := jwt.ParseWithClaims(credential, &c, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	id := c.ID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return models.Identity{}, fmt.Errorf("token has no user id: %w", models.ErrUnauthorized)
	}
	return models.Identity{UserID: id, Role: c.Role}, nil
}
