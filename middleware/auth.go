package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/event-easy-go/models"
)

const TokenCookie = "token"

type IdentityResolver interface {
	Resolve(credential string) (models.Identity, error)
}

// Credential returns the raw bearer credential from the Authorization header or, failing
// that, the token cookie. The header wins when both are present.
func Credential(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

// AuthMiddleware rejects requests without a valid credential and stores the caller's
// user_id and role on the context.
func AuthMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := Credential(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not Authorized. Login Again"})
			return
		}
		id, err := resolver.Resolve(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid"})
			return
		}
		c.Set("user_id", id.UserID)
		c.Set("role", id.Role)
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) models.Identity {
	return models.Identity{UserID: c.GetString("user_id"), Role: c.GetString("role")}
}
