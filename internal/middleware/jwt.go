package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/partnerbot/backend/internal/auth"
	"github.com/partnerbot/backend/pkg/response"
)

const (
	// ContextUsername is the key for the operator's username in gin context.
	ContextUsername = "username"
	// ContextUserRole is the key for the operator's role in gin context.
	ContextUserRole = "user_role"
)

// TokenValidator checks an operator token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT rejects requests without a valid bearer token and stores the operator in context.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "missing or malformed bearer token")
			c.Abort()
			return
		}
		claims, err := tokens.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
