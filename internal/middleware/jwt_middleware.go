package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/utils"
)

// Context keys set by JWTMiddleware.
const (
	ContextAdminID = "admin_id"
	ContextEmail   = "email"
)

type JWTMiddleware struct {
	secret string
}

func NewJWTMiddleware(secret string) *JWTMiddleware {
	return &JWTMiddleware{secret: secret}
}

// Handle requires a valid admin bearer token.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return m.handle(false)
}

// HandleQuery also accepts the token as ?token=, for EventSource clients
// that cannot set headers.
func (m *JWTMiddleware) HandleQuery() gin.HandlerFunc {
	return m.handle(true)
}

func (m *JWTMiddleware) handle(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		} else if allowQuery {
			token = c.Query("token")
		}

		if token == "" {
			utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(m.secret, token)
		if err != nil {
			utils.Error(c, http.StatusUnauthorized, utils.ErrInvalidToken.Error(), "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}
