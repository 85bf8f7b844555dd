package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// TokenSource returns the stored marketplace token of an admin, or "".
type TokenSource interface {
	Token(ctx context.Context, adminID int) (string, error)
}

// MarketplaceSession puts the admin's marketplace token on the request
// context. Without one the client falls back to the service token. Must run
// after JWTMiddleware.
func MarketplaceSession(tokens TokenSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetInt(ContextAdminID)
		if adminID == 0 {
			c.Next()
			return
		}
		token, err := tokens.Token(c.Request.Context(), adminID)
		if err != nil {
			log.Warn().Err(err).Int("admin_id", adminID).Msg("Failed to load marketplace token")
		}
		if token != "" {
			c.Request = c.Request.WithContext(marketplace.WithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}
