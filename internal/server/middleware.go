package server

import (
	"strings"

	"github.com/dealgrid/auctionlens/internal/usercontext"
	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the authenticated user's identity. The gateway in
// front of this service owns authentication and sets the header.
const HeaderUserID = "X-User-Id"

func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := usercontext.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
