package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/expertcall/backend/internal/models"
	"github.com/expertcall/backend/pkg/response"
)

// GuestResolver looks up a guest by its opaque access hash.
type GuestResolver interface {
	GetByAccessHash(ctx context.Context, hash string) (*models.Guest, error)
}

// GuestHash returns a middleware that resolves the X-Guest-Hash header to a
// guest identity. Guests hit the same core paths as users, so the guest's id
// and email are stored under the same context keys with role "guest".
func GuestHash(guests GuestResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := c.GetHeader("X-Guest-Hash")
		if hash == "" {
			hash = c.Query("guest_hash")
		}
		if hash == "" {
			response.Unauthorized(c, "missing guest hash")
			c.Abort()
			return
		}
		guest, err := guests.GetByAccessHash(c.Request.Context(), hash)
		if err != nil || guest == nil {
			response.Unauthorized(c, "unknown guest")
			c.Abort()
			return
		}
		c.Set(ContextUserID, guest.ID)
		c.Set(ContextUserRole, "guest")
		c.Set(ContextUserEmail, guest.Email)
		c.Next()
	}
}
