package guests

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expertcall/backend/internal/models"
	"github.com/expertcall/backend/pkg/response"
	"github.com/expertcall/backend/pkg/utils"
)

// CreateRequest is the body for POST /guests.
type CreateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
}

// Handler handles guest HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a guest handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /guests. Returns the access hash the guest uses on all
// further requests in place of a login.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.NewAccessHash()
	if err != nil {
		response.Internal(c, "failed to create guest")
		return
	}
	g := &models.Guest{AccessHash: hash, Email: req.Email, FullName: req.FullName}
	if err := h.repo.Create(c.Request.Context(), g); err != nil {
		h.logger.Error("create guest", zap.Error(err))
		response.Internal(c, "failed to create guest")
		return
	}
	response.Created(c, gin.H{"id": g.ID, "access_hash": hash})
}
