package categories

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/response"
)

// Store is the category persistence the handler needs.
type Store interface {
	Create(ctx context.Context, org snowflake.ID, name string) (*models.PartnerCategory, error)
	List(ctx context.Context, org snowflake.ID) ([]models.PartnerCategory, error)
	Delete(ctx context.Context, org snowflake.ID, name string) error
}

// CreateRequest is the body for POST /categories.
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler handles category endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a categories handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /organizations/:guild/categories.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Internal(c, "failed to list categories")
		return
	}
	if list == nil {
		list = []models.PartnerCategory{}
	}
	response.OK(c, list)
}

// Create handles POST /organizations/:guild/categories.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.BadRequest(c, "name required")
		return
	}
	cat, err := h.store.Create(c.Request.Context(), middleware.OrganizationID(c), name)
	if err != nil {
		response.Error(c, err, "failed to create category")
		return
	}
	response.Created(c, cat)
}

// Delete handles DELETE /organizations/:guild/categories/:name.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), middleware.OrganizationID(c), c.Param("name")); err != nil {
		response.Error(c, err, "failed to delete category")
		return
	}
	response.NoContent(c)
}
