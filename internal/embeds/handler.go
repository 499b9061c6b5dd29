package embeds

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/response"
)

// CreateRequest is the body for POST /embeds.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Content
}

// OrderRequest is the body for PUT /embeds/order.
type OrderRequest struct {
	Names []string `json:"names" binding:"required"`
}

// ImageResponse is returned after an image upload.
type ImageResponse struct {
	ImageURL string `json:"image_url"`
}

// Handler handles embed definition endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an embeds handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /organizations/:guild/embeds.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to list embeds")
		return
	}
	if list == nil {
		list = []models.EmbedDefinition{}
	}
	response.OK(c, list)
}

// Create handles POST /organizations/:guild/embeds.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	d, warnings, err := h.svc.Create(c.Request.Context(), middleware.OrganizationID(c), req.Name, req.Category, req.Content)
	if err != nil {
		response.Error(c, err, "failed to create embed")
		return
	}
	response.CreatedWithWarnings(c, d, warnings)
}

// Update handles PATCH /organizations/:guild/embeds/:name.
func (h *Handler) Update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	warnings, err := h.svc.Update(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"), patch)
	if err != nil {
		response.Error(c, err, "failed to update embed")
		return
	}
	response.OKWithWarnings(c, nil, warnings)
}

// Delete handles DELETE /organizations/:guild/embeds/:name.
func (h *Handler) Delete(c *gin.Context) {
	warnings, err := h.svc.Delete(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"))
	if err != nil {
		response.Error(c, err, "failed to delete embed")
		return
	}
	response.OKWithWarnings(c, nil, warnings)
}

// Reorder handles PUT /organizations/:guild/embeds/order.
func (h *Handler) Reorder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "names required")
		return
	}
	list, warnings, err := h.svc.Reorder(c.Request.Context(), middleware.OrganizationID(c), req.Names)
	if err != nil {
		response.Error(c, err, "failed to reorder embeds")
		return
	}
	response.OKWithWarnings(c, list, warnings)
}

// UploadImage handles POST /organizations/:guild/embeds/:name/image (multipart, field "file").
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	url, warnings, err := h.svc.UploadImage(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"),
		file.Filename, file.Header.Get("Content-Type"), rc, file.Size)
	if errors.Is(err, ErrImagesDisabled) {
		response.ServiceUnavailable(c, err.Error())
		return
	}
	if err != nil {
		response.Error(c, err, "failed to upload image")
		return
	}
	response.OKWithWarnings(c, ImageResponse{ImageURL: url}, warnings)
}
