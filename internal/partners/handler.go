package partners

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/response"
)

// CreateRequest is the body for POST /partners.
type CreateRequest struct {
	Category    string `json:"category" binding:"required"`
	InviteLink  string `json:"invite_link" binding:"required"`
	DisplayName string `json:"display_name"`
}

// UpdateRequest is the body for PATCH /partners/:name. Absent fields are left unchanged.
type UpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Category    *string `json:"category"`
}

// RepRequest is the body for POST /partners/:name/representatives.
type RepRequest struct {
	UserID snowflake.ID `json:"user_id" binding:"required"`
}

// Handler handles partner and representative endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a partners handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /organizations/:guild/partners.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to list partners")
		return
	}
	if list == nil {
		list = []models.Partner{}
	}
	response.OK(c, list)
}

// Create handles POST /organizations/:guild/partners.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, warnings, err := h.svc.Add(c.Request.Context(), middleware.OrganizationID(c), AddParams{
		Category:    req.Category,
		InviteLink:  req.InviteLink,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		response.Error(c, err, "failed to add partner")
		return
	}
	response.CreatedWithWarnings(c, p, warnings)
}

// Update handles PATCH /organizations/:guild/partners/:name.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.DisplayName == nil && req.Category == nil {
		response.BadRequest(c, "nothing to update")
		return
	}
	ctx := c.Request.Context()
	org := middleware.OrganizationID(c)
	name := c.Param("name")
	var warnings []string
	if req.Category != nil {
		w, err := h.svc.SetCategory(ctx, org, name, *req.Category)
		if err != nil {
			response.Error(c, err, "failed to update partner")
			return
		}
		warnings = append(warnings, w...)
	}
	if req.DisplayName != nil {
		w, err := h.svc.Rename(ctx, org, name, *req.DisplayName)
		if err != nil {
			response.Error(c, err, "failed to update partner")
			return
		}
		warnings = append(warnings, w...)
	}
	response.OKWithWarnings(c, nil, warnings)
}

// Delete handles DELETE /organizations/:guild/partners/:name.
func (h *Handler) Delete(c *gin.Context) {
	warnings, err := h.svc.Remove(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"))
	if err != nil {
		response.Error(c, err, "failed to remove partner")
		return
	}
	response.OKWithWarnings(c, nil, warnings)
}

// ListReps handles GET /organizations/:guild/partners/:name/representatives?direction=.
func (h *Handler) ListReps(c *gin.Context) {
	d, ok := direction(c)
	if !ok {
		return
	}
	users, err := h.svc.ListReps(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"), d)
	if err != nil {
		response.Error(c, err, "failed to list representatives")
		return
	}
	if users == nil {
		users = []snowflake.ID{}
	}
	response.OK(c, users)
}

// AddRep handles POST /organizations/:guild/partners/:name/representatives?direction=.
func (h *Handler) AddRep(c *gin.Context) {
	d, ok := direction(c)
	if !ok {
		return
	}
	var req RepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id required")
		return
	}
	warnings, err := h.svc.AddRep(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"), req.UserID, d)
	if err != nil {
		response.Error(c, err, "failed to add representative")
		return
	}
	response.CreatedWithWarnings(c, models.RepresentativeLink{UserID: req.UserID, Direction: d}, warnings)
}

// RemoveRep handles DELETE /organizations/:guild/partners/:name/representatives/:user?direction=.
func (h *Handler) RemoveRep(c *gin.Context) {
	d, ok := direction(c)
	if !ok {
		return
	}
	user, err := snowflake.ParseString(c.Param("user"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	warnings, err := h.svc.RemoveRep(c.Request.Context(), middleware.OrganizationID(c), c.Param("name"), user, d)
	if err != nil {
		response.Error(c, err, "failed to remove representative")
		return
	}
	response.OKWithWarnings(c, nil, warnings)
}

// ForUser handles GET /organizations/:guild/users/:user/partners.
func (h *Handler) ForUser(c *gin.Context) {
	user, err := snowflake.ParseString(c.Param("user"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	list, err := h.svc.PartnersForUser(c.Request.Context(), middleware.OrganizationID(c), user)
	if err != nil {
		response.Error(c, err, "failed to list partners")
		return
	}
	if list == nil {
		list = []RepresentedPartner{}
	}
	response.OK(c, list)
}

func direction(c *gin.Context) (models.Direction, bool) {
	d, err := models.ParseDirection(c.Query("direction"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return "", false
	}
	return d, true
}
