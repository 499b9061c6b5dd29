package organizations

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/display"
	"github.com/partnerbot/backend/internal/middleware"
	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/render"
	"github.com/partnerbot/backend/internal/roles"
	"github.com/partnerbot/backend/pkg/queue"
	"github.com/partnerbot/backend/pkg/response"
)

// SettingsStore is the settings persistence the handler needs.
type SettingsStore interface {
	Setup(ctx context.Context, org, channel snowflake.ID) (*models.OrganizationSettings, error)
	GetSettings(ctx context.Context, org snowflake.ID) (*models.OrganizationSettings, error)
	SetRepresentativeRole(ctx context.Context, org snowflake.ID, role *snowflake.ID) error
}

// Display runs display reconciliation.
type Display interface {
	Plan(ctx context.Context, org snowflake.ID) ([]render.Page, error)
	Refresh(ctx context.Context, org snowflake.ID) (display.Result, error)
	MoveChannel(ctx context.Context, org, channel snowflake.ID) (display.Result, error)
}

// SweepQueue accepts role sweep requests.
type SweepQueue interface {
	EnqueueRoleSweep(ctx context.Context, payload queue.RoleSweepPayload) (string, error)
}

// Reports reads the last sweep report.
type Reports interface {
	Last(ctx context.Context, org snowflake.ID) (*roles.Report, error)
}

// Handler handles organization settings, display and sweep endpoints.
type Handler struct {
	settings SettingsStore
	display  Display
	sweeps   SweepQueue
	reports  Reports
	logger   *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(settings SettingsStore, display Display, sweeps SweepQueue, reports Reports, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{settings: settings, display: display, sweeps: sweeps, reports: reports, logger: logger}
}

// ChannelRequest is the body for POST /setup and PUT /settings/channel.
type ChannelRequest struct {
	ChannelID snowflake.ID `json:"channel_id" binding:"required"`
}

// RoleRequest is the body for PUT /settings/role.
type RoleRequest struct {
	RoleID snowflake.ID `json:"role_id" binding:"required"`
}

// SweepAccepted is returned when a sweep has been queued.
type SweepAccepted struct {
	JobID string `json:"job_id"`
}

// Setup handles POST /organizations/:guild/setup.
func (h *Handler) Setup(c *gin.Context) {
	org := middleware.OrganizationID(c)
	var body ChannelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "channel_id required")
		return
	}
	s, err := h.settings.Setup(c.Request.Context(), org, body.ChannelID)
	if err != nil {
		response.Error(c, err, "failed to set up organization")
		return
	}
	h.logger.Info("organization set up", zap.String("organization_id", org.String()), zap.String("channel_id", body.ChannelID.String()))
	response.Created(c, s)
}

// GetSettings handles GET /organizations/:guild/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.settings.GetSettings(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to load settings")
		return
	}
	response.OK(c, s)
}

// MoveChannel handles PUT /organizations/:guild/settings/channel.
func (h *Handler) MoveChannel(c *gin.Context) {
	var body ChannelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "channel_id required")
		return
	}
	res, err := h.display.MoveChannel(c.Request.Context(), middleware.OrganizationID(c), body.ChannelID)
	if err != nil {
		h.reconcileError(c, err)
		return
	}
	response.OK(c, res)
}

// SetRole handles PUT /organizations/:guild/settings/role and queues a sweep.
func (h *Handler) SetRole(c *gin.Context) {
	var body RoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "role_id required")
		return
	}
	org := middleware.OrganizationID(c)
	if err := h.settings.SetRepresentativeRole(c.Request.Context(), org, &body.RoleID); err != nil {
		response.Error(c, err, "failed to set role")
		return
	}
	h.queueSweep(c, org, "role_changed")
}

// ClearRole handles DELETE /organizations/:guild/settings/role.
func (h *Handler) ClearRole(c *gin.Context) {
	org := middleware.OrganizationID(c)
	if err := h.settings.SetRepresentativeRole(c.Request.Context(), org, nil); err != nil {
		response.Error(c, err, "failed to clear role")
		return
	}
	h.queueSweep(c, org, "role_cleared")
}

// queueSweep answers a committed role change: 202 with the job, or 200 with a warning when
// the queue is unavailable. The scheduled pass catches up either way.
func (h *Handler) queueSweep(c *gin.Context, org snowflake.ID, reason string) {
	jobID, err := h.sweeps.EnqueueRoleSweep(c.Request.Context(), queue.RoleSweepPayload{OrganizationID: org, Reason: reason})
	if err != nil {
		h.logger.Error("enqueue role sweep failed", zap.String("organization_id", org.String()), zap.Error(err))
		response.OKWithWarnings(c, nil, []string{"The role was saved but the member sweep could not be queued; it will run at the next scheduled pass."})
		return
	}
	response.Accepted(c, SweepAccepted{JobID: jobID})
}

// RequestSweep handles POST /organizations/:guild/roles/sweep.
func (h *Handler) RequestSweep(c *gin.Context) {
	org := middleware.OrganizationID(c)
	s, err := h.settings.GetSettings(c.Request.Context(), org)
	if err != nil {
		response.Error(c, err, "failed to load settings")
		return
	}
	if s.RepresentativeRole == nil {
		response.Conflict(c, "no partner role is configured")
		return
	}
	jobID, err := h.sweeps.EnqueueRoleSweep(c.Request.Context(), queue.RoleSweepPayload{OrganizationID: org, Reason: "requested"})
	if err != nil {
		response.ServiceUnavailable(c, "failed to queue sweep")
		return
	}
	response.Accepted(c, SweepAccepted{JobID: jobID})
}

// LastReport handles GET /organizations/:guild/roles/report.
func (h *Handler) LastReport(c *gin.Context) {
	rep, err := h.reports.Last(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to load report")
		return
	}
	response.OK(c, rep)
}

// Preview handles GET /organizations/:guild/display/preview: the pages a refresh would publish.
func (h *Handler) Preview(c *gin.Context) {
	org := middleware.OrganizationID(c)
	if _, err := h.settings.GetSettings(c.Request.Context(), org); err != nil {
		response.Error(c, err, "failed to load settings")
		return
	}
	pages, err := h.display.Plan(c.Request.Context(), org)
	if err != nil {
		response.Internal(c, "failed to plan display")
		return
	}
	response.OK(c, pages)
}

// Refresh handles POST /organizations/:guild/display/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	res, err := h.display.Refresh(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		h.reconcileError(c, err)
		return
	}
	response.OK(c, res)
}

// reconcileError reports platform failures as 502; storage and setup errors keep their mapping.
func (h *Handler) reconcileError(c *gin.Context, err error) {
	var rerr *display.ReconcileError
	if errors.As(err, &rerr) {
		response.BadGateway(c, rerr.Error())
		return
	}
	response.Error(c, err, "display reconciliation failed")
}
