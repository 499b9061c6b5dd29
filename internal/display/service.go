package display

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/render"
)

// SettingsStore reads and changes the display channel.
type SettingsStore interface {
	GetSettings(ctx context.Context, org snowflake.ID) (*models.OrganizationSettings, error)
	SetDisplayChannel(ctx context.Context, org, channel snowflake.ID) error
}

// DefinitionStore lists embed definitions in sequence order.
type DefinitionStore interface {
	ListDefinitions(ctx context.Context, org snowflake.ID) ([]models.EmbedDefinition, error)
}

// PartnerStore lists all partners of an organization.
type PartnerStore interface {
	ListByOrganization(ctx context.Context, org snowflake.ID) ([]models.Partner, error)
}

// Service runs display reconciliation for an organization from its persisted state.
type Service struct {
	settings    SettingsStore
	definitions DefinitionStore
	partners    PartnerStore
	reconciler  *Reconciler
	planner     render.Planner
	logger      *zap.Logger
}

// NewService creates a display service.
func NewService(settings SettingsStore, definitions DefinitionStore, partners PartnerStore, reconciler *Reconciler, planner render.Planner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings:    settings,
		definitions: definitions,
		partners:    partners,
		reconciler:  reconciler,
		planner:     planner,
		logger:      logger,
	}
}

// Plan renders the organization's current definitions.
func (s *Service) Plan(ctx context.Context, org snowflake.ID) ([]render.Page, error) {
	defs, err := s.definitions.ListDefinitions(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	var byCategory map[uuid.UUID][]models.Partner
	if bindsCategory(defs) {
		list, err := s.partners.ListByOrganization(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("load partners: %w", err)
		}
		byCategory = make(map[uuid.UUID][]models.Partner)
		for _, p := range list {
			byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
		}
	}
	return s.planner.Plan(defs, func(id uuid.UUID) []models.Partner { return byCategory[id] }), nil
}

func bindsCategory(defs []models.EmbedDefinition) bool {
	for _, d := range defs {
		if d.CategoryID != nil {
			return true
		}
	}
	return false
}

// Refresh reconciles the display channel with the current definitions.
func (s *Service) Refresh(ctx context.Context, org snowflake.ID) (Result, error) {
	settings, err := s.settings.GetSettings(ctx, org)
	if err != nil {
		return Result{}, err
	}
	pages, err := s.Plan(ctx, org)
	if err != nil {
		return Result{}, err
	}
	res, err := s.reconciler.Reconcile(ctx, org, settings.DisplayChannel, pages)
	s.log(org, "refresh", res, err)
	return res, err
}

// Teardown deletes every published message of the organization.
func (s *Service) Teardown(ctx context.Context, org snowflake.ID) (Result, error) {
	settings, err := s.settings.GetSettings(ctx, org)
	if err != nil {
		return Result{}, err
	}
	res, err := s.reconciler.Reconcile(ctx, org, settings.DisplayChannel, nil)
	s.log(org, "teardown", res, err)
	return res, err
}

// MoveChannel tears the display down in the current channel, switches the channel and publishes
// there. The channel is left unchanged when the teardown fails.
func (s *Service) MoveChannel(ctx context.Context, org, channel snowflake.ID) (Result, error) {
	torn, err := s.Teardown(ctx, org)
	if err != nil {
		return torn, fmt.Errorf("tear down old display: %w", err)
	}
	if err := s.settings.SetDisplayChannel(ctx, org, channel); err != nil {
		return torn, fmt.Errorf("set display channel: %w", err)
	}
	res, err := s.Refresh(ctx, org)
	res.Deleted += torn.Deleted
	return res, err
}

func (s *Service) log(org snowflake.ID, pass string, res Result, err error) {
	fields := []zap.Field{
		zap.String("organization_id", org.String()),
		zap.String("pass", pass),
		zap.Int("edited", res.Edited),
		zap.Int("created", res.Created),
		zap.Int("deleted", res.Deleted),
	}
	if err != nil {
		s.logger.Warn("display reconcile failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("display reconciled", fields...)
}
