package partners

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/display"
	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/platform"
	"github.com/partnerbot/backend/internal/roles"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

// Store is the partner persistence the service needs.
type Store interface {
	Create(ctx context.Context, p *models.Partner) error
	GetByName(ctx context.Context, org snowflake.ID, name string) (*models.Partner, error)
	ListByOrganization(ctx context.Context, org snowflake.ID) ([]models.Partner, error)
	Remove(ctx context.Context, org snowflake.ID, name string) ([]snowflake.ID, error)
	Rename(ctx context.Context, org snowflake.ID, name, newName string) error
	SetCategory(ctx context.Context, org snowflake.ID, name string, category uuid.UUID) error
	AddRep(ctx context.Context, partner uuid.UUID, user snowflake.ID, d models.Direction) error
	RemoveRep(ctx context.Context, partner uuid.UUID, user snowflake.ID, d models.Direction) error
	ListReps(ctx context.Context, partner uuid.UUID, d models.Direction) ([]snowflake.ID, error)
	PartnersForUser(ctx context.Context, org, user snowflake.ID) ([]RepresentedPartner, error)
}

// CategoryLookup resolves category names.
type CategoryLookup interface {
	GetByName(ctx context.Context, org snowflake.ID, name string) (*models.PartnerCategory, error)
}

// SetupChecker fails with ErrNotSetUp for organizations without settings.
type SetupChecker interface {
	GetSettings(ctx context.Context, org snowflake.ID) (*models.OrganizationSettings, error)
}

// Refresher republishes the display of an organization.
type Refresher interface {
	Refresh(ctx context.Context, org snowflake.ID) (display.Result, error)
}

// RoleSyncer brings one member's representative role in line with their links.
type RoleSyncer interface {
	SyncMember(ctx context.Context, org, user snowflake.ID) (roles.Outcome, error)
}

// AddParams describes a new partner.
type AddParams struct {
	Category    string
	InviteLink  string
	DisplayName string // defaults to the invited guild's name
}

// Service runs partner and representative mutations and the follow-up reconciliation.
// Reconciliation failures after a committed mutation are reported as warnings.
type Service struct {
	store      Store
	categories CategoryLookup
	setup      SetupChecker
	invites    platform.InviteResolver
	display    Refresher
	roles      RoleSyncer
	logger     *zap.Logger
}

// NewService creates a partners service.
func NewService(store Store, categories CategoryLookup, setup SetupChecker, invites platform.InviteResolver, display Refresher, roles RoleSyncer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		categories: categories,
		setup:      setup,
		invites:    invites,
		display:    display,
		roles:      roles,
		logger:     logger,
	}
}

// Add resolves the invite, stores the partner and refreshes the display.
func (s *Service) Add(ctx context.Context, org snowflake.ID, params AddParams) (*models.Partner, []string, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, nil, err
	}
	code, err := ParseInviteCode(params.InviteLink)
	if err != nil {
		return nil, nil, err
	}
	category, err := s.categories.GetByName(ctx, org, params.Category)
	if err != nil {
		return nil, nil, err
	}
	invite, err := s.invites.ResolveInvite(ctx, code)
	switch {
	case platform.KindOf(err) == platform.KindNotFound:
		return nil, nil, apperrors.NewValidationError("invite", "the invite link is invalid")
	case err != nil:
		return nil, nil, fmt.Errorf("resolve invite: %w", err)
	case invite.GuildID == 0:
		return nil, nil, apperrors.NewValidationError("invite", "the invite does not belong to a server")
	case !invite.Permanent:
		return nil, nil, apperrors.NewValidationError("invite", "the invite link is not permanent")
	}

	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		name = invite.GuildName
	}
	p := &models.Partner{
		OrganizationID: org,
		CategoryID:     category.ID,
		PartnerGuild:   invite.GuildID,
		DisplayName:    name,
		InviteCode:     code,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, nil, err
	}
	return p, s.refresh(ctx, org), nil
}

// Remove deletes a partner, refreshes the display and re-syncs every formerly linked user.
func (s *Service) Remove(ctx context.Context, org snowflake.ID, name string) ([]string, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, err
	}
	users, err := s.store.Remove(ctx, org, name)
	if err != nil {
		return nil, err
	}
	warnings := s.refresh(ctx, org)
	for _, u := range users {
		warnings = append(warnings, s.sync(ctx, org, u)...)
	}
	return warnings, nil
}

// Rename changes a partner's display name and refreshes the display.
func (s *Service) Rename(ctx context.Context, org snowflake.ID, name, newName string) ([]string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperrors.NewValidationError("display_name", "required")
	}
	if err := s.store.Rename(ctx, org, name, newName); err != nil {
		return nil, err
	}
	return s.refresh(ctx, org), nil
}

// SetCategory moves a partner to the named category and refreshes the display.
func (s *Service) SetCategory(ctx context.Context, org snowflake.ID, name, category string) ([]string, error) {
	c, err := s.categories.GetByName(ctx, org, category)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCategory(ctx, org, name, c.ID); err != nil {
		return nil, err
	}
	return s.refresh(ctx, org), nil
}

// List returns all partners of an organization.
func (s *Service) List(ctx context.Context, org snowflake.ID) ([]models.Partner, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, err
	}
	return s.store.ListByOrganization(ctx, org)
}

// AddRep links user to the named partner and syncs their role.
func (s *Service) AddRep(ctx context.Context, org snowflake.ID, partner string, user snowflake.ID, d models.Direction) ([]string, error) {
	p, err := s.lookup(ctx, org, partner)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddRep(ctx, p.ID, user, d); err != nil {
		return nil, err
	}
	return s.sync(ctx, org, user), nil
}

// RemoveRep unlinks user from the named partner and syncs their role.
func (s *Service) RemoveRep(ctx context.Context, org snowflake.ID, partner string, user snowflake.ID, d models.Direction) ([]string, error) {
	p, err := s.lookup(ctx, org, partner)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveRep(ctx, p.ID, user, d); err != nil {
		return nil, err
	}
	return s.sync(ctx, org, user), nil
}

// ListReps returns the users linked to the named partner.
func (s *Service) ListReps(ctx context.Context, org snowflake.ID, partner string, d models.Direction) ([]snowflake.ID, error) {
	p, err := s.lookup(ctx, org, partner)
	if err != nil {
		return nil, err
	}
	return s.store.ListReps(ctx, p.ID, d)
}

// PartnersForUser lists what a user represents.
func (s *Service) PartnersForUser(ctx context.Context, org, user snowflake.ID) ([]RepresentedPartner, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, err
	}
	return s.store.PartnersForUser(ctx, org, user)
}

func (s *Service) lookup(ctx context.Context, org snowflake.ID, name string) (*models.Partner, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, err
	}
	return s.store.GetByName(ctx, org, name)
}

func (s *Service) refresh(ctx context.Context, org snowflake.ID) []string {
	if _, err := s.display.Refresh(ctx, org); err != nil {
		return []string{"The partner list could not be updated: " + err.Error()}
	}
	return nil
}

func (s *Service) sync(ctx context.Context, org, user snowflake.ID) []string {
	out, err := s.roles.SyncMember(ctx, org, user)
	if err != nil {
		s.logger.Error("role sync failed",
			zap.String("organization_id", org.String()),
			zap.String("user_id", user.String()),
			zap.Error(err))
		return []string{"The partner role could not be updated: " + err.Error()}
	}
	if w := out.Warning(); w != "" {
		return []string{w}
	}
	return nil
}
