package embeds

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/partnerbot/backend/internal/display"
	"github.com/partnerbot/backend/internal/models"
	apperrors "github.com/partnerbot/backend/pkg/errors"
	"github.com/partnerbot/backend/pkg/storage"
)

// ErrImagesDisabled is returned by UploadImage when no image store is configured.
var ErrImagesDisabled = errors.New("image uploads are not configured")

// Store is the definition persistence the service needs.
type Store interface {
	Create(ctx context.Context, d *models.EmbedDefinition) error
	GetByName(ctx context.Context, org snowflake.ID, name string) (*models.EmbedDefinition, error)
	ListDefinitions(ctx context.Context, org snowflake.ID) ([]models.EmbedDefinition, error)
	UpdateContent(ctx context.Context, org snowflake.ID, name, body, imageURL string, color *int) error
	SetImage(ctx context.Context, org snowflake.ID, name, imageURL string) error
	SetCategory(ctx context.Context, org snowflake.ID, name string, category *uuid.UUID) error
	Delete(ctx context.Context, org snowflake.ID, name string) error
	Reorder(ctx context.Context, org snowflake.ID, names []string) ([]models.EmbedDefinition, error)
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

// ImageStore hosts uploaded embed images.
type ImageStore interface {
	UploadImage(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// Content is the editable part of a definition.
type Content struct {
	BodyText string `json:"body_text"`
	ImageURL string `json:"image_url"`
	Color    *int   `json:"color"`
}

func (c Content) validate() error {
	if c.Color != nil && (*c.Color < 0 || *c.Color > 0xFFFFFF) {
		return apperrors.NewValidationError("color", "must be an RGB value between 0 and 0xFFFFFF")
	}
	if strings.TrimSpace(c.BodyText) == "" && c.ImageURL == "" {
		return apperrors.NewValidationError("body_text", "an embed needs text or an image")
	}
	return nil
}

// Service manages embed definitions and refreshes the display after every change.
type Service struct {
	store      Store
	categories CategoryLookup
	setup      SetupChecker
	display    Refresher
	images     ImageStore
}

// NewService creates an embeds service. images may be nil.
func NewService(store Store, categories CategoryLookup, setup SetupChecker, display Refresher, images ImageStore) *Service {
	return &Service{store: store, categories: categories, setup: setup, display: display, images: images}
}

// List returns the definitions in sequence order.
func (s *Service) List(ctx context.Context, org snowflake.ID) ([]models.EmbedDefinition, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, err
	}
	return s.store.ListDefinitions(ctx, org)
}

// Create appends a definition. An empty category leaves it unbound.
func (s *Service) Create(ctx context.Context, org snowflake.ID, name, category string, content Content) (*models.EmbedDefinition, []string, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apperrors.NewValidationError("name", "required")
	}
	if err := content.validate(); err != nil {
		return nil, nil, err
	}
	bound, err := s.category(ctx, org, category)
	if err != nil {
		return nil, nil, err
	}
	d := &models.EmbedDefinition{
		OrganizationID: org,
		Name:           name,
		CategoryID:     bound,
		BodyText:       content.BodyText,
		ImageURL:       content.ImageURL,
		Color:          content.Color,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, nil, err
	}
	return d, s.refresh(ctx, org), nil
}

// UpdateContent replaces the content of a definition.
func (s *Service) UpdateContent(ctx context.Context, org snowflake.ID, name string, content Content) ([]string, error) {
	if err := content.validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateContent(ctx, org, name, content.BodyText, content.ImageURL, content.Color); err != nil {
		return nil, err
	}
	return s.refresh(ctx, org), nil
}

// Patch lists the fields of a definition to change. Nil fields are left as they are.
type Patch struct {
	BodyText   *string `json:"body_text"`
	ImageURL   *string `json:"image_url"`
	Color      *int    `json:"color"`
	ClearColor bool    `json:"clear_color"`
	Category   *string `json:"category"` // "" unbinds
}

func (p Patch) touchesContent() bool {
	return p.BodyText != nil || p.ImageURL != nil || p.Color != nil || p.ClearColor
}

// Update applies a patch and refreshes the display once.
func (s *Service) Update(ctx context.Context, org snowflake.ID, name string, patch Patch) ([]string, error) {
	if !patch.touchesContent() && patch.Category == nil {
		return nil, apperrors.NewValidationError("patch", "nothing to update")
	}
	d, err := s.store.GetByName(ctx, org, name)
	if err != nil {
		return nil, err
	}
	if patch.touchesContent() {
		content := Content{BodyText: d.BodyText, ImageURL: d.ImageURL, Color: d.Color}
		if patch.BodyText != nil {
			content.BodyText = *patch.BodyText
		}
		if patch.ImageURL != nil {
			content.ImageURL = *patch.ImageURL
		}
		if patch.Color != nil {
			content.Color = patch.Color
		}
		if patch.ClearColor {
			content.Color = nil
		}
		if err := content.validate(); err != nil {
			return nil, err
		}
		if err := s.store.UpdateContent(ctx, org, name, content.BodyText, content.ImageURL, content.Color); err != nil {
			return nil, err
		}
	}
	if patch.Category != nil {
		bound, err := s.category(ctx, org, *patch.Category)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetCategory(ctx, org, name, bound); err != nil {
			return nil, err
		}
	}
	return s.refresh(ctx, org), nil
}

// SetCategory binds a definition to a category; an empty name unbinds it.
func (s *Service) SetCategory(ctx context.Context, org snowflake.ID, name, category string) ([]string, error) {
	bound, err := s.category(ctx, org, category)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCategory(ctx, org, name, bound); err != nil {
		return nil, err
	}
	return s.refresh(ctx, org), nil
}

// Delete removes a definition; the remaining ones are renumbered densely.
func (s *Service) Delete(ctx context.Context, org snowflake.ID, name string) ([]string, error) {
	if err := s.store.Delete(ctx, org, name); err != nil {
		return nil, err
	}
	return s.refresh(ctx, org), nil
}

// Reorder applies a full ordering of definition names.
func (s *Service) Reorder(ctx context.Context, org snowflake.ID, names []string) ([]models.EmbedDefinition, []string, error) {
	if _, err := s.setup.GetSettings(ctx, org); err != nil {
		return nil, nil, err
	}
	out, err := s.store.Reorder(ctx, org, names)
	if err != nil {
		return nil, nil, err
	}
	return out, s.refresh(ctx, org), nil
}

// UploadImage stores an image for a definition and points the definition at it.
func (s *Service) UploadImage(ctx context.Context, org snowflake.ID, name, filename, contentType string, body io.Reader, size int64) (string, []string, error) {
	if s.images == nil {
		return "", nil, ErrImagesDisabled
	}
	if size > storage.MaxImageSize {
		return "", nil, apperrors.NewValidationError("image", "file too large")
	}
	if !storage.ValidateImageType(contentType, filename) {
		return "", nil, apperrors.NewValidationError("image", "unsupported image type")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForFilename(filename)
	}
	d, err := s.store.GetByName(ctx, org, name)
	if err != nil {
		return "", nil, err
	}
	url, err := s.images.UploadImage(ctx, storage.EmbedImageKey(org.String(), d.ID.String(), filename), contentType, body, size)
	if err != nil {
		return "", nil, err
	}
	if err := s.store.SetImage(ctx, org, name, url); err != nil {
		return "", nil, err
	}
	return url, s.refresh(ctx, org), nil
}

func (s *Service) category(ctx context.Context, org snowflake.ID, name string) (*uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	c, err := s.categories.GetByName(ctx, org, name)
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

func (s *Service) refresh(ctx context.Context, org snowflake.ID) []string {
	if _, err := s.display.Refresh(ctx, org); err != nil {
		return []string{"The partner list could not be updated: " + err.Error()}
	}
	return nil
}
