package categories

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/database"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

// Repository handles partner_categories persistence.
type Repository struct {
	db *database.DB
}

// NewRepository creates a categories repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a category to an organization.
func (r *Repository) Create(ctx context.Context, org snowflake.ID, name string) (*models.PartnerCategory, error) {
	const q = `INSERT INTO partner_categories (guild_id, name) VALUES ($1, $2) RETURNING id`
	c := models.PartnerCategory{OrganizationID: org, Name: name}
	err := r.db.Do(ctx, func(db database.Querier) error {
		return db.QueryRow(ctx, q, org.Int64(), name).Scan(&c.ID)
	})
	if constraint, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
		return nil, apperrors.NewDuplicateError("category", constraint)
	}
	if _, ok := database.ConstraintViolation(err, database.CodeForeignKeyViolation); ok {
		return nil, apperrors.ErrNotSetUp
	}
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

// GetByName returns a category by its name within the organization.
func (r *Repository) GetByName(ctx context.Context, org snowflake.ID, name string) (*models.PartnerCategory, error) {
	const q = `SELECT id FROM partner_categories WHERE guild_id = $1 AND name = $2`
	c := models.PartnerCategory{OrganizationID: org, Name: name}
	err := r.db.Do(ctx, func(db database.Querier) error {
		return db.QueryRow(ctx, q, org.Int64(), name).Scan(&c.ID)
	})
	if database.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("category", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// List returns the organization's categories by name.
func (r *Repository) List(ctx context.Context, org snowflake.ID) ([]models.PartnerCategory, error) {
	const q = `SELECT id, name FROM partner_categories WHERE guild_id = $1 ORDER BY name`
	var list []models.PartnerCategory
	err := r.db.Do(ctx, func(db database.Querier) error {
		rows, err := db.Query(ctx, q, org.Int64())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			c := models.PartnerCategory{OrganizationID: org}
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			list = append(list, c)
		}
		return rows.Err()
	})
	return list, err
}

// Delete removes a category. Categories still referenced by partners or embeds yield ErrCategoryInUse.
func (r *Repository) Delete(ctx context.Context, org snowflake.ID, name string) error {
	const q = `DELETE FROM partner_categories WHERE guild_id = $1 AND name = $2`
	err := r.db.Do(ctx, func(db database.Querier) error {
		tag, err := db.Exec(ctx, q, org.Int64(), name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("category", name)
		}
		return nil
	})
	if _, ok := database.ConstraintViolation(err, database.CodeForeignKeyViolation); ok {
		return fmt.Errorf("delete category %q: %w", name, apperrors.ErrCategoryInUse)
	}
	return err
}
