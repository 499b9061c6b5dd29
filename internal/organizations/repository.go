package organizations

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/database"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

// Repository handles guild_settings persistence.
type Repository struct {
	db *database.DB
}

// NewRepository creates an organizations repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

const settingsColumns = `guild_id, publish_channel, partner_role, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*models.OrganizationSettings, error) {
	var (
		guild, channel int64
		role           *int64
		s              models.OrganizationSettings
	)
	if err := row.Scan(&guild, &channel, &role, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.OrganizationID = snowflake.ID(guild)
	s.DisplayChannel = snowflake.ID(channel)
	if role != nil {
		id := snowflake.ID(*role)
		s.RepresentativeRole = &id
	}
	return &s, nil
}

func roleArg(role *snowflake.ID) *int64 {
	if role == nil {
		return nil
	}
	v := role.Int64()
	return &v
}

// Setup creates the settings row of an organization.
func (r *Repository) Setup(ctx context.Context, org, channel snowflake.ID) (*models.OrganizationSettings, error) {
	const q = `INSERT INTO guild_settings (guild_id, publish_channel) VALUES ($1, $2)
		RETURNING ` + settingsColumns
	var s *models.OrganizationSettings
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		s, err = scanSettings(db.QueryRow(ctx, q, org.Int64(), channel.Int64()))
		return err
	})
	if _, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
		return nil, apperrors.NewDuplicateError("organization settings", "guild_settings_pkey")
	}
	if err != nil {
		return nil, fmt.Errorf("insert settings: %w", err)
	}
	return s, nil
}

// GetSettings returns the settings of an organization or ErrNotSetUp.
func (r *Repository) GetSettings(ctx context.Context, org snowflake.ID) (*models.OrganizationSettings, error) {
	const q = `SELECT ` + settingsColumns + ` FROM guild_settings WHERE guild_id = $1`
	var s *models.OrganizationSettings
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		s, err = scanSettings(db.QueryRow(ctx, q, org.Int64()))
		return err
	})
	if database.IsNoRows(err) {
		return nil, apperrors.ErrNotSetUp
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// SetDisplayChannel changes the channel the display is published in.
func (r *Repository) SetDisplayChannel(ctx context.Context, org, channel snowflake.ID) error {
	const q = `UPDATE guild_settings SET publish_channel = $2, updated_at = NOW() WHERE guild_id = $1`
	return r.update(ctx, q, org.Int64(), channel.Int64())
}

// SetRepresentativeRole sets or, with nil, clears the managed role.
func (r *Repository) SetRepresentativeRole(ctx context.Context, org snowflake.ID, role *snowflake.ID) error {
	const q = `UPDATE guild_settings SET partner_role = $2, updated_at = NOW() WHERE guild_id = $1`
	return r.update(ctx, q, org.Int64(), roleArg(role))
}

func (r *Repository) update(ctx context.Context, q string, args ...any) error {
	return r.db.Do(ctx, func(db database.Querier) error {
		tag, err := db.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNotSetUp
		}
		return nil
	})
}

// ListWithRole returns every organization that has a representative role configured.
func (r *Repository) ListWithRole(ctx context.Context) ([]models.OrganizationSettings, error) {
	const q = `SELECT ` + settingsColumns + ` FROM guild_settings
		WHERE partner_role IS NOT NULL ORDER BY guild_id`
	var list []models.OrganizationSettings
	err := r.db.Do(ctx, func(db database.Querier) error {
		rows, err := db.Query(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSettings(rows)
			if err != nil {
				return err
			}
			list = append(list, *s)
		}
		return rows.Err()
	})
	return list, err
}
