package partners

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/database"
	apperrors "github.com/partnerbot/backend/pkg/errors"
)

// Repository handles partners and both representative tables.
type Repository struct {
	db *database.DB
}

// NewRepository creates a partners repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// RepresentedPartner is a partner a user represents, with the relation.
type RepresentedPartner struct {
	models.Partner
	Direction models.Direction `json:"direction"`
}

func repTable(d models.Direction) string {
	if d == models.DirectionSelf {
		return "partner_self_users"
	}
	return "partner_users"
}

const partnerColumns = `partnership_id, guild, category, partner_guild, display_name, invite_code`

func scanPartner(row interface{ Scan(...any) error }) (models.Partner, error) {
	var (
		p            models.Partner
		guild, other int64
	)
	if err := row.Scan(&p.ID, &guild, &p.CategoryID, &other, &p.DisplayName, &p.InviteCode); err != nil {
		return p, err
	}
	p.OrganizationID = snowflake.ID(guild)
	p.PartnerGuild = snowflake.ID(other)
	return p, nil
}

func partnerWriteError(err error) error {
	if constraint, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
		return apperrors.NewDuplicateError("partner", constraint)
	}
	if _, ok := database.ConstraintViolation(err, database.CodeForeignKeyViolation); ok {
		return apperrors.ErrNotSetUp
	}
	return err
}

// Create inserts a partner and fills its ID.
func (r *Repository) Create(ctx context.Context, p *models.Partner) error {
	const q = `INSERT INTO partners (guild, category, partner_guild, display_name, invite_code)
		VALUES ($1, $2, $3, $4, $5) RETURNING partnership_id`
	err := r.db.Do(ctx, func(db database.Querier) error {
		return db.QueryRow(ctx, q, p.OrganizationID.Int64(), p.CategoryID, p.PartnerGuild.Int64(), p.DisplayName, p.InviteCode).
			Scan(&p.ID)
	})
	if err != nil {
		return fmt.Errorf("insert partner: %w", partnerWriteError(err))
	}
	return nil
}

// GetByName returns a partner by display name.
func (r *Repository) GetByName(ctx context.Context, org snowflake.ID, name string) (*models.Partner, error) {
	const q = `SELECT ` + partnerColumns + ` FROM partners WHERE guild = $1 AND display_name = $2`
	var p models.Partner
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		p, err = scanPartner(db.QueryRow(ctx, q, org.Int64(), name))
		return err
	})
	if database.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("partner", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return &p, nil
}

// ListByOrganization returns all partners of an organization ordered by display name.
func (r *Repository) ListByOrganization(ctx context.Context, org snowflake.ID) ([]models.Partner, error) {
	const q = `SELECT ` + partnerColumns + ` FROM partners WHERE guild = $1 ORDER BY display_name`
	var list []models.Partner
	err := r.db.Do(ctx, func(db database.Querier) error {
		rows, err := db.Query(ctx, q, org.Int64())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanPartner(rows)
			if err != nil {
				return err
			}
			list = append(list, p)
		}
		return rows.Err()
	})
	return list, err
}

// Remove deletes a partner and returns the users that were linked to it in either direction.
func (r *Repository) Remove(ctx context.Context, org snowflake.ID, name string) ([]snowflake.ID, error) {
	const linked = `SELECT u.user_id FROM partner_users u JOIN partners p USING (partnership_id)
		WHERE p.guild = $1 AND p.display_name = $2
		UNION
		SELECT s.user_id FROM partner_self_users s JOIN partners p USING (partnership_id)
		WHERE p.guild = $1 AND p.display_name = $2`
	const del = `DELETE FROM partners WHERE guild = $1 AND display_name = $2`
	var users []snowflake.ID
	err := r.db.Tx(ctx, func(tx pgx.Tx) error {
		var err error
		users, err = collectUsers(tx.Query(ctx, linked, org.Int64(), name))
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, del, org.Int64(), name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("partner", name)
		}
		return nil
	})
	return users, err
}

// Rename changes a partner's display name.
func (r *Repository) Rename(ctx context.Context, org snowflake.ID, name, newName string) error {
	const q = `UPDATE partners SET display_name = $3 WHERE guild = $1 AND display_name = $2`
	return r.update(ctx, name, q, org.Int64(), name, newName)
}

// SetCategory moves a partner to another category.
func (r *Repository) SetCategory(ctx context.Context, org snowflake.ID, name string, category uuid.UUID) error {
	const q = `UPDATE partners SET category = $3 WHERE guild = $1 AND display_name = $2`
	return r.update(ctx, name, q, org.Int64(), name, category)
}

func (r *Repository) update(ctx context.Context, name, q string, args ...any) error {
	err := r.db.Do(ctx, func(db database.Querier) error {
		tag, err := db.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("partner", name)
		}
		return nil
	})
	return partnerWriteError(err)
}

// AddRep links a user to a partner in the given direction.
func (r *Repository) AddRep(ctx context.Context, partner uuid.UUID, user snowflake.ID, d models.Direction) error {
	q := fmt.Sprintf(`INSERT INTO %s (partnership_id, user_id) VALUES ($1, $2)`, repTable(d))
	err := r.db.Do(ctx, func(db database.Querier) error {
		_, err := db.Exec(ctx, q, partner, user.Int64())
		return err
	})
	if constraint, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
		return apperrors.NewDuplicateError("representative", constraint)
	}
	return err
}

// RemoveRep unlinks a user from a partner in the given direction.
func (r *Repository) RemoveRep(ctx context.Context, partner uuid.UUID, user snowflake.ID, d models.Direction) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE partnership_id = $1 AND user_id = $2`, repTable(d))
	return r.db.Do(ctx, func(db database.Querier) error {
		tag, err := db.Exec(ctx, q, partner, user.Int64())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("representative", user.String())
		}
		return nil
	})
}

// ListReps returns the users linked to a partner in the given direction.
func (r *Repository) ListReps(ctx context.Context, partner uuid.UUID, d models.Direction) ([]snowflake.ID, error) {
	q := fmt.Sprintf(`SELECT user_id FROM %s WHERE partnership_id = $1 ORDER BY user_id`, repTable(d))
	var users []snowflake.ID
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		users, err = collectUsers(db.Query(ctx, q, partner))
		return err
	})
	return users, err
}

// PartnersForUser lists the partners a user represents in either direction.
func (r *Repository) PartnersForUser(ctx context.Context, org, user snowflake.ID) ([]RepresentedPartner, error) {
	const q = `SELECT ` + partnerColumns + `, 'partner' FROM partners
			WHERE guild = $1 AND partnership_id IN (SELECT partnership_id FROM partner_users WHERE user_id = $2)
		UNION ALL
		SELECT ` + partnerColumns + `, 'self' FROM partners
			WHERE guild = $1 AND partnership_id IN (SELECT partnership_id FROM partner_self_users WHERE user_id = $2)
		ORDER BY 5, 7`
	var list []RepresentedPartner
	err := r.db.Do(ctx, func(db database.Querier) error {
		rows, err := db.Query(ctx, q, org.Int64(), user.Int64())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				rp           RepresentedPartner
				guild, other int64
				dir          string
			)
			if err := rows.Scan(&rp.ID, &guild, &rp.CategoryID, &other, &rp.DisplayName, &rp.InviteCode, &dir); err != nil {
				return err
			}
			rp.OrganizationID = snowflake.ID(guild)
			rp.PartnerGuild = snowflake.ID(other)
			rp.Direction = models.Direction(dir)
			list = append(list, rp)
		}
		return rows.Err()
	})
	return list, err
}

// RepresentativeUsers returns the distinct users linked to any partner of the organization in
// either direction.
func (r *Repository) RepresentativeUsers(ctx context.Context, org snowflake.ID) ([]snowflake.ID, error) {
	const q = `SELECT u.user_id FROM partner_users u JOIN partners p USING (partnership_id) WHERE p.guild = $1
		UNION
		SELECT s.user_id FROM partner_self_users s JOIN partners p USING (partnership_id) WHERE p.guild = $1`
	var users []snowflake.ID
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		users, err = collectUsers(db.Query(ctx, q, org.Int64()))
		return err
	})
	return users, err
}

// CountRepresentations counts the links of a user across both directions.
func (r *Repository) CountRepresentations(ctx context.Context, org, user snowflake.ID) (int, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM partner_users u JOIN partners p USING (partnership_id) WHERE p.guild = $1 AND u.user_id = $2)
		+ (SELECT COUNT(*) FROM partner_self_users s JOIN partners p USING (partnership_id) WHERE p.guild = $1 AND s.user_id = $2)`
	var n int
	err := r.db.Do(ctx, func(db database.Querier) error {
		return db.QueryRow(ctx, q, org.Int64(), user.Int64()).Scan(&n)
	})
	return n, err
}

func collectUsers(rows pgx.Rows, err error) ([]snowflake.ID, error) {
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	users := make([]snowflake.ID, len(ids))
	for i, id := range ids {
		users[i] = snowflake.ID(id)
	}
	return users, nil
}
