package embeds

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

// Repository handles embed_data persistence. Sequence numbers stay dense: every write that
// changes the set or order of definitions renumbers inside the same transaction.
type Repository struct {
	db *database.DB
}

// NewRepository creates an embeds repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

const embedColumns = `id, guild, embed_part_sequence_number, embed_name, partner_category_list, embed_text, image_url, color`

func scanEmbed(row interface{ Scan(...any) error }) (models.EmbedDefinition, error) {
	var (
		d     models.EmbedDefinition
		guild int64
	)
	if err := row.Scan(&d.ID, &guild, &d.Sequence, &d.Name, &d.CategoryID, &d.BodyText, &d.ImageURL, &d.Color); err != nil {
		return d, err
	}
	d.OrganizationID = snowflake.ID(guild)
	return d, nil
}

func embedWriteError(err error) error {
	if constraint, ok := database.ConstraintViolation(err, database.CodeUniqueViolation); ok {
		return apperrors.NewDuplicateError("embed", constraint)
	}
	if _, ok := database.ConstraintViolation(err, database.CodeForeignKeyViolation); ok {
		return apperrors.ErrNotSetUp
	}
	return err
}

// Create appends a definition at sequence N+1 and fills its ID and sequence.
func (r *Repository) Create(ctx context.Context, d *models.EmbedDefinition) error {
	const next = `SELECT COALESCE(MAX(embed_part_sequence_number), 0) + 1 FROM embed_data WHERE guild = $1`
	const ins = `INSERT INTO embed_data (guild, embed_part_sequence_number, embed_name, partner_category_list, embed_text, image_url, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.Tx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, next, d.OrganizationID.Int64()).Scan(&d.Sequence); err != nil {
			return err
		}
		return tx.QueryRow(ctx, ins, d.OrganizationID.Int64(), d.Sequence, d.Name, d.CategoryID, d.BodyText, d.ImageURL, d.Color).
			Scan(&d.ID)
	})
	if err != nil {
		return fmt.Errorf("insert embed: %w", embedWriteError(err))
	}
	return nil
}

// GetByName returns a definition by name.
func (r *Repository) GetByName(ctx context.Context, org snowflake.ID, name string) (*models.EmbedDefinition, error) {
	const q = `SELECT ` + embedColumns + ` FROM embed_data WHERE guild = $1 AND embed_name = $2`
	var d models.EmbedDefinition
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		d, err = scanEmbed(db.QueryRow(ctx, q, org.Int64(), name))
		return err
	})
	if database.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("embed", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get embed: %w", err)
	}
	return &d, nil
}

// ListDefinitions returns the organization's definitions in sequence order.
func (r *Repository) ListDefinitions(ctx context.Context, org snowflake.ID) ([]models.EmbedDefinition, error) {
	var list []models.EmbedDefinition
	err := r.db.Do(ctx, func(db database.Querier) error {
		var err error
		list, err = listDefinitions(ctx, db, org)
		return err
	})
	return list, err
}

func listDefinitions(ctx context.Context, q database.Querier, org snowflake.ID) ([]models.EmbedDefinition, error) {
	const sql = `SELECT ` + embedColumns + ` FROM embed_data WHERE guild = $1 ORDER BY embed_part_sequence_number`
	rows, err := q.Query(ctx, sql, org.Int64())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmbedDefinition
	for rows.Next() {
		d, err := scanEmbed(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// UpdateContent replaces the text, image and color of a definition.
func (r *Repository) UpdateContent(ctx context.Context, org snowflake.ID, name, body, imageURL string, color *int) error {
	const q = `UPDATE embed_data SET embed_text = $3, image_url = $4, color = $5 WHERE guild = $1 AND embed_name = $2`
	return r.update(ctx, name, q, org.Int64(), name, body, imageURL, color)
}

// SetImage replaces only the image of a definition.
func (r *Repository) SetImage(ctx context.Context, org snowflake.ID, name, imageURL string) error {
	const q = `UPDATE embed_data SET image_url = $3 WHERE guild = $1 AND embed_name = $2`
	return r.update(ctx, name, q, org.Int64(), name, imageURL)
}

// SetCategory binds a definition to a category, or unbinds it with nil.
func (r *Repository) SetCategory(ctx context.Context, org snowflake.ID, name string, category *uuid.UUID) error {
	const q = `UPDATE embed_data SET partner_category_list = $3 WHERE guild = $1 AND embed_name = $2`
	return r.update(ctx, name, q, org.Int64(), name, category)
}

func (r *Repository) update(ctx context.Context, name, q string, args ...any) error {
	err := r.db.Do(ctx, func(db database.Querier) error {
		tag, err := db.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("embed", name)
		}
		return nil
	})
	return embedWriteError(err)
}

// Delete removes a definition and closes the gap in the sequence.
func (r *Repository) Delete(ctx context.Context, org snowflake.ID, name string) error {
	const del = `DELETE FROM embed_data WHERE guild = $1 AND embed_name = $2`
	return r.db.Tx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, del, org.Int64(), name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError("embed", name)
		}
		remaining, err := listDefinitions(ctx, tx, org)
		if err != nil {
			return err
		}
		return writeSequences(ctx, tx, remaining, Renumber(remaining))
	})
}

// Reorder applies a full ordering of definition names.
func (r *Repository) Reorder(ctx context.Context, org snowflake.ID, names []string) ([]models.EmbedDefinition, error) {
	var out []models.EmbedDefinition
	err := r.db.Tx(ctx, func(tx pgx.Tx) error {
		current, err := listDefinitions(ctx, tx, org)
		if err != nil {
			return err
		}
		out, err = Reorder(current, names)
		if err != nil {
			return err
		}
		return writeSequences(ctx, tx, current, out)
	})
	return out, err
}

// writeSequences persists the sequences of next that differ from before. The unique sequence
// constraint is deferred to commit, so intermediate duplicates are allowed.
func writeSequences(ctx context.Context, tx pgx.Tx, before, next []models.EmbedDefinition) error {
	const q = `UPDATE embed_data SET embed_part_sequence_number = $2 WHERE id = $1`
	old := make(map[uuid.UUID]int, len(before))
	for _, d := range before {
		old[d.ID] = d.Sequence
	}
	batch := &pgx.Batch{}
	for _, d := range next {
		if old[d.ID] != d.Sequence {
			batch.Queue(q, d.ID, d.Sequence)
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}
