package display

import (
	"context"

	"github.com/bwmarrin/snowflake"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/pkg/database"
)

// Repository persists the identities of published display messages.
type Repository struct {
	db *database.DB
}

// NewRepository creates a published message repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// ListPublished returns the organization's messages oldest first.
func (r *Repository) ListPublished(ctx context.Context, org snowflake.ID) ([]models.PublishedMessage, error) {
	const q = `SELECT guild_id, channel_id, message_id, created_at
		FROM published_messages WHERE guild_id = $1
		ORDER BY created_at, message_id`
	var list []models.PublishedMessage
	err := r.db.Do(ctx, func(db database.Querier) error {
		rows, err := db.Query(ctx, q, org.Int64())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var guild, channel, message int64
			m := models.PublishedMessage{}
			if err := rows.Scan(&guild, &channel, &message, &m.CreatedAt); err != nil {
				return err
			}
			m.OrganizationID = snowflake.ID(guild)
			m.ChannelID = snowflake.ID(channel)
			m.MessageID = snowflake.ID(message)
			list = append(list, m)
		}
		return rows.Err()
	})
	return list, err
}

// InsertPublished records a message the reconciler created.
func (r *Repository) InsertPublished(ctx context.Context, m models.PublishedMessage) error {
	const q = `INSERT INTO published_messages (guild_id, channel_id, message_id) VALUES ($1, $2, $3)`
	return r.db.Do(ctx, func(db database.Querier) error {
		_, err := db.Exec(ctx, q, m.OrganizationID.Int64(), m.ChannelID.Int64(), m.MessageID.Int64())
		return err
	})
}

// DeletePublished drops the record of a message.
func (r *Repository) DeletePublished(ctx context.Context, org, message snowflake.ID) error {
	const q = `DELETE FROM published_messages WHERE guild_id = $1 AND message_id = $2`
	return r.db.Do(ctx, func(db database.Querier) error {
		_, err := db.Exec(ctx, q, org.Int64(), message.Int64())
		return err
	})
}
