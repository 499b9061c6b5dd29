package models

import (
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// EmbedDefinition is one block of the published partner display. Sequence numbers of an
// organization are exactly 1..N.
type EmbedDefinition struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID snowflake.ID `json:"organization_id"`
	Sequence       int          `json:"sequence"`
	Name           string       `json:"name"`
	CategoryID     *uuid.UUID   `json:"category_id,omitempty"`
	BodyText       string       `json:"body_text"`
	ImageURL       string       `json:"image_url"`
	Color          *int         `json:"color,omitempty"`
}
