package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrganizationSettings is the per-guild configuration row created by setup.
// A nil RepresentativeRole means no role is managed for the guild.
type OrganizationSettings struct {
	OrganizationID     snowflake.ID  `json:"organization_id"`
	DisplayChannel     snowflake.ID  `json:"display_channel"`
	RepresentativeRole *snowflake.ID `json:"representative_role,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// PublishedMessage is one Discord message the display reconciler owns for an organization.
type PublishedMessage struct {
	OrganizationID snowflake.ID `json:"organization_id"`
	ChannelID      snowflake.ID `json:"channel_id"`
	MessageID      snowflake.ID `json:"message_id"`
	CreatedAt      time.Time    `json:"created_at"`
}
