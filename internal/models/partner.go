package models

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// PartnerCategory groups partners; embeds may list the partners of one category.
type PartnerCategory struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID snowflake.ID `json:"organization_id"`
	Name           string       `json:"name"`
}

// Partner is one partnered guild of an organization.
type Partner struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID snowflake.ID `json:"organization_id"`
	CategoryID     uuid.UUID    `json:"category_id"`
	PartnerGuild   snowflake.ID `json:"partner_guild"`
	DisplayName    string       `json:"display_name"`
	InviteCode     string       `json:"invite_code"`
}

// Direction selects one of the two representative relations.
type Direction string

const (
	// DirectionPartner: the partner guild's representative for us.
	DirectionPartner Direction = "partner"
	// DirectionSelf: our representative to the partner guild.
	DirectionSelf Direction = "self"
)

// Directions lists both relations.
var Directions = []Direction{DirectionPartner, DirectionSelf}

// ParseDirection validates a direction name; empty means DirectionPartner.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", DirectionPartner:
		return DirectionPartner, nil
	case DirectionSelf:
		return DirectionSelf, nil
	}
	return "", fmt.Errorf("unknown representative direction %q", s)
}

// RepresentativeLink links a user to a partner in one direction.
type RepresentativeLink struct {
	PartnerID uuid.UUID    `json:"partner_id"`
	UserID    snowflake.ID `json:"user_id"`
	Direction Direction    `json:"direction"`
}
