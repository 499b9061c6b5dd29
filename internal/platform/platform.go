// Package platform describes the chat platform the reconcilers act on: message hosting for
// the partner display and guild membership for the representative role.
package platform

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Field is one inline field of a block.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Block is one renderable embed.
type Block struct {
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Color       *int    `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// Member is a guild member and the roles it holds.
type Member struct {
	UserID snowflake.ID
	Roles  []snowflake.ID
}

// HasRole reports whether the member holds role.
func (m Member) HasRole(role snowflake.ID) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Messenger hosts the messages of the partner display.
// DeleteMessage reports a missing message with ErrNotFound.
type Messenger interface {
	SendMessage(ctx context.Context, channel snowflake.ID, blocks []Block) (snowflake.ID, error)
	EditMessage(ctx context.Context, channel, message snowflake.ID, blocks []Block) error
	DeleteMessage(ctx context.Context, channel, message snowflake.ID) error
}

// Membership enumerates guild members and changes their roles.
// Errors report ErrForbidden and ErrNotFound distinctly.
type Membership interface {
	// Members calls fn for every member of guild; an error from fn stops the enumeration.
	Members(ctx context.Context, guild snowflake.ID, fn func(Member) error) error
	Member(ctx context.Context, guild, user snowflake.ID) (Member, error)
	AddRole(ctx context.Context, guild, user, role snowflake.ID) error
	RemoveRole(ctx context.Context, guild, user, role snowflake.ID) error
}

// Invite is a resolved guild invite.
type Invite struct {
	Code      string
	GuildID   snowflake.ID
	GuildName string
	Permanent bool
}

// InviteResolver looks up invite codes. An unknown code yields ErrNotFound.
type InviteResolver interface {
	ResolveInvite(ctx context.Context, code string) (Invite, error)
}
