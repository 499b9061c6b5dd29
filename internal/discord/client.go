// Package discord adapts a discordgo session to the platform interfaces.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/platform"
)

// membersPageSize is the largest page the guild members endpoint returns.
const membersPageSize = 1000

// rest is the subset of *discordgo.Session the client calls.
type rest interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	InviteComplex(inviteID, guildScheduledEventID string, withCounts, withExpiration bool, options ...discordgo.RequestOption) (*discordgo.Invite, error)
}

// Client implements platform.Messenger, platform.Membership and platform.InviteResolver over
// the Discord REST API.
type Client struct {
	api    rest
	logger *zap.Logger
}

var (
	_ platform.Messenger      = (*Client)(nil)
	_ platform.Membership     = (*Client)(nil)
	_ platform.InviteResolver = (*Client)(nil)
)

// New creates a REST-only client for a bot token.
func New(token string, logger *zap.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return newClient(s, logger), nil
}

func newClient(api rest, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, logger: logger}
}

// SendMessage posts a message made of blocks and returns its ID.
func (c *Client) SendMessage(ctx context.Context, channel snowflake.ID, blocks []platform.Block) (snowflake.ID, error) {
	msg, err := c.api.ChannelMessageSendComplex(channel.String(), &discordgo.MessageSend{
		Embeds: toEmbeds(blocks),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, classify("send message", err)
	}
	return parseID("send message", msg.ID)
}

// EditMessage replaces the blocks of an existing message.
func (c *Client) EditMessage(ctx context.Context, channel, message snowflake.ID, blocks []platform.Block) error {
	edit := discordgo.NewMessageEdit(channel.String(), message.String()).SetEmbeds(toEmbeds(blocks))
	if _, err := c.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return classify("edit message", err)
	}
	return nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, channel, message snowflake.ID) error {
	if err := c.api.ChannelMessageDelete(channel.String(), message.String(), discordgo.WithContext(ctx)); err != nil {
		return classify("delete message", err)
	}
	return nil
}

// Members pages through every member of guild.
func (c *Client) Members(ctx context.Context, guild snowflake.ID, fn func(platform.Member) error) error {
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := c.api.GuildMembers(guild.String(), after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return classify("list members", err)
		}
		for _, m := range page {
			member, err := toMember(m)
			if err != nil {
				return err
			}
			if err := fn(member); err != nil {
				return err
			}
		}
		if len(page) < membersPageSize {
			return nil
		}
		after = page[len(page)-1].User.ID
	}
}

// Member fetches one guild member.
func (c *Client) Member(ctx context.Context, guild, user snowflake.ID) (platform.Member, error) {
	m, err := c.api.GuildMember(guild.String(), user.String(), discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, classify("get member", err)
	}
	return toMember(m)
}

// AddRole grants role to user.
func (c *Client) AddRole(ctx context.Context, guild, user, role snowflake.ID) error {
	if err := c.api.GuildMemberRoleAdd(guild.String(), user.String(), role.String(), discordgo.WithContext(ctx)); err != nil {
		return classify("add role", err)
	}
	return nil
}

// RemoveRole revokes role from user.
func (c *Client) RemoveRole(ctx context.Context, guild, user, role snowflake.ID) error {
	if err := c.api.GuildMemberRoleRemove(guild.String(), user.String(), role.String(), discordgo.WithContext(ctx)); err != nil {
		return classify("remove role", err)
	}
	return nil
}

// ResolveInvite looks up an invite with its expiration.
func (c *Client) ResolveInvite(ctx context.Context, code string) (platform.Invite, error) {
	inv, err := c.api.InviteComplex(code, "", false, true, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Invite{}, classify("resolve invite", err)
	}
	out := platform.Invite{Code: inv.Code, Permanent: inv.ExpiresAt == nil}
	if inv.Guild != nil {
		id, err := parseID("resolve invite", inv.Guild.ID)
		if err != nil {
			return platform.Invite{}, err
		}
		out.GuildID = id
		out.GuildName = inv.Guild.Name
	}
	return out, nil
}

func toEmbeds(blocks []platform.Block) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, len(blocks))
	for _, b := range blocks {
		e := &discordgo.MessageEmbed{Description: b.Description}
		if b.Color != nil {
			e.Color = *b.Color
		}
		if b.ImageURL != "" {
			e.Image = &discordgo.MessageEmbedImage{URL: b.ImageURL}
		}
		for _, f := range b.Fields {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		embeds = append(embeds, e)
	}
	return embeds
}

func toMember(m *discordgo.Member) (platform.Member, error) {
	if m.User == nil {
		return platform.Member{}, platform.NewError(platform.KindOther, "decode member", errors.New("member without user"))
	}
	id, err := parseID("decode member", m.User.ID)
	if err != nil {
		return platform.Member{}, err
	}
	out := platform.Member{UserID: id, Roles: make([]snowflake.ID, 0, len(m.Roles))}
	for _, r := range m.Roles {
		role, err := parseID("decode member", r)
		if err != nil {
			return platform.Member{}, err
		}
		out.Roles = append(out.Roles, role)
	}
	return out, nil
}

func parseID(op, s string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(s)
	if err != nil {
		return 0, platform.NewError(platform.KindOther, op, fmt.Errorf("parse id %q: %w", s, err))
	}
	return id, nil
}

// classify maps REST status codes onto platform error kinds.
func classify(op string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return platform.NewError(platform.KindNotFound, op, err)
		case http.StatusForbidden:
			return platform.NewError(platform.KindForbidden, op, err)
		}
	}
	return platform.NewError(platform.KindOther, op, err)
}
