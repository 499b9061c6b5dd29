package partners

import (
	"net/url"
	"regexp"
	"strings"

	apperrors "github.com/partnerbot/backend/pkg/errors"
)

var inviteCodeRegex = regexp.MustCompile(`^[A-Za-z0-9-]{2,32}$`)

// ParseInviteCode reduces an invite link (discord.gg/<code>, discord.com/invite/<code>) or a bare
// code to the code.
func ParseInviteCode(link string) (string, error) {
	s := strings.TrimSpace(link)
	if s == "" {
		return "", apperrors.NewValidationError("invite", "required")
	}
	if !strings.Contains(s, "/") {
		return checkCode(s)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", apperrors.NewValidationError("invite", "not a link")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")
	switch host {
	case "discord.gg":
		return checkCode(path)
	case "discord.com", "discordapp.com":
		if code, ok := strings.CutPrefix(path, "invite/"); ok {
			return checkCode(code)
		}
	}
	return "", apperrors.NewValidationError("invite", "not a Discord invite link")
}

func checkCode(code string) (string, error) {
	if !inviteCodeRegex.MatchString(code) {
		return "", apperrors.NewValidationError("invite", "malformed invite code")
	}
	return code, nil
}
