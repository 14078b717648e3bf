package discord

import (
	"fmt"
	"github.com/bwmarrin/discordgo"
	"regexp"
	"slices"
	"strings"
	"warden/pkg/slicesx"
)

type Member struct {
	ID       string
	Username string
	Nick     string
	Roles    []string
	Bot      bool
}

func (m *Member) Mention() string {
	return Mention(m.ID)
}

// DisplayName prefers the guild nickname.
func (m *Member) DisplayName() string {
	if len(m.Nick) > 0 {
		return m.Nick
	}
	return m.Username
}

// Distinct names the member unambiguously for moderation logs.
func (m *Member) Distinct() string {
	return fmt.Sprintf("%s (%s)", m.Username, m.ID)
}

func (m *Member) HasRole(roleID string) bool {
	return slices.Contains(m.Roles, roleID)
}

func (m *Member) HasAnyRole(roleIDs []string) bool {
	return slicesx.ContainsAny(m.Roles, roleIDs)
}

func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

var mentionRegex = regexp.MustCompile(`^<@!?(\d+)>$`)
var snowflakeRegex = regexp.MustCompile(`^\d{15,21}$`)

// ParseUserID extracts the user id from a mention or a bare id.
func ParseUserID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := mentionRegex.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if snowflakeRegex.MatchString(s) {
		return s, true
	}
	return "", false
}

func createMember(m *discordgo.Member) *Member {
	if m == nil || m.User == nil {
		return nil
	}

	return &Member{
		ID:       m.User.ID,
		Username: m.User.Username,
		Nick:     m.Nick,
		Roles:    slices.Clone(m.Roles),
		Bot:      m.User.Bot,
	}
}

// matchesName compares query against the username and nickname, ignoring case.
func (m *Member) matchesName(query string) bool {
	return strings.EqualFold(m.Username, query) || (len(m.Nick) > 0 && strings.EqualFold(m.Nick, query))
}
