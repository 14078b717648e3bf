package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"warden/pkg/api/discord"
	"warden/pkg/api/elapse"
	"warden/pkg/api/style"
	"warden/pkg/log"
	"warden/pkg/models"
)

const (
	RaidConfigCommandName  = "raidconfig"
	FloodConfigCommandName = "floodconfig"
)

// setting is one threshold a config command can change.
type setting struct {
	name  string
	value func(s models.Settings) int
	apply func(s *models.Settings, n int)
}

// SettingsConfigCommand shows or changes one group of protection thresholds.
type SettingsConfigCommand struct {
	*commandStub
	name        string
	trigger     string
	description string
	settings    []setting
	summary     func(s models.Settings) string
	save        func(ctx context.Context, s models.Settings) error
}

func NewRaidConfigCommand(r *CommandRegistry) Command {
	return &SettingsConfigCommand{
		commandStub: newCommandStub(r, RoleModerator),
		name:        RaidConfigCommandName,
		trigger:     "raidconfig",
		description: "Shows or changes how many joins within how many seconds activate raid protection.",
		settings: []setting{
			{"users", func(s models.Settings) int { return s.RaidUsers }, func(s *models.Settings, n int) { s.RaidUsers = n }},
			{"seconds", func(s models.Settings) int { return s.RaidSeconds }, func(s *models.Settings, n int) { s.RaidSeconds = n }},
		},
		summary: func(s models.Settings) string {
			return fmt.Sprintf("Raid protection activates when %s join within %s.", plural(s.RaidUsers, "user"), plural(s.RaidSeconds, "second"))
		},
		save: func(ctx context.Context, s models.Settings) error {
			return r.engine.UpdateRaidSettings(ctx, s.RaidUsers, s.RaidSeconds)
		},
	}
}

func NewFloodConfigCommand(r *CommandRegistry) Command {
	return &SettingsConfigCommand{
		commandStub: newCommandStub(r, RoleModerator),
		name:        FloodConfigCommandName,
		trigger:     "floodconfig",
		description: "Shows or changes how many messages within how many seconds count as flooding.",
		settings: []setting{
			{"messages", func(s models.Settings) int { return s.FloodMessages }, func(s *models.Settings, n int) { s.FloodMessages = n }},
			{"seconds", func(s models.Settings) int { return s.FloodSeconds }, func(s *models.Settings, n int) { s.FloodSeconds = n }},
		},
		summary: func(s models.Settings) string {
			return fmt.Sprintf("Flood protection activates when a member sends %s within %s.", plural(s.FloodMessages, "message"), plural(s.FloodSeconds, "second"))
		},
		save: func(ctx context.Context, s models.Settings) error {
			return r.engine.UpdateFloodSettings(ctx, s.FloodMessages, s.FloodSeconds)
		},
	}
}

func (c *SettingsConfigCommand) Name() string {
	return c.name
}

func (c *SettingsConfigCommand) Description() string {
	return c.description
}

func (c *SettingsConfigCommand) Triggers() []string {
	return []string{c.trigger}
}

func (c *SettingsConfigCommand) Usages() []string {
	usages := []string{"%s"}
	for _, s := range c.settings {
		usages = append(usages, fmt.Sprintf("%%s %s <number>", s.name))
	}
	return usages
}

func (c *SettingsConfigCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *SettingsConfigCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 0)
}

func (c *SettingsConfigCommand) Execute(ctx context.Context, e *discord.Event) {
	tokens := Tokens(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, strings.Join(tokens[1:], " "))

	current := c.engine.Settings()
	if len(tokens) == 1 {
		c.Replyf(e, c.summary(current))
		return
	}

	if len(tokens) != 3 {
		c.Replyf(e, "Invalid number of arguments for %s. See %s for more information.", style.Bold(c.trigger), c.helpReference(c.trigger))
		return
	}

	var target *setting
	for i := range c.settings {
		if strings.EqualFold(tokens[1], c.settings[i].name) {
			target = &c.settings[i]
		}
	}
	if target == nil {
		c.Replyf(e, "Unknown setting %s. See %s for more information.", style.Bold(tokens[1]), c.helpReference(c.trigger))
		return
	}

	n, err := strconv.Atoi(tokens[2])
	if err != nil || n <= 0 {
		c.Replyf(e, "Settings must be whole numbers greater than zero.")
		return
	}

	target.apply(&current, n)
	if err = c.save(ctx, current); err != nil {
		c.reply(e, nil, err, "")
		return
	}

	c.Replyf(e, "%s %s", style.Bold("Updated."), c.summary(c.engine.Settings()))
}

func plural(n int, noun string) string {
	return elapse.Pluralize(int64(n), noun)
}
