package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const WarnCommandName = "warn"

type WarnCommand struct {
	*commandStub
}

func NewWarnCommand(r *CommandRegistry) Command {
	return &WarnCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *WarnCommand) Name() string {
	return WarnCommandName
}

func (c *WarnCommand) Description() string {
	return "Sends the specified member a warning from the staff and records it in the mod log."
}

func (c *WarnCommand) Triggers() []string {
	return []string{"warn", "warning"}
}

func (c *WarnCommand) Usages() []string {
	return []string{"%s <member>"}
}

func (c *WarnCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *WarnCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *WarnCommand) Execute(ctx context.Context, e *discord.Event) {
	target := body(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, target)

	result, err := c.engine.Warn(ctx, c.request(e, target))
	c.reply(e, result, err, "")
}
