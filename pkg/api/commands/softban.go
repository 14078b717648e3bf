package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const SoftbanCommandName = "softban"

type SoftbanCommand struct {
	*commandStub
}

func NewSoftbanCommand(r *CommandRegistry) Command {
	return &SoftbanCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *SoftbanCommand) Name() string {
	return SoftbanCommandName
}

func (c *SoftbanCommand) Description() string {
	return "Bans the specified member for a length of time you choose, optionally deleting their recent messages. The ban is lifted automatically once it expires."
}

func (c *SoftbanCommand) Triggers() []string {
	return []string{"softban", "tempban"}
}

func (c *SoftbanCommand) Usages() []string {
	return []string{"%s <member>"}
}

func (c *SoftbanCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *SoftbanCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *SoftbanCommand) Execute(ctx context.Context, e *discord.Event) {
	target := body(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, target)

	result, err := c.engine.BeginSoftban(ctx, c.request(e, target))
	c.reply(e, result, err, "")
}
