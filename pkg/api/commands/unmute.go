package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const UnmuteCommandName = "unmute"

type UnmuteCommand struct {
	*commandStub
}

func NewUnmuteCommand(r *CommandRegistry) Command {
	return &UnmuteCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *UnmuteCommand) Name() string {
	return UnmuteCommandName
}

func (c *UnmuteCommand) Description() string {
	return "Lifts the mute on the specified member before it expires."
}

func (c *UnmuteCommand) Triggers() []string {
	return []string{"unmute"}
}

func (c *UnmuteCommand) Usages() []string {
	return []string{"%s <member>"}
}

func (c *UnmuteCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *UnmuteCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *UnmuteCommand) Execute(ctx context.Context, e *discord.Event) {
	target := body(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, target)

	result, err := c.engine.Unmute(ctx, c.request(e, target))
	c.reply(e, result, err, "That member isn't muted.")
}
