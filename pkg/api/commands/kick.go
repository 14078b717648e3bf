package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const KickCommandName = "kick"

type KickCommand struct {
	*commandStub
}

func NewKickCommand(r *CommandRegistry) Command {
	return &KickCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *KickCommand) Name() string {
	return KickCommandName
}

func (c *KickCommand) Description() string {
	return "Removes the specified member from the server. A reason must be given."
}

func (c *KickCommand) Triggers() []string {
	return []string{"kick"}
}

func (c *KickCommand) Usages() []string {
	return []string{"%s <member>"}
}

func (c *KickCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *KickCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *KickCommand) Execute(ctx context.Context, e *discord.Event) {
	target := body(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, target)

	result, err := c.engine.Kick(ctx, c.request(e, target))
	c.reply(e, result, err, "")
}
