package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const MuteCommandName = "mute"

type MuteCommand struct {
	*commandStub
}

func NewMuteCommand(r *CommandRegistry) Command {
	return &MuteCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *MuteCommand) Name() string {
	return MuteCommandName
}

func (c *MuteCommand) Description() string {
	return "Mutes the specified member for a length of time you choose. The mute is lifted automatically once it expires."
}

func (c *MuteCommand) Triggers() []string {
	return []string{"mute", "tempmute"}
}

func (c *MuteCommand) Usages() []string {
	return []string{"%s <member>"}
}

func (c *MuteCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *MuteCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *MuteCommand) Execute(ctx context.Context, e *discord.Event) {
	target := body(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, target)

	result, err := c.engine.BeginMute(ctx, c.request(e, target))
	c.reply(e, result, err, "")
}
