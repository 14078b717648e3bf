package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const BanCommandName = "ban"

type BanCommand struct {
	*commandStub
}

func NewBanCommand(r *CommandRegistry) Command {
	return &BanCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *BanCommand) Name() string {
	return BanCommandName
}

func (c *BanCommand) Description() string {
	return "Permanently bans the specified member. Any pending mute or softban for them is dropped."
}

func (c *BanCommand) Triggers() []string {
	return []string{"ban"}
}

func (c *BanCommand) Usages() []string {
	return []string{"%s <member>"}
}

func (c *BanCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *BanCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *BanCommand) Execute(ctx context.Context, e *discord.Event) {
	target := body(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, target)

	result, err := c.engine.Ban(ctx, c.request(e, target))
	c.reply(e, result, err, "")
}
