package commands

import (
	"context"
	"warden/pkg/api/discord"
	"warden/pkg/log"
)

const UnraidCommandName = "unraid"

type UnraidCommand struct {
	*commandStub
}

func NewUnraidCommand(r *CommandRegistry) Command {
	return &UnraidCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *UnraidCommand) Name() string {
	return UnraidCommandName
}

func (c *UnraidCommand) Description() string {
	return "Ends raid protection and restores the members who were muted when they joined during the raid."
}

func (c *UnraidCommand) Triggers() []string {
	return []string{"unraid"}
}

func (c *UnraidCommand) Usages() []string {
	return []string{"%s"}
}

func (c *UnraidCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *UnraidCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 0)
}

func (c *UnraidCommand) Execute(ctx context.Context, e *discord.Event) {
	log.Logger().Infof(e, "⚡ %s [%s/%s]", c.Name(), e.UserID, e.ChannelID)

	result, err := c.engine.Unraid(ctx, c.request(e, ""))
	c.reply(e, result, err, "Raid protections aren't active.")
}
