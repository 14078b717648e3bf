package commands

import (
	"context"
	"strconv"
	"strings"
	"warden/pkg/api/discord"
	"warden/pkg/log"
	"warden/pkg/moderation"
)

const PurgeCommandName = "purge"

type PurgeCommand struct {
	*commandStub
}

func NewPurgeCommand(r *CommandRegistry) Command {
	return &PurgeCommand{
		commandStub: newCommandStub(r, RoleModerator),
	}
}

func (c *PurgeCommand) Name() string {
	return PurgeCommandName
}

func (c *PurgeCommand) Description() string {
	return "Deletes recent messages in the channel, optionally only those containing a quoted text or sent by a member."
}

func (c *PurgeCommand) Triggers() []string {
	return []string{"purge"}
}

func (c *PurgeCommand) Usages() []string {
	return []string{"%s <count>", `%s <count> "<text>"`, "%s <count> <member>"}
}

func (c *PurgeCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *PurgeCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 1)
}

func (c *PurgeCommand) Execute(ctx context.Context, e *discord.Event) {
	tokens := Tokens(e.Content)
	log.Logger().Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, strings.Join(tokens[1:], " "))

	count, err := strconv.Atoi(tokens[1])
	if err != nil {
		c.reply(e, nil, moderation.ErrInvalidCount, "")
		return
	}

	result, err := c.engine.Purge(ctx, c.request(e, ""), count, strings.Join(tokens[2:], " "))
	c.reply(e, result, err, "")
}
