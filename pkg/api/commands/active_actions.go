package commands

import (
	"context"
	"fmt"
	"warden/pkg/api/discord"
	"warden/pkg/api/elapse"
	"warden/pkg/api/style"
	"warden/pkg/log"
	"warden/pkg/models"
)

const (
	MutesCommandName    = "mutes"
	SoftbansCommandName = "softbans"
)

const maxListedActions = 25

// ActiveActionsCommand lists the pending actions of one kind, soonest expiry first.
type ActiveActionsCommand struct {
	*commandStub
	name string
	kind string
}

func NewActiveActionsCommand(r *CommandRegistry, name, kind string) Command {
	return &ActiveActionsCommand{
		commandStub: newCommandStub(r, RoleModerator),
		name:        name,
		kind:        kind,
	}
}

func (c *ActiveActionsCommand) Name() string {
	return c.name
}

func (c *ActiveActionsCommand) Description() string {
	return fmt.Sprintf("Lists active %ss and when they expire.", c.kind)
}

func (c *ActiveActionsCommand) Triggers() []string {
	return []string{c.name}
}

func (c *ActiveActionsCommand) Usages() []string {
	return []string{"%s"}
}

func (c *ActiveActionsCommand) AllowedInDirectMessages() bool {
	return false
}

func (c *ActiveActionsCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 0)
}

func (c *ActiveActionsCommand) Execute(ctx context.Context, e *discord.Event) {
	logger := log.Logger()
	logger.Infof(e, "⚡ %s [%s/%s]", c.Name(), e.UserID, e.ChannelID)

	actions, err := c.engine.Active(ctx, c.kind)
	if err != nil {
		logger.Errorf(e, "error listing %s actions, %s", c.kind, err)
		c.Replyf(e, "Something went wrong, try again later.")
		return
	}

	if len(actions) == 0 {
		c.Replyf(e, "There are no active %ss.", c.kind)
		return
	}

	reply := []string{style.Bold(fmt.Sprintf("Active %ss (%d):", c.kind, len(actions)))}
	for i, action := range actions {
		if i == maxListedActions {
			reply = append(reply, style.Italics(fmt.Sprintf("…and %d more.", len(actions)-maxListedActions)))
			break
		}
		reply = append(reply, c.describe(action))
	}

	c.SendMessages(e, e.ChannelID, reply)
}

func (c *ActiveActionsCommand) describe(action *models.TimedAction) string {
	subject := action.SubjectID
	if m, err := c.discord.Member(action.SubjectID); err == nil {
		subject = m.Distinct()
	}

	line := fmt.Sprintf("• %s expires %s", subject, elapse.FutureTimeDescription(action.ExpiresAt))
	if len(action.Reason) > 0 {
		line += fmt.Sprintf(" (%s)", style.Escape(action.Reason))
	}
	return line
}
