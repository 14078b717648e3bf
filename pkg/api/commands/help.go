package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"warden/pkg/api/discord"
	"warden/pkg/api/style"
	"warden/pkg/log"
)

const HelpCommandName = "help"

type HelpCommand struct {
	*commandStub
}

func NewHelpCommand(r *CommandRegistry) Command {
	return &HelpCommand{
		commandStub: defaultCommandStub(r),
	}
}

func (c *HelpCommand) Name() string {
	return HelpCommandName
}

func (c *HelpCommand) Description() string {
	return "Displays help for the given command."
}

func (c *HelpCommand) Triggers() []string {
	return []string{"help"}
}

func (c *HelpCommand) Usages() []string {
	return []string{"%s", "%s <command>"}
}

func (c *HelpCommand) AllowedInDirectMessages() bool {
	return true
}

func (c *HelpCommand) CanExecute(e *discord.Event) bool {
	return c.isCommandEventValid(c, e, 0)
}

func (c *HelpCommand) Execute(ctx context.Context, e *discord.Event) {
	tokens := Tokens(e.Content)
	logger := log.Logger()
	logger.Infof(e, "⚡ %s [%s/%s] %s", c.Name(), e.UserID, e.ChannelID, e.Content)

	// if no command is specified, list all available commands
	if len(tokens) == 1 {
		reply := make([]string, 0)
		reply = append(reply, fmt.Sprintf("%s: %s", style.Bold(style.Underline(c.Name())), c.Description()))

		commands := make([]string, 0)
		for _, cmd := range c.registry.Commands() {
			triggers := strings.Join(cmd.Triggers(), "/")
			if len(cmd.Authorizer().RequiredRole()) > 0 {
				triggers += `\*`
			}
			commands = append(commands, triggers)
		}
		slices.Sort(commands)

		reply = append(reply, fmt.Sprintf("%s: %s (\\* requires authorization)", style.Underline("Commands"), strings.Join(commands, ", ")))
		reply = append(reply, fmt.Sprintf("%s: %s", style.Underline("Usage"), style.Italics(c.usages(c, c.Name()))))

		c.SendMessages(e, e.ChannelID, reply)
		return
	}

	trigger := strings.ToLower(strings.TrimPrefix(tokens[1], c.cfg.Commands.Prefix))

	var cmd Command
	for _, s := range c.registry.Commands() {
		if slices.Contains(s.Triggers(), trigger) {
			cmd = s
		}
	}

	if cmd == nil {
		logger.Warningf(e, "command %s not found", trigger)
		c.Replyf(e, "Command %s not found. See %s for a list of available commands.", style.Bold(trigger), style.Italics(c.cfg.Commands.Prefix+HelpCommandName))
		return
	}

	extra := make([]string, 0)
	for _, t := range cmd.Triggers() {
		if t != trigger {
			extra = append(extra, style.Bold(t))
		}
	}

	heading := style.Bold(style.Underline(trigger))
	if len(extra) > 0 {
		heading += fmt.Sprintf(" (or %s)", strings.Join(extra, ", "))
	}

	reply := []string{fmt.Sprintf("%s: %s", heading, cmd.Description())}
	if len(cmd.Usages()) > 0 {
		reply = append(reply, fmt.Sprintf("Usage: %s", style.Italics(c.usages(cmd, trigger))))
	}

	footer := make([]string, 0)
	if role := cmd.Authorizer().RequiredRole(); len(role) > 0 {
		footer = append(footer, fmt.Sprintf("Requires %s role.", role))
	}
	if !cmd.AllowedInDirectMessages() {
		footer = append(footer, "Must be used in a channel.")
	}
	if len(footer) > 0 {
		reply = append(reply, strings.Join(footer, " "))
	}

	c.SendMessages(e, e.ChannelID, reply)
}

func (c *HelpCommand) usages(cmd Command, trigger string) string {
	usages := make([]string, 0, len(cmd.Usages()))
	for _, u := range cmd.Usages() {
		usages = append(usages, fmt.Sprintf(u, c.cfg.Commands.Prefix+trigger))
	}
	return strings.Join(usages, ", ")
}
