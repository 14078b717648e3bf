package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"warden/pkg/api/discord"
	"warden/pkg/api/style"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/moderation"
)

type Role string

const (
	RoleOwner        Role = "owner"
	RoleAdmin        Role = "admin"
	RoleModerator    Role = "moderator"
	RoleUnprivileged Role = ""
)

type Command interface {
	Name() string
	Description() string
	Triggers() []string
	Usages() []string
	AllowedInDirectMessages() bool
	Authorizer() CommandAuthorizer
	CanExecute(e *discord.Event) bool
	Execute(ctx context.Context, e *discord.Event)
	Replyf(e *discord.Event, message string, args ...any)
}

const inputMaxLength = 512

type commandStub struct {
	cfg        *config.Config
	discord    discord.Discord
	engine     *moderation.Engine
	registry   *CommandRegistry
	authorizer CommandAuthorizer
}

func newCommandStub(r *CommandRegistry, requiredRole Role) *commandStub {
	return &commandStub{
		cfg:        r.cfg,
		discord:    r.discord,
		engine:     r.engine,
		registry:   r,
		authorizer: newCommandAuthorizer(r.cfg, r.engine, requiredRole),
	}
}

func defaultCommandStub(r *CommandRegistry) *commandStub {
	return newCommandStub(r, RoleUnprivileged)
}

func (cs *commandStub) Authorizer() CommandAuthorizer {
	return cs.authorizer
}

func (cs *commandStub) isTriggerValid(c Command, e *discord.Event, trigger string) bool {
	for _, t := range c.Triggers() {
		if strings.EqualFold(strings.TrimPrefix(trigger, cs.cfg.Commands.Prefix), t) && (strings.HasPrefix(trigger, cs.cfg.Commands.Prefix) || e.IsDirectMessage()) {
			return true
		}
	}

	return false
}

func (cs *commandStub) isCommandEventValid(c Command, e *discord.Event, minBodyTokens int) bool {
	tokens := Tokens(e.Content)
	if len(tokens) == 0 || !cs.isTriggerValid(c, e, tokens[0]) {
		return false
	}

	trigger := strings.TrimPrefix(tokens[0], cs.cfg.Commands.Prefix)

	// if the command is not allowed in direct messages and the message is a direct message, ignore
	if !c.AllowedInDirectMessages() && e.IsDirectMessage() {
		cs.Replyf(e, "The %s command is not allowed in direct messages. See %s for more information.", style.Bold(trigger), cs.helpReference(trigger))
		return false
	}

	// if the command requires a minimum number of body tokens, check that
	if minBodyTokens > 0 && len(tokens) < minBodyTokens+1 {
		cs.Replyf(e, "Invalid number of arguments for %s. See %s for more information.", style.Bold(trigger), cs.helpReference(trigger))
		return false
	}

	return true
}

func (cs *commandStub) helpReference(trigger string) string {
	return style.Italics(fmt.Sprintf("%s%s %s", cs.cfg.Commands.Prefix, HelpCommandName, trigger))
}

func (cs *commandStub) SendMessage(e *discord.Event, channelID, message string) {
	log.Logger().Infof(e, "Sending message to %s: %s", channelID, message)
	if _, err := cs.discord.SendMessage(channelID, message); err != nil {
		log.Logger().Errorf(e, "error sending message to %s, %s", channelID, err)
	}
}

func (cs *commandStub) SendMessages(e *discord.Event, channelID string, messages []string) {
	cs.SendMessage(e, channelID, strings.Join(messages, "\n"))
}

func (cs *commandStub) Replyf(e *discord.Event, message string, args ...any) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}

	log.Logger().Infof(e, "Replying: %s", message)
	if _, err := cs.discord.SendMessage(e.ChannelID, message); err != nil {
		log.Logger().Errorf(e, "error replying in %s, %s", e.ChannelID, err)
	}
}

func (cs *commandStub) UnauthorizedReply(e *discord.Event) {
	tokens := Tokens(e.Content)
	cs.Replyf(e, "You are not authorized to use %s.", style.Bold(strings.TrimPrefix(tokens[0], cs.cfg.Commands.Prefix)))
}

// reply sends the outcome of a moderation flow. notActive is used when the target has nothing to undo.
func (cs *commandStub) reply(e *discord.Event, result *moderation.Result, err error, notActive string) {
	switch {
	case err == nil:
		cs.Replyf(e, result.Message)
	case errors.Is(err, moderation.ErrNotAuthorized):
		cs.UnauthorizedReply(e)
	case errors.Is(err, moderation.ErrTargetNotFound):
		cs.Replyf(e, "I couldn't find that member.")
	case errors.Is(err, moderation.ErrProtectedTarget):
		cs.Replyf(e, "Moderators can't be targeted by that command.")
	case errors.Is(err, moderation.ErrNotActive):
		cs.Replyf(e, notActive)
	case errors.Is(err, moderation.ErrInvalidSetting):
		cs.Replyf(e, "Settings must be whole numbers greater than zero.")
	case errors.Is(err, moderation.ErrInvalidCount):
		cs.Replyf(e, "The number of messages must be between 1 and 100.")
	default:
		log.Logger().Errorf(e, "error running %s, %s", Tokens(e.Content)[0], err)
		cs.Replyf(e, "Something went wrong, nothing was changed.")
	}
}

func (cs *commandStub) request(e *discord.Event, target string) moderation.Request {
	return moderation.Request{ActorID: e.UserID, ChannelID: e.ChannelID, MessageID: e.MessageID, Target: target}
}

// sanitize cleans the input string
func sanitize(input string) string {
	sanitized := strings.TrimSpace(input)
	if len(sanitized) > inputMaxLength {
		return sanitized[:inputMaxLength]
	}
	return sanitized
}

// Tokens splits the input string into sanitized tokens
func Tokens(input string) []string {
	return strings.Fields(sanitize(input))
}

// body joins every token after the trigger.
func body(input string) string {
	tokens := Tokens(input)
	if len(tokens) < 2 {
		return ""
	}
	return strings.Join(tokens[1:], " ")
}
