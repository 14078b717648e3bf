package events

import (
	"context"
	"strings"
	"warden/pkg/api/commands"
	"warden/pkg/api/discord"
	"warden/pkg/api/style"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/moderation"
)

type Handler interface {
	FindMatchingCommand(e *discord.Event) commands.Command
	Handle(ctx context.Context, e *discord.Event)
}

type handler struct {
	cfg      *config.Config
	discord  discord.Discord
	engine   *moderation.Engine
	registry *commands.CommandRegistry
}

func NewHandler(cfg *config.Config, d discord.Discord, engine *moderation.Engine) Handler {
	return &handler{
		cfg:      cfg,
		discord:  d,
		engine:   engine,
		registry: commands.NewCommandRegistry(cfg, d, engine),
	}
}

func (eh *handler) FindMatchingCommand(e *discord.Event) commands.Command {
	for _, f := range eh.registry.CommandsSortedForProcessing() {
		if f.CanExecute(e) {
			return f
		}
	}
	return nil
}

func (eh *handler) Handle(ctx context.Context, e *discord.Event) {
	logger := log.Logger()
	logger.Debugf(e, "%s from %s in %s", e.Type, e.UserID, e.ChannelID)

	switch e.Type {
	case discord.EventTypeReady:
		logger.Infof(e, "ready in guild %s", eh.cfg.Discord.GuildID)
	case discord.EventTypeMemberJoin:
		if e.IsBot {
			return
		}
		go eh.engine.HandleMemberJoin(ctx, e.UserID)
	case discord.EventTypeMessage:
		if e.IsBot || e.UserID == eh.discord.BotUserID() {
			return
		}

		// flooded messages are deleted, never treated as commands
		if eh.engine.HandleMessage(ctx, e) {
			return
		}

		if f := eh.FindMatchingCommand(e); f != nil {
			if !f.Authorizer().IsAuthorized(e) {
				logger.Warningf(e, "unauthorized attempt by %s to use %s", e.UserID, f.Name())
				trigger := strings.TrimPrefix(commands.Tokens(e.Content)[0], eh.cfg.Commands.Prefix)
				f.Replyf(e, "You are not authorized to use %s.", style.Bold(trigger))
				return
			}

			go f.Execute(ctx, e)
		}
	}
}
