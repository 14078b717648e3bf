package commands

import (
	"sort"
	"warden/pkg/api/discord"
	"warden/pkg/config"
	"warden/pkg/models"
	"warden/pkg/moderation"
)

type CommandRegistry struct {
	cfg      *config.Config
	discord  discord.Discord
	engine   *moderation.Engine
	commands map[string]Command
}

func NewCommandRegistry(cfg *config.Config, d discord.Discord, engine *moderation.Engine) *CommandRegistry {
	r := &CommandRegistry{
		cfg:      cfg,
		discord:  d,
		engine:   engine,
		commands: make(map[string]Command),
	}

	r.RegisterCommands()
	return r
}

func (r *CommandRegistry) Command(name string) Command {
	if c, ok := r.commands[name]; ok {
		return c
	}

	return nil
}

func (r *CommandRegistry) Commands() map[string]Command {
	return r.commands
}

// CommandsSortedForProcessing orders commands by name so trigger matching is deterministic.
func (r *CommandRegistry) CommandsSortedForProcessing() []Command {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	commands := make([]Command, 0, len(names))
	for _, name := range names {
		commands = append(commands, r.commands[name])
	}
	return commands
}

func (r *CommandRegistry) RegisterCommands() {
	r.commands[HelpCommandName] = NewHelpCommand(r)
	r.commands[MuteCommandName] = NewMuteCommand(r)
	r.commands[UnmuteCommandName] = NewUnmuteCommand(r)
	r.commands[SoftbanCommandName] = NewSoftbanCommand(r)
	r.commands[BanCommandName] = NewBanCommand(r)
	r.commands[WarnCommandName] = NewWarnCommand(r)
	r.commands[KickCommandName] = NewKickCommand(r)
	r.commands[PurgeCommandName] = NewPurgeCommand(r)
	r.commands[MutesCommandName] = NewActiveActionsCommand(r, MutesCommandName, models.ActionKindMute)
	r.commands[SoftbansCommandName] = NewActiveActionsCommand(r, SoftbansCommandName, models.ActionKindSoftban)
	r.commands[UnraidCommandName] = NewUnraidCommand(r)
	r.commands[RaidConfigCommandName] = NewRaidConfigCommand(r)
	r.commands[FloodConfigCommandName] = NewFloodConfigCommand(r)
}
