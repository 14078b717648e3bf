package commands

import (
	"slices"
	"warden/pkg/api/discord"
	"warden/pkg/config"
	"warden/pkg/moderation"
)

type CommandAuthorizer interface {
	RequiredRole() Role
	IsAuthorized(e *discord.Event) bool
	IsUserAuthorizedByRole(userID string, role Role) bool
}

type commandAuthorizer struct {
	cfg          *config.Config
	engine       *moderation.Engine
	requiredRole Role
}

func newCommandAuthorizer(cfg *config.Config, engine *moderation.Engine, role Role) *commandAuthorizer {
	return &commandAuthorizer{
		cfg:          cfg,
		engine:       engine,
		requiredRole: role,
	}
}

func (c *commandAuthorizer) RequiredRole() Role {
	return c.requiredRole
}

// IsUserAuthorizedByRole checks if the given user is authorized based on authorization configuration settings
func (c *commandAuthorizer) IsUserAuthorizedByRole(userID string, role Role) bool {
	switch role {
	case RoleOwner:
		return userID == c.cfg.Discord.Owner
	case RoleAdmin:
		return userID == c.cfg.Discord.Owner || slices.Contains(c.cfg.Discord.Admins, userID)
	case RoleModerator:
		return c.engine.IsModerator(userID)
	}
	return true
}

func (c *commandAuthorizer) IsAuthorized(e *discord.Event) bool {
	if len(c.requiredRole) == 0 {
		return true
	}
	return c.IsUserAuthorizedByRole(e.UserID, c.requiredRole)
}
