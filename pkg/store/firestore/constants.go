package firestore

const (
	pathGuilds         = "guilds"
	pathMutedUsers     = "muted-users"
	pathSoftbanUsers   = "softban-users"
	pathSettings       = "settings"
	documentModeration = "moderation"
)
