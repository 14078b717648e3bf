package discord

const (
	EventTypeReady      = "READY"
	EventTypeMessage    = "MESSAGE_CREATE"
	EventTypeReaction   = "MESSAGE_REACTION_ADD"
	EventTypeMemberJoin = "GUILD_MEMBER_ADD"
)

const (
	EmojiCancel = "❌"
	EmojiMute   = "🔇"
	EmojiBan    = "🔨"
	EmojiWarn   = "⚠"
	EmojiKick   = "👢"
)
