package discord

import (
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"time"
)

// Event is a gateway event reduced to the fields moderation needs.
type Event struct {
	ID        string
	Type      string
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Username  string
	Content   string
	Emoji     string
	Mentions  []string
	IsBot     bool
	CreatedAt time.Time
}

func (e *Event) IsDirectMessage() bool {
	return e.Type == EventTypeMessage && len(e.GuildID) == 0
}

func (e *Event) Labels() map[string]string {
	labels := make(map[string]string)
	labels["id"] = e.ID
	labels["type"] = e.Type
	labels["guild"] = e.GuildID
	labels["channel"] = e.ChannelID
	labels["user"] = e.UserID
	labels["is_direct_message"] = fmt.Sprintf("%t", e.IsDirectMessage())
	if len(e.MessageID) > 0 {
		labels["message"] = e.MessageID
	}
	if len(e.Emoji) > 0 {
		labels["emoji"] = e.Emoji
	}
	return labels
}

func newEvent(eventType string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CreatedAt: time.Now(),
	}
}

func createMessageEvent(m *discordgo.MessageCreate) *Event {
	e := newEvent(EventTypeMessage)
	e.GuildID = m.GuildID
	e.ChannelID = m.ChannelID
	e.MessageID = m.ID
	e.Content = m.Content

	if m.Author != nil {
		e.UserID = m.Author.ID
		e.Username = m.Author.Username
		e.IsBot = m.Author.Bot
	}

	for _, u := range m.Mentions {
		e.Mentions = append(e.Mentions, u.ID)
	}

	return e
}

func createReactionEvent(r *discordgo.MessageReactionAdd) *Event {
	e := newEvent(EventTypeReaction)
	e.GuildID = r.GuildID
	e.ChannelID = r.ChannelID
	e.MessageID = r.MessageID
	e.UserID = r.UserID
	e.Emoji = r.Emoji.Name

	if r.Member != nil && r.Member.User != nil {
		e.Username = r.Member.User.Username
		e.IsBot = r.Member.User.Bot
	}

	return e
}

func createMemberJoinEvent(m *discordgo.GuildMemberAdd) *Event {
	e := newEvent(EventTypeMemberJoin)
	e.GuildID = m.GuildID

	if m.User != nil {
		e.UserID = m.User.ID
		e.Username = m.User.Username
		e.IsBot = m.User.Bot
	}

	return e
}
