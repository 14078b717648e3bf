package discord

import (
	"errors"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"slices"
	"sync"
	"time"
	"warden/pkg/config"
	"warden/pkg/log"
)

type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	Timestamp time.Time
}

type Discord interface {
	Connect(cfg *config.Config) error
	Listen(ech chan *Event)
	Disconnect() error
	BotUserID() string
	SendMessage(channelID, content string) (*Message, error)
	SendTemporaryMessage(channelID, content string, ttl time.Duration) error
	SendDirectMessage(userID, content string) error
	React(channelID, messageID, emoji string) error
	DeleteMessage(channelID, messageID string) error
	DeleteMessages(channelID string, messageIDs []string) error
	ChannelHistory(channelID string, limit int) ([]*Message, error)
	Member(userID string) (*Member, error)
	FindMember(query string) (*Member, error)
	ModifyRoles(userID string, add, remove []string, reason string) error
	Kick(userID, reason string) error
	Ban(userID string, purgeDays int, reason string) error
	Unban(userID, reason string) error
	AwaitReaction(filter func(*Event) bool, callback func(*Event)) (cancel func())
	AwaitMessage(filter func(*Event) bool, callback func(*Event)) (cancel func())
}

const (
	maxMessageLength = 2000
	maxBulkDelete    = 100
	maxHistory       = 100
)

func NewDiscord() Discord {
	return &service{
		awaiters: newAwaiters(),
		done:     make(chan struct{}),
	}
}

type service struct {
	sync.Mutex
	cfg      *config.Config
	session  *discordgo.Session
	awaiters *awaiters
	ech      chan *Event
	done     chan struct{}
	once     sync.Once
}

func (s *service) Connect(cfg *config.Config) error {
	s.cfg = cfg

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("error creating discord session, %w", err)
	}

	session.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers | discordgo.IntentsMessageContent
	session.StateEnabled = true

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Logger().Infof(nil, "connected as %s", r.User.Username)
		s.dispatch(newEvent(EventTypeReady))
	})

	session.AddHandler(func(ds *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || (ds.State.User != nil && m.Author.ID == ds.State.User.ID) {
			return
		}
		s.dispatch(createMessageEvent(m))
	})

	session.AddHandler(func(ds *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if ds.State.User != nil && r.UserID == ds.State.User.ID {
			return
		}
		s.dispatch(createReactionEvent(r))
	})

	session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		s.dispatch(createMemberJoinEvent(m))
	})

	if err = session.Open(); err != nil {
		return fmt.Errorf("error opening discord session, %w", err)
	}

	s.session = session
	return nil
}

// dispatch hands e to every matching awaiter, then to the listener when e belongs to the configured
// guild or is a direct message.
func (s *service) dispatch(e *Event) {
	s.awaiters.dispatch(e)

	if len(e.GuildID) > 0 && s.cfg != nil && e.GuildID != s.cfg.Discord.GuildID {
		return
	}

	s.Lock()
	ech := s.ech
	s.Unlock()

	if ech != nil {
		select {
		case ech <- e:
		case <-s.done:
		}
	}
}

// Listen delivers events to ech until Disconnect.
func (s *service) Listen(ech chan *Event) {
	s.Lock()
	s.ech = ech
	s.Unlock()

	<-s.done
}

func (s *service) Disconnect() error {
	s.once.Do(func() {
		close(s.done)
	})

	if s.session == nil {
		return nil
	}
	return s.session.Close()
}

func (s *service) BotUserID() string {
	if s.session == nil || s.session.State == nil || s.session.State.User == nil {
		return ""
	}
	return s.session.State.User.ID
}

func (s *service) SendMessage(channelID, content string) (*Message, error) {
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength-3] + "..."
	}

	m, err := s.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return nil, translate(err)
	}

	return createMessage(m), nil
}

// SendTemporaryMessage sends content and deletes it once ttl elapses.
func (s *service) SendTemporaryMessage(channelID, content string, ttl time.Duration) error {
	m, err := s.SendMessage(channelID, content)
	if err != nil {
		return err
	}

	time.AfterFunc(ttl, func() {
		if err := s.DeleteMessage(channelID, m.ID); err != nil && !IsNotPresent(err) {
			log.Logger().Warningf(nil, "error deleting temporary message %s, %s", m.ID, err)
		}
	})

	return nil
}

func (s *service) SendDirectMessage(userID, content string) error {
	ch, err := s.session.UserChannelCreate(userID)
	if err != nil {
		return translate(err)
	}

	_, err = s.SendMessage(ch.ID, content)
	return err
}

func (s *service) React(channelID, messageID, emoji string) error {
	return translate(s.session.MessageReactionAdd(channelID, messageID, emoji))
}

func (s *service) DeleteMessage(channelID, messageID string) error {
	return translate(s.session.ChannelMessageDelete(channelID, messageID))
}

// DeleteMessages bulk deletes in batches. Bulk delete needs at least two ids, so a single id is
// deleted on its own.
func (s *service) DeleteMessages(channelID string, messageIDs []string) error {
	var errs []error

	for len(messageIDs) > 0 {
		n := min(len(messageIDs), maxBulkDelete)
		batch := messageIDs[:n]
		messageIDs = messageIDs[n:]

		var err error
		if len(batch) == 1 {
			err = s.DeleteMessage(channelID, batch[0])
		} else {
			err = translate(s.session.ChannelMessagesBulkDelete(channelID, batch))
		}
		if err != nil && !IsNotPresent(err) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *service) ChannelHistory(channelID string, limit int) ([]*Message, error) {
	history, err := s.session.ChannelMessages(channelID, min(limit, maxHistory), "", "", "")
	if err != nil {
		return nil, translate(err)
	}

	messages := make([]*Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, createMessage(m))
	}
	return messages, nil
}

func (s *service) Member(userID string) (*Member, error) {
	if m, err := s.session.State.Member(s.cfg.Discord.GuildID, userID); err == nil {
		return createMember(m), nil
	}

	m, err := s.session.GuildMember(s.cfg.Discord.GuildID, userID)
	if err != nil {
		return nil, translate(err)
	}

	return createMember(m), nil
}

// FindMember resolves a mention, an id, a username or a nickname. It returns ErrNotPresent when nobody
// matches.
func (s *service) FindMember(query string) (*Member, error) {
	if id, ok := ParseUserID(query); ok {
		return s.Member(id)
	}

	if guild, err := s.session.State.Guild(s.cfg.Discord.GuildID); err == nil {
		for _, m := range guild.Members {
			if member := createMember(m); member != nil && member.matchesName(query) {
				return member, nil
			}
		}
	}

	results, err := s.session.GuildMembersSearch(s.cfg.Discord.GuildID, query, 1)
	if err != nil {
		return nil, translate(err)
	}
	if len(results) == 0 {
		return nil, ErrNotPresent
	}

	return createMember(results[0]), nil
}

// ModifyRoles replaces the member's roles in a single edit, so either every change applies or none does.
func (s *service) ModifyRoles(userID string, add, remove []string, reason string) error {
	m, err := s.session.GuildMember(s.cfg.Discord.GuildID, userID)
	if err != nil {
		return translate(err)
	}

	roles := applyRoles(m.Roles, add, remove)

	options := make([]discordgo.RequestOption, 0)
	if len(reason) > 0 {
		options = append(options, discordgo.WithAuditLogReason(reason))
	}

	_, err = s.session.GuildMemberEdit(s.cfg.Discord.GuildID, userID, &discordgo.GuildMemberParams{Roles: &roles}, options...)
	return translate(err)
}

// applyRoles returns roles with add appended and remove taken out. Removal wins over addition.
func applyRoles(roles, add, remove []string) []string {
	result := make([]string, 0, len(roles)+len(add))
	for _, r := range append(slices.Clone(roles), add...) {
		if !slices.Contains(result, r) && !slices.Contains(remove, r) {
			result = append(result, r)
		}
	}
	return result
}

func (s *service) Kick(userID, reason string) error {
	return translate(s.session.GuildMemberDeleteWithReason(s.cfg.Discord.GuildID, userID, reason))
}

func (s *service) Ban(userID string, purgeDays int, reason string) error {
	return translate(s.session.GuildBanCreateWithReason(s.cfg.Discord.GuildID, userID, reason, purgeDays))
}

func (s *service) Unban(userID, reason string) error {
	options := make([]discordgo.RequestOption, 0)
	if len(reason) > 0 {
		options = append(options, discordgo.WithAuditLogReason(reason))
	}
	return translate(s.session.GuildBanDelete(s.cfg.Discord.GuildID, userID, options...))
}

func (s *service) AwaitReaction(filter func(*Event) bool, callback func(*Event)) func() {
	return s.awaiters.add(EventTypeReaction, filter, callback)
}

func (s *service) AwaitMessage(filter func(*Event) bool, callback func(*Event)) func() {
	return s.awaiters.add(EventTypeMessage, filter, callback)
}

func createMessage(m *discordgo.Message) *Message {
	message := &Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		message.AuthorID = m.Author.ID
	}
	return message
}

type awaiter struct {
	eventType string
	filter    func(*Event) bool
	callback  func(*Event)
}

// awaiters holds the one-off listeners registered by interactive prompts.
type awaiters struct {
	entries *xsync.MapOf[string, *awaiter]
}

func newAwaiters() *awaiters {
	return &awaiters{entries: xsync.NewMapOf[string, *awaiter]()}
}

func (a *awaiters) add(eventType string, filter func(*Event) bool, callback func(*Event)) func() {
	id := uuid.NewString()
	a.entries.Store(id, &awaiter{eventType: eventType, filter: filter, callback: callback})
	return func() {
		a.entries.Delete(id)
	}
}

func (a *awaiters) dispatch(e *Event) {
	a.entries.Range(func(_ string, w *awaiter) bool {
		if w.eventType == e.Type && (w.filter == nil || w.filter(e)) {
			w.callback(e)
		}
		return true
	})
}

func (a *awaiters) len() int {
	return a.entries.Size()
}
