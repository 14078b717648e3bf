// Package discordtest provides an in-memory discord.Discord for tests.
package discordtest

import (
	"fmt"
	"github.com/google/uuid"
	"slices"
	"strings"
	"sync"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/config"
)

var _ discord.Discord = (*Fake)(nil)

// Reply is a scripted answer to the next prompt the fake reacts to. Either Content or Emoji is set.
type Reply struct {
	UserID  string
	Content string
	Emoji   string
}

type SentMessage struct {
	ID        string
	ChannelID string
	Content   string
}

type awaiter struct {
	eventType string
	filter    func(*discord.Event) bool
	callback  func(*discord.Event)
}

type Fake struct {
	sync.Mutex

	members  map[string]*discord.Member
	banned   map[string]string
	sent     []SentMessage
	deleted  []string
	dms      map[string][]string
	history  map[string][]*discord.Message
	awaiters map[string]*awaiter
	script   []Reply
	nextID   int

	// ModifyRolesErr, BanErr, UnbanErr and KickErr are returned by the matching calls when set.
	ModifyRolesErr error
	BanErr         error
	UnbanErr       error
	KickErr        error

	banCalls   int
	unbanCalls int
	roleCalls  int
	kicked     map[string]string
}

func NewFake() *Fake {
	return &Fake{
		members:  make(map[string]*discord.Member),
		banned:   make(map[string]string),
		dms:      make(map[string][]string),
		history:  make(map[string][]*discord.Message),
		awaiters: make(map[string]*awaiter),
		kicked:   make(map[string]string),
	}
}

func (f *Fake) AddMember(m *discord.Member) {
	f.Lock()
	defer f.Unlock()
	f.members[m.ID] = m
}

func (f *Fake) RemoveMember(userID string) {
	f.Lock()
	defer f.Unlock()
	delete(f.members, userID)
}

// Script queues replies; each one answers the next prompt the bot reacts to.
func (f *Fake) Script(replies ...Reply) {
	f.Lock()
	defer f.Unlock()
	f.script = append(f.script, replies...)
}

func (f *Fake) AddHistory(channelID string, messages ...*discord.Message) {
	f.Lock()
	defer f.Unlock()
	f.history[channelID] = append(f.history[channelID], messages...)
}

func (f *Fake) Roles(userID string) []string {
	f.Lock()
	defer f.Unlock()
	if m, ok := f.members[userID]; ok {
		return slices.Clone(m.Roles)
	}
	return nil
}

func (f *Fake) HasRole(userID, roleID string) bool {
	return slices.Contains(f.Roles(userID), roleID)
}

func (f *Fake) IsBanned(userID string) bool {
	f.Lock()
	defer f.Unlock()
	_, ok := f.banned[userID]
	return ok
}

func (f *Fake) BanReason(userID string) string {
	f.Lock()
	defer f.Unlock()
	return f.banned[userID]
}

func (f *Fake) IsMember(userID string) bool {
	f.Lock()
	defer f.Unlock()
	_, ok := f.members[userID]
	return ok
}

func (f *Fake) Sent(channelID string) []string {
	f.Lock()
	defer f.Unlock()

	contents := make([]string, 0)
	for _, m := range f.sent {
		if m.ChannelID == channelID {
			contents = append(contents, m.Content)
		}
	}
	return contents
}

// SentContaining reports whether any message in channelID contains s.
func (f *Fake) SentContaining(channelID, s string) bool {
	for _, c := range f.Sent(channelID) {
		if strings.Contains(c, s) {
			return true
		}
	}
	return false
}

func (f *Fake) DirectMessages(userID string) []string {
	f.Lock()
	defer f.Unlock()
	return slices.Clone(f.dms[userID])
}

func (f *Fake) Deleted() []string {
	f.Lock()
	defer f.Unlock()
	return slices.Clone(f.deleted)
}

// RoleCalls counts ModifyRoles calls, including failed ones.
func (f *Fake) RoleCalls() int {
	f.Lock()
	defer f.Unlock()
	return f.roleCalls
}

func (f *Fake) BanCalls() int {
	f.Lock()
	defer f.Unlock()
	return f.banCalls
}

func (f *Fake) UnbanCalls() int {
	f.Lock()
	defer f.Unlock()
	return f.unbanCalls
}

// KickReason returns the reason userID was kicked with and whether they were kicked at all.
func (f *Fake) KickReason(userID string) (string, bool) {
	f.Lock()
	defer f.Unlock()
	reason, ok := f.kicked[userID]
	return reason, ok
}

func (f *Fake) Awaiters() int {
	f.Lock()
	defer f.Unlock()
	return len(f.awaiters)
}

// Emit delivers e to every matching awaiter.
func (f *Fake) Emit(e *discord.Event) {
	if len(e.ID) == 0 {
		e.ID = uuid.NewString()
	}

	f.Lock()
	matching := make([]*awaiter, 0)
	for _, a := range f.awaiters {
		if a.eventType == e.Type && (a.filter == nil || a.filter(e)) {
			matching = append(matching, a)
		}
	}
	f.Unlock()

	for _, a := range matching {
		a.callback(e)
	}
}

func (f *Fake) Connect(_ *config.Config) error {
	return nil
}

func (f *Fake) Listen(_ chan *discord.Event) {}

func (f *Fake) Disconnect() error {
	return nil
}

func (f *Fake) BotUserID() string {
	return "bot"
}

func (f *Fake) SendMessage(channelID, content string) (*discord.Message, error) {
	f.Lock()
	defer f.Unlock()

	f.nextID++
	m := SentMessage{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID, Content: content}
	f.sent = append(f.sent, m)

	return &discord.Message{ID: m.ID, ChannelID: channelID, AuthorID: "bot", Content: content, Timestamp: time.Now()}, nil
}

func (f *Fake) SendTemporaryMessage(channelID, content string, _ time.Duration) error {
	_, err := f.SendMessage(channelID, content)
	return err
}

func (f *Fake) SendDirectMessage(userID, content string) error {
	f.Lock()
	defer f.Unlock()
	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

// React answers with the next scripted reply, if any.
func (f *Fake) React(channelID, messageID, _ string) error {
	f.Lock()
	if len(f.script) == 0 {
		f.Unlock()
		return nil
	}
	reply := f.script[0]
	f.script = f.script[1:]
	f.nextID++
	replyID := fmt.Sprintf("reply-%d", f.nextID)
	f.Unlock()

	go func() {
		if len(reply.Emoji) > 0 {
			f.Emit(&discord.Event{Type: discord.EventTypeReaction, ChannelID: channelID, MessageID: messageID, UserID: reply.UserID, Emoji: reply.Emoji})
			return
		}
		f.Emit(&discord.Event{Type: discord.EventTypeMessage, ChannelID: channelID, MessageID: replyID, UserID: reply.UserID, Content: reply.Content})
	}()

	return nil
}

func (f *Fake) DeleteMessage(_, messageID string) error {
	f.Lock()
	defer f.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *Fake) DeleteMessages(_ string, messageIDs []string) error {
	f.Lock()
	defer f.Unlock()
	f.deleted = append(f.deleted, messageIDs...)
	return nil
}

func (f *Fake) ChannelHistory(channelID string, limit int) ([]*discord.Message, error) {
	f.Lock()
	defer f.Unlock()

	history := f.history[channelID]
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return slices.Clone(history), nil
}

func (f *Fake) Member(userID string) (*discord.Member, error) {
	f.Lock()
	defer f.Unlock()

	m, ok := f.members[userID]
	if !ok {
		return nil, discord.ErrNotPresent
	}

	clone := *m
	clone.Roles = slices.Clone(m.Roles)
	return &clone, nil
}

func (f *Fake) FindMember(query string) (*discord.Member, error) {
	if id, ok := discord.ParseUserID(query); ok {
		return f.Member(id)
	}

	f.Lock()
	var id string
	if _, ok := f.members[query]; ok {
		id = query
	}
	for _, m := range f.members {
		if len(id) > 0 {
			break
		}
		if strings.EqualFold(m.Username, query) || strings.EqualFold(m.Nick, query) {
			id = m.ID
		}
	}
	f.Unlock()

	if len(id) == 0 {
		return nil, discord.ErrNotPresent
	}
	return f.Member(id)
}

func (f *Fake) ModifyRoles(userID string, add, remove []string, _ string) error {
	f.Lock()
	defer f.Unlock()

	f.roleCalls++
	if f.ModifyRolesErr != nil {
		return f.ModifyRolesErr
	}

	m, ok := f.members[userID]
	if !ok {
		return discord.ErrNotPresent
	}

	for _, r := range add {
		if !slices.Contains(m.Roles, r) {
			m.Roles = append(m.Roles, r)
		}
	}
	m.Roles = slices.DeleteFunc(m.Roles, func(r string) bool {
		return slices.Contains(remove, r)
	})

	return nil
}

// Ban removes the member and records the ban.
func (f *Fake) Ban(userID string, _ int, reason string) error {
	f.Lock()
	defer f.Unlock()

	f.banCalls++
	if f.BanErr != nil {
		return f.BanErr
	}

	delete(f.members, userID)
	f.banned[userID] = reason
	return nil
}

func (f *Fake) Kick(userID, reason string) error {
	f.Lock()
	defer f.Unlock()

	if f.KickErr != nil {
		return f.KickErr
	}
	if _, ok := f.members[userID]; !ok {
		return discord.ErrNotPresent
	}

	delete(f.members, userID)
	f.kicked[userID] = reason
	return nil
}

func (f *Fake) Unban(userID, _ string) error {
	f.Lock()
	defer f.Unlock()

	f.unbanCalls++
	if f.UnbanErr != nil {
		return f.UnbanErr
	}

	if _, ok := f.banned[userID]; !ok {
		return discord.ErrNotPresent
	}
	delete(f.banned, userID)
	return nil
}

func (f *Fake) AwaitReaction(filter func(*discord.Event) bool, callback func(*discord.Event)) func() {
	return f.await(discord.EventTypeReaction, filter, callback)
}

func (f *Fake) AwaitMessage(filter func(*discord.Event) bool, callback func(*discord.Event)) func() {
	return f.await(discord.EventTypeMessage, filter, callback)
}

func (f *Fake) await(eventType string, filter func(*discord.Event) bool, callback func(*discord.Event)) func() {
	f.Lock()
	defer f.Unlock()

	id := uuid.NewString()
	f.awaiters[id] = &awaiter{eventType: eventType, filter: filter, callback: callback}

	return func() {
		f.Lock()
		defer f.Unlock()
		delete(f.awaiters, id)
	}
}
