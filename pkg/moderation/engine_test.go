package moderation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/api/discord/discordtest"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/metrics"
	"warden/pkg/models"
	"warden/pkg/queue"
	"warden/pkg/store"
	"warden/pkg/store/sqlite"
)

const testConfig = `
discord:
  guild_id: g1
  owner: owner
  moderator_roles: [mods]
  member_role_id: member
  muted_role_id: muted
  mod_log_channel_id: modlog
  muted_channel_id: muted-channel
  notify_softbans: true
moderation:
  minimum_duration: 10s
  prompt_timeout: 5s
  rejoin_delay: 0s
raid:
  users: 2
  seconds: 60
flood:
  messages: 2
  seconds: 60
  history: 50
`

const (
	channel     = "c1"
	moderatorID = "2001"
	aliceID     = "1001"
)

var errStoreDown = errors.New("store unavailable")

func TestMain(m *testing.M) {
	log.InitializeConsoleLogger(log.Critical)
	metrics.Init()
	os.Exit(m.Run())
}

// flakyStore fails the next failCreates calls to CreateAction and the next failDeletes calls to
// DeleteAction.
type flakyStore struct {
	store.Store
	failCreates atomic.Int32
	failDeletes atomic.Int32
}

func (s *flakyStore) DeleteAction(ctx context.Context, action *models.TimedAction) error {
	if s.failDeletes.Add(-1) >= 0 {
		return errStoreDown
	}
	s.failDeletes.Store(0)
	return s.Store.DeleteAction(ctx, action)
}

func (s *flakyStore) CreateAction(ctx context.Context, kind, subjectID string, expiresAt time.Time, reason string) (*models.TimedAction, error) {
	if s.failCreates.Add(-1) >= 0 {
		return nil, errStoreDown
	}
	s.failCreates.Store(0)
	return s.Store.CreateAction(ctx, kind, subjectID, expiresAt, reason)
}

type harness struct {
	engine  *Engine
	discord *discordtest.Fake
	store   *flakyStore
	queue   *queue.DiscardQueue
	path    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessAt(t, filepath.Join(t.TempDir(), "warden.db"))
}

func newHarnessAt(t *testing.T, path string) *harness {
	t.Helper()
	return newHarnessWith(t, path, nil)
}

// newHarnessWith lets prepare adjust the harness before boot. The discord it returns, when not nil, is the
// one the engine talks to.
func newHarnessWith(t *testing.T, path string, prepare func(h *harness) discord.Discord) *harness {
	t.Helper()

	cfg, err := config.Parse([]byte(testConfig))
	if err != nil {
		t.Fatalf("error parsing config, %s", err)
	}

	s, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("error opening store, %s", err)
	}

	f := discordtest.NewFake()
	f.AddMember(&discord.Member{ID: moderatorID, Username: "moderator", Roles: []string{"member", "mods"}})
	f.AddMember(&discord.Member{ID: aliceID, Username: "alice", Roles: []string{"member"}})

	h := &harness{
		discord: f,
		store:   &flakyStore{Store: s},
		queue:   queue.NewDiscardQueue(),
		path:    path,
	}

	var d discord.Discord = f
	if prepare != nil {
		if wrapped := prepare(h); wrapped != nil {
			d = wrapped
		}
	}
	h.engine = NewEngine(context.Background(), cfg, d, h.store, h.queue)

	t.Cleanup(func() {
		h.engine.Close()
		_ = s.Close()
	})

	if err = h.engine.Boot(context.Background()); err != nil {
		t.Fatalf("error booting engine, %s", err)
	}

	return h
}

func (h *harness) request(target string) Request {
	return Request{ActorID: moderatorID, ChannelID: channel, Target: target}
}

func (h *harness) reply(content string) discordtest.Reply {
	return discordtest.Reply{UserID: moderatorID, Content: content}
}

func (h *harness) react(emoji string) discordtest.Reply {
	return discordtest.Reply{UserID: moderatorID, Emoji: emoji}
}

func (h *harness) mute(t *testing.T, target, length string) *Result {
	t.Helper()

	h.discord.Script(h.reply(length), h.react(discord.EmojiMute))
	result, err := h.engine.BeginMute(context.Background(), h.request(target))
	if err != nil {
		t.Fatalf("error muting %s, %s", target, err)
	}
	return result
}

func (h *harness) actions(t *testing.T, kind string) []*models.TimedAction {
	t.Helper()

	actions, err := h.store.Actions(context.Background(), kind)
	if err != nil {
		t.Fatalf("error listing %s actions, %s", kind, err)
	}
	return actions
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reversals")
	}
}

func assertMuted(t *testing.T, f *discordtest.Fake, userID string, muted bool) {
	t.Helper()

	if f.HasRole(userID, "muted") != muted || f.HasRole(userID, "member") == muted {
		t.Fatalf("expected %s muted=%t, roles %v", userID, muted, f.Roles(userID))
	}
}

func within(a, b time.Time, d time.Duration) bool {
	diff := a.Sub(b)
	return diff < d && diff > -d
}

func TestBootReversesExpiredActions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.db")
	ctx := context.Background()

	s, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("error opening store, %s", err)
	}
	past := time.Now().Add(-time.Hour)
	for _, subject := range []string{aliceID, "1002", "gone"} {
		if _, err = s.CreateAction(ctx, models.ActionKindMute, subject, past, ""); err != nil {
			t.Fatalf("error creating action, %s", err)
		}
	}
	if _, err = s.CreateAction(ctx, models.ActionKindSoftban, "1003", past, "spam"); err != nil {
		t.Fatalf("error creating action, %s", err)
	}
	if err = s.Close(); err != nil {
		t.Fatalf("error closing store, %s", err)
	}

	h := newHarnessAt(t, path)
	waitIdle(t, h.engine)

	if n := len(h.actions(t, models.ActionKindMute)) + len(h.actions(t, models.ActionKindSoftban)); n != 0 {
		t.Fatalf("expected an empty store after boot, %d records left", n)
	}
	if h.discord.UnbanCalls() != 1 {
		t.Fatalf("expected one unban, got %d", h.discord.UnbanCalls())
	}
	assertMuted(t, h.discord, aliceID, false)

	entries := h.queue.Actions()
	if len(entries) != 4 {
		t.Fatalf("expected 4 expiration entries, got %v", entries)
	}
}

func TestBootSchedulesFutureActions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.db")
	ctx := context.Background()

	s, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("error opening store, %s", err)
	}
	expiresAt := time.Now().Add(time.Hour)
	if _, err = s.CreateAction(ctx, models.ActionKindMute, aliceID, expiresAt, ""); err != nil {
		t.Fatalf("error creating action, %s", err)
	}
	_ = s.Close()

	h := newHarnessAt(t, path)

	if h.engine.Pending() != 1 {
		t.Fatalf("expected 1 pending reversal, got %d", h.engine.Pending())
	}
	at, ok := h.engine.ExpiresAt(models.ActionKindMute, aliceID)
	if !ok || !within(at, expiresAt, time.Second) {
		t.Fatalf("expected reversal at %s, got %s", expiresAt, at)
	}
}

func TestBeginMute(t *testing.T) {
	h := newHarness(t)

	result := h.mute(t, "alice", "10m")
	if result.Message != "**Muted alice (1001).**" {
		t.Fatalf("unexpected result, %s", result.Message)
	}
	if result.Action == nil || !within(result.Action.ExpiresAt, time.Now().Add(10*time.Minute), 5*time.Second) {
		t.Fatalf("unexpected action, %+v", result.Action)
	}

	assertMuted(t, h.discord, aliceID, true)

	actions := h.actions(t, models.ActionKindMute)
	if len(actions) != 1 || actions[0].ID != result.Action.ID {
		t.Fatalf("expected the mute to be recorded, got %+v", actions)
	}
	if h.engine.Pending() != 1 {
		t.Fatalf("expected 1 pending reversal, got %d", h.engine.Pending())
	}

	if !h.discord.SentContaining("modlog", "was muted for 10 minutes.") {
		t.Fatalf("expected mod log entry, got %v", h.discord.Sent("modlog"))
	}
	if !h.discord.SentContaining("muted-channel", "<@1001>, you've been muted for 10 minutes.") {
		t.Fatalf("expected muted channel notice, got %v", h.discord.Sent("muted-channel"))
	}
	if len(h.discord.Deleted()) != 3 {
		t.Fatalf("expected both prompts and the answer removed, got %v", h.discord.Deleted())
	}
	if actions := h.queue.Actions(); len(actions) != 1 || actions[0] != models.AuditActionMute {
		t.Fatalf("unexpected audit entries, %v", actions)
	}
}

func TestBeginMuteWithReason(t *testing.T) {
	h := newHarness(t)

	h.discord.Script(h.reply("1h"), h.reply("spamming"))
	result, err := h.engine.BeginMute(context.Background(), h.request("alice"))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}

	if result.Action.Reason != "spamming" {
		t.Fatalf("expected reason, got %q", result.Action.Reason)
	}
	if !h.discord.SentContaining("modlog", "**Reason:** spamming") {
		t.Fatalf("expected reason in mod log, got %v", h.discord.Sent("modlog"))
	}
}

func TestBeginMuteCancelled(t *testing.T) {
	h := newHarness(t)

	h.discord.Script(h.react(discord.EmojiCancel))
	result, err := h.engine.BeginMute(context.Background(), h.request("alice"))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}

	if result.Message != "**Canceled mute.**" || result.Action != nil {
		t.Fatalf("unexpected result, %+v", result)
	}
	if h.discord.RoleCalls() != 0 {
		t.Fatal("a cancelled mute must not touch roles")
	}
	if len(h.actions(t, models.ActionKindMute)) != 0 || h.engine.Pending() != 0 {
		t.Fatal("a cancelled mute must not be recorded")
	}
	if len(h.discord.Deleted()) != 1 {
		t.Fatalf("expected the prompt removed, got %v", h.discord.Deleted())
	}
}

func TestBeginMuteRepromptsShortDuration(t *testing.T) {
	h := newHarness(t)
	h.discord.Script(h.reply("5s"), h.react(discord.EmojiMute))

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := h.engine.BeginMute(context.Background(), h.request("alice"))
		done <- outcome{result, err}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !h.discord.SentContaining(channel, noticeInvalidDuration) {
		if time.Now().After(deadline) {
			t.Fatal("expected a rejection notice")
		}
		time.Sleep(time.Millisecond)
	}
	if h.discord.RoleCalls() != 0 {
		t.Fatal("a rejected duration must not mute")
	}

	h.discord.Emit(&discord.Event{Type: discord.EventTypeMessage, ChannelID: channel, UserID: moderatorID, MessageID: "m-1", Content: "1m"})

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("unexpected error, %s", o.err)
		}
		if !within(o.result.Action.ExpiresAt, time.Now().Add(time.Minute), 5*time.Second) {
			t.Fatalf("expected a one minute mute, got %s", o.result.Action.ExpiresAt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("mute never completed")
	}
}

func TestInputValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.engine.BeginMute(ctx, Request{ActorID: aliceID, ChannelID: channel, Target: "moderator"}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := h.engine.BeginMute(ctx, h.request("nobody")); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
	if _, err := h.engine.Unmute(ctx, h.request("alice")); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if h.discord.RoleCalls() != 0 || len(h.discord.Sent(channel)) != 0 {
		t.Fatal("rejected requests must not mutate anything")
	}
}

func TestOwnerIsModerator(t *testing.T) {
	h := newHarness(t)

	if !h.engine.IsModerator("owner") || !h.engine.IsModerator(moderatorID) {
		t.Fatal("expected owner and role holders to be moderators")
	}
	if h.engine.IsModerator(aliceID) || h.engine.IsModerator("nobody") {
		t.Fatal("unexpected moderator")
	}
}

func TestMuteSupersedes(t *testing.T) {
	h := newHarness(t)

	first := h.mute(t, "alice", "10m")
	second := h.mute(t, "alice", "2h")

	actions := h.actions(t, models.ActionKindMute)
	if len(actions) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(actions))
	}
	if actions[0].ID == first.Action.ID || actions[0].ID != second.Action.ID {
		t.Fatalf("expected the second mute to replace the first, got %s", actions[0].ID)
	}
	if h.engine.Pending() != 1 {
		t.Fatalf("expected 1 pending reversal, got %d", h.engine.Pending())
	}

	at, _ := h.engine.ExpiresAt(models.ActionKindMute, aliceID)
	if !within(at, time.Now().Add(2*time.Hour), 5*time.Second) {
		t.Fatalf("expected the reversal to follow the new expiry, got %s", at)
	}
	assertMuted(t, h.discord, aliceID, true)
}

func TestMuteRollsBackWhenStoreFails(t *testing.T) {
	h := newHarness(t)

	h.store.failCreates.Store(1)
	h.discord.Script(h.reply("10m"), h.react(discord.EmojiMute))

	if _, err := h.engine.BeginMute(context.Background(), h.request("alice")); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error, got %v", err)
	}

	assertMuted(t, h.discord, aliceID, false)
	if len(h.actions(t, models.ActionKindMute)) != 0 || h.engine.Pending() != 0 {
		t.Fatal("a failed mute must leave nothing behind")
	}
	if len(h.discord.Sent("modlog")) != 0 {
		t.Fatal("a failed mute must not be logged as applied")
	}
}

func TestMuteRestoresPriorWhenStoreFails(t *testing.T) {
	h := newHarness(t)

	prior := h.mute(t, "alice", "10m")

	h.store.failCreates.Store(1)
	h.discord.Script(h.reply("2h"), h.react(discord.EmojiMute))
	if _, err := h.engine.BeginMute(context.Background(), h.request("alice")); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error, got %v", err)
	}

	actions := h.actions(t, models.ActionKindMute)
	if len(actions) != 1 || !within(actions[0].ExpiresAt, prior.Action.ExpiresAt, time.Second) {
		t.Fatalf("expected the prior mute restored, got %+v", actions)
	}

	at, ok := h.engine.ExpiresAt(models.ActionKindMute, aliceID)
	if !ok || !within(at, prior.Action.ExpiresAt, time.Second) {
		t.Fatalf("expected the prior reversal rescheduled, got %s", at)
	}
	assertMuted(t, h.discord, aliceID, true)
}

func TestMuteRollsBackWhenRestoreFails(t *testing.T) {
	h := newHarness(t)

	h.mute(t, "alice", "10m")

	h.store.failCreates.Store(2)
	h.discord.Script(h.reply("2h"), h.react(discord.EmojiMute))
	if _, err := h.engine.BeginMute(context.Background(), h.request("alice")); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error, got %v", err)
	}

	assertMuted(t, h.discord, aliceID, false)
	if len(h.actions(t, models.ActionKindMute)) != 0 || h.engine.Pending() != 0 {
		t.Fatal("expected no record and no reversal")
	}
}

func TestUnmute(t *testing.T) {
	h := newHarness(t)

	h.mute(t, "alice", "10m")

	result, err := h.engine.Unmute(context.Background(), h.request("<@1001>"))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if result.Message != "**Unmuted alice (1001).**" {
		t.Fatalf("unexpected result, %s", result.Message)
	}

	assertMuted(t, h.discord, aliceID, false)
	if len(h.actions(t, models.ActionKindMute)) != 0 || h.engine.Pending() != 0 {
		t.Fatal("expected the mute to be gone")
	}
}

func TestUnmuteAbsentSubject(t *testing.T) {
	h := newHarness(t)

	h.mute(t, "alice", "10m")
	h.discord.RemoveMember(aliceID)

	if _, err := h.engine.Unmute(context.Background(), h.request("<@1001>")); err != nil {
		t.Fatalf("unmuting a member who left must succeed, %s", err)
	}
	if len(h.actions(t, models.ActionKindMute)) != 0 {
		t.Fatal("expected the record deleted")
	}
}

func TestReversalOfAbsentSubject(t *testing.T) {
	h := newHarness(t)

	action, err := h.store.CreateAction(context.Background(), models.ActionKindMute, "gone", time.Now(), "")
	if err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	if err = h.engine.reversal(action)(context.Background()); err != nil {
		t.Fatalf("reversing an absent subject must succeed, %s", err)
	}
	if len(h.actions(t, models.ActionKindMute)) != 0 {
		t.Fatal("expected the record deleted")
	}
}

func TestReversalFailureStillDeletes(t *testing.T) {
	h := newHarness(t)

	action, err := h.store.CreateAction(context.Background(), models.ActionKindMute, aliceID, time.Now(), "")
	if err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	h.discord.ModifyRolesErr = errors.New("missing permissions")
	if err = h.engine.reversal(action)(context.Background()); err == nil {
		t.Fatal("expected the platform error to be reported")
	}
	if len(h.actions(t, models.ActionKindMute)) != 0 {
		t.Fatal("a failed reversal must not be left for a retry")
	}
}

func TestBeginSoftban(t *testing.T) {
	h := newHarness(t)

	h.discord.Script(h.reply("1d"), h.reply("1"), h.react(discord.EmojiBan))
	result, err := h.engine.BeginSoftban(context.Background(), h.request("alice"))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}

	if result.Message != "**Softbanned alice (1001).**" {
		t.Fatalf("unexpected result, %s", result.Message)
	}
	if !h.discord.IsBanned(aliceID) {
		t.Fatal("expected alice banned")
	}

	dms := h.discord.DirectMessages(aliceID)
	if len(dms) != 1 || !strings.Contains(dms[0], "you've been banned for 1 day.") {
		t.Fatalf("unexpected notice, %v", dms)
	}

	actions := h.actions(t, models.ActionKindSoftban)
	if len(actions) != 1 || !within(actions[0].ExpiresAt, time.Now().Add(24*time.Hour), 5*time.Second) {
		t.Fatalf("expected the softban recorded, got %+v", actions)
	}
}

func TestSoftbanRefusesModerators(t *testing.T) {
	h := newHarness(t)
	h.discord.AddMember(&discord.Member{ID: "2002", Username: "helper", Roles: []string{"member", "mods"}})

	if _, err := h.engine.BeginSoftban(context.Background(), h.request("helper")); !errors.Is(err, ErrProtectedTarget) {
		t.Fatalf("expected ErrProtectedTarget, got %v", err)
	}
	if h.discord.BanCalls() != 0 {
		t.Fatal("a moderator must not be banned")
	}
}

func TestSoftbanExpiryUnbans(t *testing.T) {
	h := newHarness(t)

	h.discord.Script(h.reply("10s"), h.reply("0"), h.react(discord.EmojiBan))
	result, err := h.engine.BeginSoftban(context.Background(), h.request("alice"))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}

	if err = h.engine.reversal(result.Action)(context.Background()); err != nil {
		t.Fatalf("unexpected reversal error, %s", err)
	}
	if h.discord.IsBanned(aliceID) {
		t.Fatal("expected alice unbanned")
	}
	if len(h.actions(t, models.ActionKindSoftban)) != 0 {
		t.Fatal("expected the softban record deleted")
	}
}

func TestBanDropsPendingActions(t *testing.T) {
	h := newHarness(t)

	h.mute(t, "alice", "10m")

	h.discord.Script(h.reply("0"), h.reply("being awful"))
	result, err := h.engine.Ban(context.Background(), h.request("alice"))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if result.Message != "**Banned alice (1001).**" {
		t.Fatalf("unexpected result, %s", result.Message)
	}

	if h.discord.BanReason(aliceID) != "being awful" {
		t.Fatalf("unexpected ban reason, %q", h.discord.BanReason(aliceID))
	}
	if len(h.actions(t, models.ActionKindMute)) != 0 || h.engine.Pending() != 0 {
		t.Fatal("expected the pending mute dropped")
	}
}

func TestRejoinWhileMuted(t *testing.T) {
	h := newHarness(t)

	h.mute(t, "alice", "10m")
	h.discord.RemoveMember(aliceID)
	h.discord.AddMember(&discord.Member{ID: aliceID, Username: "alice", Roles: []string{"member"}})

	h.engine.HandleMemberJoin(context.Background(), aliceID)
	assertMuted(t, h.discord, aliceID, true)
}

func TestRaidProtection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, id := range []string{"3001", "3002", "3003"} {
		h.discord.AddMember(&discord.Member{ID: id, Username: id, Roles: []string{"member"}})
	}

	h.engine.HandleMemberJoin(ctx, "3001")
	if h.engine.RaidActive() {
		t.Fatal("a single join must not trip raid mode")
	}

	h.engine.HandleMemberJoin(ctx, "3002")
	if !h.engine.RaidActive() {
		t.Fatal("expected raid mode")
	}
	if !h.discord.SentContaining("modlog", "Raid protections have been activated") {
		t.Fatalf("expected raid announcement, got %v", h.discord.Sent("modlog"))
	}
	assertMuted(t, h.discord, "3002", false)

	h.engine.HandleMemberJoin(ctx, "3003")
	assertMuted(t, h.discord, "3003", true)

	result, err := h.engine.Unraid(ctx, h.request(""))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if result.Message != "**Raid protections deactivated.**" || h.engine.RaidActive() {
		t.Fatalf("unexpected result, %s", result.Message)
	}
	assertMuted(t, h.discord, "3003", false)

	if _, err = h.engine.Unraid(ctx, h.request("")); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestFloodProtection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.discord.AddHistory(channel,
		&discord.Message{ID: "m3", ChannelID: channel, AuthorID: aliceID},
		&discord.Message{ID: "m2", ChannelID: channel, AuthorID: "someone"},
		&discord.Message{ID: "m1", ChannelID: channel, AuthorID: aliceID},
	)

	message := &discord.Event{Type: discord.EventTypeMessage, GuildID: "g1", ChannelID: channel, UserID: aliceID}
	if h.engine.HandleMessage(ctx, message) {
		t.Fatal("a single message must not trip the flood limit")
	}
	if !h.engine.HandleMessage(ctx, message) {
		t.Fatal("expected the flood limit to trip")
	}

	deleted := h.discord.Deleted()
	if len(deleted) != 2 || deleted[0] != "m3" || deleted[1] != "m1" {
		t.Fatalf("expected alice's messages deleted, got %v", deleted)
	}

	other := &discord.Event{Type: discord.EventTypeMessage, GuildID: "g1", ChannelID: channel, UserID: "someone"}
	if h.engine.HandleMessage(ctx, other) {
		t.Fatal("limits are per member")
	}
}

func TestUpdateSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.engine.UpdateRaidSettings(ctx, 0, 10); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
	if err := h.engine.UpdateRaidSettings(ctx, 8, 20); err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if err := h.engine.UpdateFloodSettings(ctx, 6, 4); err != nil {
		t.Fatalf("unexpected error, %s", err)
	}

	expected := *models.NewSettings(8, 20, 6, 4)
	if h.engine.Settings() != expected {
		t.Fatalf("unexpected settings, %+v", h.engine.Settings())
	}

	reopened := newHarnessAt(t, h.path)
	if reopened.engine.Settings() != expected {
		t.Fatalf("expected saved settings loaded at boot, got %+v", reopened.engine.Settings())
	}
}

func TestActive(t *testing.T) {
	h := newHarness(t)
	h.discord.AddMember(&discord.Member{ID: "1002", Username: "bob", Roles: []string{"member"}})

	h.mute(t, "alice", "2h")
	h.mute(t, "bob", "1h")

	actions, err := h.engine.Active(context.Background(), models.ActionKindMute)
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if len(actions) != 2 || actions[0].SubjectID != "1002" || actions[1].SubjectID != aliceID {
		t.Fatalf("expected soonest expiry first, got %+v", actions)
	}
}
