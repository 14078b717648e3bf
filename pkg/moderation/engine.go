package moderation

import (
	"context"
	"errors"
	"fmt"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
	"slices"
	"sync"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/metrics"
	"warden/pkg/models"
	"warden/pkg/queue"
	"warden/pkg/scheduler"
	"warden/pkg/store"
)

var (
	ErrNotAuthorized   = errors.New("not authorized")
	ErrTargetNotFound  = errors.New("target not found")
	ErrProtectedTarget = errors.New("target is a moderator")
	ErrNotActive       = errors.New("not active")
	ErrInvalidSetting  = errors.New("settings must be positive")
	ErrInvalidCount    = errors.New("count out of range")
)

// Request is a moderator invoking a flow against Target, which may be a mention, an id, a username or a
// nickname. MessageID is the invoking message, when there is one.
type Request struct {
	ActorID   string
	ChannelID string
	MessageID string
	Target    string
}

func (r Request) Labels() map[string]string {
	return map[string]string{
		"actor":   r.ActorID,
		"channel": r.ChannelID,
		"target":  r.Target,
	}
}

// Result is what the actor is told once a flow ends. Action is set when a timed action was recorded.
type Result struct {
	Message string
	Action  *models.TimedAction
}

// Engine owns every timed action and the raid and flood state of one guild.
type Engine struct {
	cfg       *config.Config
	discord   discord.Discord
	store     store.Store
	queue     queue.Queue
	scheduler *scheduler.Scheduler
	locks     *xsync.MapOf[string, *sync.Mutex]
	reversed  *xsync.MapOf[string, struct{}]

	minimum       time.Duration
	promptTimeout time.Duration
	rejoinDelay   time.Duration

	mu          sync.Mutex
	settings    models.Settings
	raidLimiter *rate.Limiter
	raidActive  bool
	raidUsers   []string
	flood       *xsync.MapOf[string, *rate.Limiter]
}

func NewEngine(ctx context.Context, cfg *config.Config, d discord.Discord, s store.Store, q queue.Queue) *Engine {
	e := &Engine{
		cfg:           cfg,
		discord:       d,
		store:         s,
		queue:         q,
		scheduler:     scheduler.New(ctx, scheduler.WithPendingObserver(metrics.SetPending)),
		locks:         xsync.NewMapOf[string, *sync.Mutex](),
		reversed:      xsync.NewMapOf[string, struct{}](),
		minimum:       cfg.Moderation.MinimumDurationValue(),
		promptTimeout: cfg.Moderation.PromptTimeoutValue(),
		rejoinDelay:   cfg.Moderation.RejoinDelayValue(),
		settings:      *models.NewSettings(cfg.Raid.Users, cfg.Raid.Seconds, cfg.Flood.Messages, cfg.Flood.Seconds),
		raidUsers:     make([]string, 0),
		flood:         xsync.NewMapOf[string, *rate.Limiter](),
	}
	e.raidLimiter = newRaidLimiter(e.settings)

	return e
}

// Boot loads saved settings and schedules the reversal of every persisted action. Actions that expired
// while the process was down are reversed right away. Boot must run once, before any flow.
func (e *Engine) Boot(ctx context.Context) error {
	logger := log.Logger()

	settings, err := e.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("error loading settings, %w", err)
	}
	if settings != nil && settings.Valid() {
		e.mu.Lock()
		e.settings = *settings
		e.raidLimiter = newRaidLimiter(e.settings)
		e.mu.Unlock()
	}

	now := time.Now()
	for _, kind := range models.ActionKinds {
		actions, err := e.store.Actions(ctx, kind)
		if err != nil {
			return fmt.Errorf("error listing %s actions, %w", kind, err)
		}

		expired := 0
		for _, action := range actions {
			if action.Expired(now) {
				expired++
			}
			unlock := e.lock(action.Key())
			e.scheduler.Schedule(action.Key(), action.ExpiresAt, e.reversal(action))
			unlock()
		}

		logger.Infof(nil, "rehydrated %d %s actions, %d already expired", len(actions), kind, expired)
	}

	return nil
}

// Wait blocks until no reversal is pending or running.
func (e *Engine) Wait() {
	e.scheduler.Wait()
}

// Pending reports how many reversals are scheduled.
func (e *Engine) Pending() int {
	return e.scheduler.Pending()
}

// ExpiresAt reports when the reversal of kind for subjectID is scheduled.
func (e *Engine) ExpiresAt(kind, subjectID string) (time.Time, bool) {
	return e.scheduler.FireAt(models.ActionKey(kind, subjectID))
}

// Close drops pending reversals without running them. Their records stay in the store for the next boot.
func (e *Engine) Close() {
	e.scheduler.Close()
}

// Active lists the current actions of kind, soonest expiry first.
func (e *Engine) Active(ctx context.Context, kind string) ([]*models.TimedAction, error) {
	actions, err := e.store.Actions(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("error listing %s actions, %w", kind, err)
	}

	slices.SortFunc(actions, func(a, b *models.TimedAction) int {
		return a.ExpiresAt.Compare(b.ExpiresAt)
	})
	return actions, nil
}

func (e *Engine) Settings() models.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// IsModerator reports whether userID is the owner, a configured admin or holds a moderator role.
func (e *Engine) IsModerator(userID string) bool {
	if userID == e.cfg.Discord.Owner || slices.Contains(e.cfg.Discord.Admins, userID) {
		return true
	}

	member, err := e.discord.Member(userID)
	if err != nil {
		return false
	}
	return member.HasAnyRole(e.cfg.Discord.ModeratorRoles)
}

func (e *Engine) authorize(req Request) error {
	if !e.IsModerator(req.ActorID) {
		return ErrNotAuthorized
	}
	return nil
}

// resolve finds the target member. A bare id or mention of someone no longer in the guild resolves to a
// member without a username when allowAbsent is set.
func (e *Engine) resolve(query string, allowAbsent bool) (*discord.Member, error) {
	member, err := e.discord.FindMember(query)
	if err == nil {
		return member, nil
	}

	if !discord.IsNotPresent(err) {
		return nil, fmt.Errorf("error finding member %s, %w", query, err)
	}

	if id, ok := discord.ParseUserID(query); ok && allowAbsent {
		return &discord.Member{ID: id, Username: id}, nil
	}

	return nil, ErrTargetNotFound
}

func (e *Engine) actor(userID string) *discord.Member {
	member, err := e.discord.Member(userID)
	if err != nil {
		return &discord.Member{ID: userID, Username: userID}
	}
	return member
}

func (e *Engine) lock(key string) func() {
	m, _ := e.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	m.Lock()
	return m.Unlock
}

func (e *Engine) truncateReason(reason string) string {
	limit := e.cfg.Moderation.ReasonMaxLength
	if limit <= 3 || len(reason) <= limit {
		return reason
	}
	return reason[:limit-3] + "..."
}

func (e *Engine) modLog(content string) {
	if len(e.cfg.Discord.ModLogChannelID) == 0 {
		return
	}
	if _, err := e.discord.SendMessage(e.cfg.Discord.ModLogChannelID, content); err != nil {
		log.Logger().Warningf(nil, "error sending to mod log, %s", err)
	}
}

func (e *Engine) audit(entry *models.AuditEntry) {
	if e.queue == nil {
		return
	}
	if err := e.queue.Publish(entry); err != nil {
		log.Logger().Errorf(entry, "error publishing audit entry, %s", err)
	}
}

func reasonText(reason string) string {
	if len(reason) == 0 {
		return ""
	}
	return fmt.Sprintf("\n**Reason:** %s", reason)
}
