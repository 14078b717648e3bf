package moderation

import (
	"context"
	"fmt"
	"golang.org/x/time/rate"
	"slices"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/log"
	"warden/pkg/metrics"
	"warden/pkg/models"
)

const (
	reasonRejoin = "Rejoined while muted"
	reasonRaid   = "Raid protection"
)

// newRaidLimiter trips on the users-th join within seconds.
func newRaidLimiter(s models.Settings) *rate.Limiter {
	return newWindowLimiter(s.RaidUsers, s.RaidSeconds)
}

func newFloodLimiter(s models.Settings) *rate.Limiter {
	return newWindowLimiter(s.FloodMessages, s.FloodSeconds)
}

// newWindowLimiter allows count-1 events per window of seconds, refilling evenly.
func newWindowLimiter(count, seconds int) *rate.Limiter {
	window := time.Duration(seconds) * time.Second
	return rate.NewLimiter(rate.Every(window/time.Duration(count)), count-1)
}

// HandleMemberJoin mutes a joining member who is still serving a mute or who joins during a raid. Raid
// mode activates when joins trip the raid limit.
func (e *Engine) HandleMemberJoin(ctx context.Context, userID string) {
	logger := log.Logger()

	if userID == e.discord.BotUserID() {
		return
	}

	action, err := e.store.Action(ctx, models.ActionKindMute, userID)
	if err != nil {
		logger.Errorf(nil, "error checking mute of joining %s, %s", userID, err)
	}

	raided := e.checkRaid(userID)
	if action == nil && !raided {
		return
	}

	// give other bots time to assign the member role first
	if !sleep(ctx, e.rejoinDelay) {
		return
	}

	reason := reasonRaid
	if action != nil {
		reason = reasonRejoin
	}

	if err = e.discord.ModifyRoles(userID, []string{e.cfg.Discord.MutedRoleID}, []string{e.cfg.Discord.MemberRoleID}, reason); err != nil {
		logger.Warningf(nil, "error muting joining %s, %s", userID, err)
		return
	}

	logger.Infof(nil, "muted joining %s, %s", userID, reason)
}

// checkRaid records a join and reports whether the user joined during an active raid.
func (e *Engine) checkRaid(userID string) bool {
	e.mu.Lock()

	if e.raidActive {
		if !slices.Contains(e.raidUsers, userID) {
			e.raidUsers = append(e.raidUsers, userID)
		}
		e.mu.Unlock()
		return true
	}

	if e.raidLimiter.Allow() {
		e.mu.Unlock()
		return false
	}

	e.raidActive = true
	e.raidLimiter = newRaidLimiter(e.settings)
	e.mu.Unlock()

	metrics.RaidTriggered()
	log.Logger().Warningf(nil, "raid protections activated on join of %s", userID)
	e.modLog("@here **Raid protections have been activated.** New joins will be muted.")
	e.audit(models.NewAuditEntry(models.AuditActionRaid, userID, "", ""))

	return false
}

func (e *Engine) RaidActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raidActive
}

// Unraid deactivates raid mode and unmutes the members muted by it. Members serving a recorded mute
// stay muted.
func (e *Engine) Unraid(ctx context.Context, req Request) (*Result, error) {
	logger := log.Logger()

	if err := e.authorize(req); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if !e.raidActive {
		e.mu.Unlock()
		return nil, ErrNotActive
	}
	users := e.raidUsers
	e.raidUsers = make([]string, 0)
	e.raidActive = false
	e.mu.Unlock()

	restored := 0
	for _, userID := range users {
		action, err := e.store.Action(ctx, models.ActionKindMute, userID)
		if err != nil {
			logger.Errorf(req, "error checking mute of %s, %s", userID, err)
			continue
		}
		if action != nil {
			continue
		}

		err = e.discord.ModifyRoles(userID, []string{e.cfg.Discord.MemberRoleID}, []string{e.cfg.Discord.MutedRoleID}, reasonRaid)
		if err != nil {
			if !discord.IsNotPresent(err) {
				logger.Warningf(req, "error unmuting raid join %s, %s", userID, err)
			}
			continue
		}
		restored++
	}

	logger.Infof(req, "raid protections deactivated, restored %d of %d members", restored, len(users))
	e.audit(models.NewAuditEntry(models.AuditActionUnraid, "", req.ActorID, ""))

	return &Result{Message: "**Raid protections deactivated.**"}, nil
}

// HandleMessage counts the message against its author's flood limit. When the limit trips, the author's
// recent messages in the channel are deleted and HandleMessage reports true.
func (e *Engine) HandleMessage(ctx context.Context, ev *discord.Event) bool {
	logger := log.Logger()

	if ev.IsBot || ev.IsDirectMessage() || len(ev.UserID) == 0 {
		return false
	}

	settings := e.Settings()
	limiter, _ := e.flood.LoadOrCompute(ev.UserID, func() *rate.Limiter {
		return newFloodLimiter(settings)
	})
	if limiter.Allow() {
		return false
	}

	e.flood.Delete(ev.UserID)
	metrics.FloodDetected()

	history, err := e.discord.ChannelHistory(ev.ChannelID, e.cfg.Flood.History)
	if err != nil {
		logger.Errorf(ev, "error reading history of %s, %s", ev.ChannelID, err)
		return true
	}

	ids := make([]string, 0)
	for _, m := range history {
		if m.AuthorID == ev.UserID && len(ids) <= settings.FloodMessages {
			ids = append(ids, m.ID)
		}
	}

	if len(ids) > 0 {
		if err = e.discord.DeleteMessages(ev.ChannelID, ids); err != nil {
			logger.Errorf(ev, "error deleting flood messages, %s", err)
		}
	}

	logger.Infof(ev, "flood from %s, deleted %d messages", ev.UserID, len(ids))
	e.audit(models.NewAuditEntry(models.AuditActionFlood, ev.UserID, "", fmt.Sprintf("%d messages deleted", len(ids))))

	return true
}

// UpdateRaidSettings saves new raid thresholds and restarts the join count.
func (e *Engine) UpdateRaidSettings(ctx context.Context, users, seconds int) error {
	return e.updateSettings(ctx, func(s *models.Settings) {
		s.RaidUsers = users
		s.RaidSeconds = seconds
	})
}

// UpdateFloodSettings saves new flood thresholds and restarts every member's message count.
func (e *Engine) UpdateFloodSettings(ctx context.Context, messages, seconds int) error {
	return e.updateSettings(ctx, func(s *models.Settings) {
		s.FloodMessages = messages
		s.FloodSeconds = seconds
	})
}

func (e *Engine) updateSettings(ctx context.Context, change func(*models.Settings)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := e.settings
	change(&updated)
	if !updated.Valid() {
		return ErrInvalidSetting
	}

	if err := e.store.SaveSettings(ctx, &updated); err != nil {
		return fmt.Errorf("error saving settings, %w", err)
	}

	if updated.RaidUsers != e.settings.RaidUsers || updated.RaidSeconds != e.settings.RaidSeconds {
		e.raidLimiter = newRaidLimiter(updated)
	}
	if updated.FloodMessages != e.settings.FloodMessages || updated.FloodSeconds != e.settings.FloodSeconds {
		e.flood.Clear()
	}
	e.settings = updated

	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
