package moderation

import (
	"context"
	"fmt"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/api/elapse"
	"warden/pkg/api/prompt"
	"warden/pkg/log"
	"warden/pkg/metrics"
	"warden/pkg/models"
)

// BeginMute asks the actor for a length and an optional reason, then swaps the target's member role for
// the muted role until the mute expires.
func (e *Engine) BeginMute(ctx context.Context, req Request) (*Result, error) {
	logger := log.Logger()

	if err := e.authorize(req); err != nil {
		return nil, err
	}

	target, err := e.resolve(req.Target, false)
	if err != nil {
		return nil, err
	}

	transcript := prompt.NewTranscript(req.ChannelID)
	defer transcript.Clear(e.discord)

	duration, err := e.askDuration(ctx, transcript, req, fmt.Sprintf("**How long should the mute last?** Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return &Result{Message: "**Canceled mute.**"}, nil
	}
	if err != nil {
		return nil, err
	}

	reason, err := e.askReason(ctx, transcript, req, fmt.Sprintf("**Would you like to input a reason for the mute?** Press %s if not, otherwise reply with the reason.", discord.EmojiMute), discord.EmojiMute)
	if aborted(err) {
		return &Result{Message: "**Canceled mute.**"}, nil
	}
	if err != nil {
		return nil, err
	}

	stored := e.truncateReason(reason)
	action, err := e.record(ctx, models.ActionKindMute, target.ID, time.Now().Add(duration), stored, e.muteEffect(target.ID, stored))
	if err != nil {
		return nil, err
	}

	length := elapse.FormatDuration(duration)
	actor := e.actor(req.ActorID)

	e.modLog(fmt.Sprintf("%s **%s was muted for %s.**%s\n\n**Muted by:** %s (%s)", discord.EmojiMute, target.Mention(), length, reasonText(reason), actor.Mention(), actor.Distinct()))

	if len(e.cfg.Discord.MutedChannelID) > 0 {
		if _, err = e.discord.SendMessage(e.cfg.Discord.MutedChannelID, fmt.Sprintf("**%s, you've been muted for %s.**%s", target.Mention(), length, reasonText(reason))); err != nil {
			logger.Warningf(action, "error sending mute notice, %s", err)
		}
	}

	e.audit(models.NewActionAuditEntry(models.AuditActionMute, action, req.ActorID))

	return &Result{Message: fmt.Sprintf("**Muted %s.**", target.Distinct()), Action: action}, nil
}

// Unmute reverses the target's mute now instead of at expiry.
func (e *Engine) Unmute(ctx context.Context, req Request) (*Result, error) {
	if err := e.authorize(req); err != nil {
		return nil, err
	}

	target, err := e.resolve(req.Target, true)
	if err != nil {
		return nil, err
	}

	key := models.ActionKey(models.ActionKindMute, target.ID)
	unlock := e.lock(key)
	defer unlock()

	action, err := e.suspend(ctx, models.ActionKindMute, target.ID)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, ErrNotActive
	}

	actor := e.actor(req.ActorID)
	err = e.discord.ModifyRoles(target.ID, []string{e.cfg.Discord.MemberRoleID}, []string{e.cfg.Discord.MutedRoleID}, fmt.Sprintf("Unmuted by %s", actor.Distinct()))
	if err != nil && !discord.IsNotPresent(err) {
		e.schedule(action)
		return nil, fmt.Errorf("error unmuting %s, %w", target.ID, err)
	}

	if err = e.store.DeleteAction(ctx, action); err != nil {
		e.schedule(action)
		return nil, fmt.Errorf("error deleting %s, %w", key, err)
	}

	metrics.Reversed(models.ActionKindMute)
	e.modLog(fmt.Sprintf("🔊 **%s was unmuted.**\n\n**Unmuted by:** %s (%s)", target.Mention(), actor.Mention(), actor.Distinct()))
	e.audit(models.NewAuditEntry(models.AuditActionUnmute, target.ID, req.ActorID, ""))

	return &Result{Message: fmt.Sprintf("**Unmuted %s.**", target.Distinct())}, nil
}
