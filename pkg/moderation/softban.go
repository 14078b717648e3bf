package moderation

import (
	"context"
	"fmt"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/api/elapse"
	"warden/pkg/api/prompt"
	"warden/pkg/log"
	"warden/pkg/models"
)

// BeginSoftban asks for a length, the days of messages to purge and an optional reason, then bans the
// target until the softban expires. Moderators cannot be softbanned.
func (e *Engine) BeginSoftban(ctx context.Context, req Request) (*Result, error) {
	logger := log.Logger()

	if err := e.authorize(req); err != nil {
		return nil, err
	}

	target, err := e.resolve(req.Target, false)
	if err != nil {
		return nil, err
	}
	if e.IsModerator(target.ID) {
		return nil, ErrProtectedTarget
	}

	transcript := prompt.NewTranscript(req.ChannelID)
	defer transcript.Clear(e.discord)

	cancelled := &Result{Message: "**Canceled softban.**"}

	duration, err := e.askDuration(ctx, transcript, req, fmt.Sprintf("**How long should the ban last?** Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}

	days, err := e.askPurgeDays(ctx, transcript, req, fmt.Sprintf("**How many days of messages should be deleted?** Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}

	reason, err := e.askReason(ctx, transcript, req, fmt.Sprintf("**Would you like to input a reason for the softban?** Press %s if not, otherwise reply with the reason.", discord.EmojiBan), discord.EmojiBan)
	if aborted(err) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}

	length := elapse.FormatDuration(duration)

	// the target can only be reached before the ban
	if e.cfg.Discord.NotifySoftbans {
		if err = e.discord.SendDirectMessage(target.ID, fmt.Sprintf("**%s, you've been banned for %s.**%s", target.Mention(), length, reasonText(reason))); err != nil {
			logger.Warningf(req, "error notifying %s of softban, %s", target.ID, err)
		}
	}

	stored := e.truncateReason(reason)
	action, err := e.record(ctx, models.ActionKindSoftban, target.ID, time.Now().Add(duration), stored, e.softbanEffect(target.ID, days, stored))
	if err != nil {
		return nil, err
	}

	actor := e.actor(req.ActorID)
	e.modLog(fmt.Sprintf("%s **%s was banned for %s.**%s\n\n**Banned by:** %s (%s)", discord.EmojiBan, target.Mention(), length, reasonText(reason), actor.Mention(), actor.Distinct()))
	e.audit(models.NewActionAuditEntry(models.AuditActionSoftban, action, req.ActorID))

	return &Result{Message: fmt.Sprintf("**Softbanned %s.**", target.Distinct()), Action: action}, nil
}

// Ban permanently bans the target after asking for the days of messages to purge and a reason. Pending
// mutes and softbans of the target are dropped so nothing reverses the ban later.
func (e *Engine) Ban(ctx context.Context, req Request) (*Result, error) {
	logger := log.Logger()

	if err := e.authorize(req); err != nil {
		return nil, err
	}

	target, err := e.resolve(req.Target, true)
	if err != nil {
		return nil, err
	}

	transcript := prompt.NewTranscript(req.ChannelID)
	defer transcript.Clear(e.discord)

	cancelled := &Result{Message: "**Canceled ban.**"}

	days, err := e.askPurgeDays(ctx, transcript, req, fmt.Sprintf("**How many days of messages should be deleted?** Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}

	reason, err := e.askRequiredReason(ctx, transcript, req, fmt.Sprintf("**What is the reason for the ban?** A reason must be given. Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}

	for _, kind := range models.ActionKinds {
		unlock := e.lock(models.ActionKey(kind, target.ID))
		defer unlock()
	}

	// nothing may reverse the ban, so pending reversals stop before it is applied
	suspended := make([]*models.TimedAction, 0)
	for _, kind := range models.ActionKinds {
		action, err := e.suspend(ctx, kind, target.ID)
		if err != nil {
			e.resume(suspended)
			return nil, err
		}
		if action != nil {
			suspended = append(suspended, action)
		}
	}

	if err = e.discord.Ban(target.ID, days, e.truncateReason(reason)); err != nil {
		e.resume(suspended)
		return nil, fmt.Errorf("error banning %s, %w", target.ID, err)
	}

	for _, action := range suspended {
		if err = e.store.DeleteAction(ctx, action); err != nil {
			logger.Errorf(action, "error dropping %s of banned %s, %s", action.Key(), target.ID, err)
			continue
		}
		logger.Infof(action, "dropped %s superseded by ban", action.Key())
	}

	actor := e.actor(req.ActorID)
	e.modLog(fmt.Sprintf("%s **%s was banned** with %s of messages deleted.%s\n\n**Issued by:** %s (%s)", discord.EmojiBan, target.Mention(), elapse.Pluralize(int64(days), "day"), reasonText(reason), actor.Mention(), actor.Distinct()))
	e.audit(models.NewAuditEntry(models.AuditActionBan, target.ID, req.ActorID, reason))

	return &Result{Message: fmt.Sprintf("**Banned %s.**", target.Distinct())}, nil
}
