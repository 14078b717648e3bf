package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/log"
	"warden/pkg/metrics"
	"warden/pkg/models"
	"warden/pkg/scheduler"
)

const (
	reasonMuteExpiry    = "Mute expiry"
	reasonSoftbanExpiry = "Softban expiry"
)

// sideEffect is the platform half of a timed action.
type sideEffect struct {
	apply func() error
	undo  func() error
}

func (e *Engine) muteEffect(subjectID, reason string) sideEffect {
	return sideEffect{
		apply: func() error {
			return e.discord.ModifyRoles(subjectID, []string{e.cfg.Discord.MutedRoleID}, []string{e.cfg.Discord.MemberRoleID}, reason)
		},
		undo: func() error {
			return e.discord.ModifyRoles(subjectID, []string{e.cfg.Discord.MemberRoleID}, []string{e.cfg.Discord.MutedRoleID}, "")
		},
	}
}

func (e *Engine) softbanEffect(subjectID string, purgeDays int, reason string) sideEffect {
	return sideEffect{
		apply: func() error {
			return e.discord.Ban(subjectID, purgeDays, reason)
		},
		undo: func() error {
			return e.discord.Unban(subjectID, "")
		},
	}
}

// record applies effect and persists the action, superseding any prior action of the same kind for the
// subject. When the new record cannot be stored the prior one is restored and kept scheduled; without a
// prior record the effect is undone. Either way the error is returned.
func (e *Engine) record(ctx context.Context, kind, subjectID string, expiresAt time.Time, reason string, effect sideEffect) (*models.TimedAction, error) {
	logger := log.Logger()
	key := models.ActionKey(kind, subjectID)

	unlock := e.lock(key)
	defer unlock()

	prior, err := e.suspend(ctx, kind, subjectID)
	if err != nil {
		return nil, err
	}

	if err = effect.apply(); err != nil {
		e.schedule(prior)
		return nil, fmt.Errorf("error applying %s, %w", kind, err)
	}

	if prior != nil {
		if err = e.store.DeleteAction(ctx, prior); err != nil {
			e.schedule(prior)
			return nil, fmt.Errorf("error replacing %s, %w", key, err)
		}
		logger.Infof(prior, "superseding %s", key)
	}

	action, err := e.store.CreateAction(ctx, kind, subjectID, expiresAt, reason)
	if err != nil {
		err = fmt.Errorf("error recording %s, %w", key, err)

		if prior != nil {
			restored, rerr := e.store.CreateAction(ctx, kind, subjectID, prior.ExpiresAt, prior.Reason)
			if rerr == nil {
				e.schedule(restored)
				logger.Warningf(restored, "restored prior %s after failing to record the new one", key)
				return nil, err
			}
			logger.Errorf(prior, "error restoring %s, %s", key, rerr)
		}

		if uerr := effect.undo(); uerr != nil && !discord.IsNotPresent(uerr) {
			return nil, errors.Join(err, fmt.Errorf("error rolling back %s, %w", kind, uerr))
		}
		return nil, err
	}

	e.schedule(action)
	metrics.Applied(kind)
	logger.Infof(action, "recorded %s until %s", key, action.ExpiresAt.Format(time.RFC3339))

	return action, nil
}

// suspend cancels the pending reversal of kind for subjectID and returns the record it belonged to. A
// reversal that is already running is waited for; once it has run its record is never returned, so the
// caller cannot reverse the same action twice. The caller must hold the subject's lock.
func (e *Engine) suspend(ctx context.Context, kind, subjectID string) (*models.TimedAction, error) {
	key := models.ActionKey(kind, subjectID)

	action, err := e.store.Action(ctx, kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s, %w", key, err)
	}

	if e.scheduler.Cancel(key) || action == nil {
		return action, nil
	}

	// nothing was pending, so the reversal fired first or the record was never scheduled
	if _, ok := e.reversed.LoadAndDelete(action.ID); ok {
		if err = e.store.DeleteAction(ctx, action); err != nil {
			log.Logger().Warningf(action, "error deleting reversed %s, %s", key, err)
		}
		return nil, nil
	}

	current, err := e.store.Action(ctx, kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s, %w", key, err)
	}
	return current, nil
}

// resume reschedules actions whose reversals were suspended by a flow that then failed.
func (e *Engine) resume(actions []*models.TimedAction) {
	for _, action := range actions {
		e.schedule(action)
	}
}

func (e *Engine) schedule(action *models.TimedAction) {
	if action == nil {
		return
	}
	e.scheduler.Schedule(action.Key(), action.ExpiresAt, e.reversal(action))
}

// reversal undoes action once it expires. A subject that is gone counts as reversed. The record is
// deleted whatever the outcome and nothing is retried.
func (e *Engine) reversal(action *models.TimedAction) scheduler.Callback {
	return func(ctx context.Context) error {
		logger := log.Logger()
		errs := make([]error, 0)

		current, err := e.store.Action(ctx, action.Kind, action.SubjectID)
		if err != nil {
			logger.Warningf(action, "error checking %s before reversal, %s", action.Key(), err)
		} else if current == nil || current.ID != action.ID {
			logger.Infof(action, "%s was replaced, skipping stale reversal", action.Key())
			return nil
		}

		// marked until the record is gone so a concurrent flow never reverses it again
		e.reversed.Store(action.ID, struct{}{})

		if err := e.reverse(action); err != nil {
			if discord.IsNotPresent(err) {
				logger.Infof(action, "%s no longer present, nothing to reverse", action.SubjectID)
			} else {
				metrics.ReversalFailed(action.Kind)
				errs = append(errs, fmt.Errorf("error reversing %s, %w", action.Key(), err))
			}
		}

		if err := e.store.DeleteAction(ctx, action); err != nil {
			errs = append(errs, fmt.Errorf("error deleting %s, %w", action.Key(), err))
		} else {
			e.reversed.Delete(action.ID)
		}

		if len(errs) > 0 {
			return errors.Join(errs...)
		}

		metrics.Reversed(action.Kind)
		e.audit(models.NewActionAuditEntry(models.AuditActionExpiration, action, ""))
		logger.Infof(action, "reversed %s", action.Key())

		return nil
	}
}

func (e *Engine) reverse(action *models.TimedAction) error {
	switch action.Kind {
	case models.ActionKindMute:
		return e.discord.ModifyRoles(action.SubjectID, []string{e.cfg.Discord.MemberRoleID}, []string{e.cfg.Discord.MutedRoleID}, reasonMuteExpiry)
	case models.ActionKindSoftban:
		return e.discord.Unban(action.SubjectID, reasonSoftbanExpiry)
	default:
		return fmt.Errorf("unknown action kind, %s", action.Kind)
	}
}
