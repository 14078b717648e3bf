package moderation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/api/elapse"
	"warden/pkg/api/prompt"
)

const maxPurgeDays = 7

const (
	noticeInvalidDuration = "That's not a valid length of time."
	noticeInvalidDays     = "That's not a valid number of days."
)

// aborted reports whether err ends a flow quietly: the actor cancelled or stopped answering.
func aborted(err error) bool {
	return errors.Is(err, prompt.ErrCancelled) || errors.Is(err, prompt.ErrTimeout)
}

func (e *Engine) question(req Request, text, emoji string) prompt.Question {
	return prompt.Question{
		ChannelID: req.ChannelID,
		UserID:    req.ActorID,
		Text:      text,
		Emoji:     emoji,
		Timeout:   e.promptTimeout,
	}
}

// askDuration re-prompts until the answer parses to at least the minimum duration.
func (e *Engine) askDuration(ctx context.Context, transcript *prompt.Transcript, req Request, text string) (time.Duration, error) {
	q := e.question(req, text, discord.EmojiCancel)
	q.CancelOnReaction = true
	q.Accept = func(content string) bool {
		d := elapse.ParseDuration(content)
		return d > 0 && d >= e.minimum
	}
	q.RejectNotice = noticeInvalidDuration

	answer, err := prompt.Ask(ctx, e.discord, transcript, q)
	if err != nil {
		return 0, err
	}
	return elapse.ParseDuration(answer.Content), nil
}

func (e *Engine) askPurgeDays(ctx context.Context, transcript *prompt.Transcript, req Request, text string) (int, error) {
	q := e.question(req, text, discord.EmojiCancel)
	q.CancelOnReaction = true
	q.Accept = func(content string) bool {
		_, ok := parsePurgeDays(content)
		return ok
	}
	q.RejectNotice = noticeInvalidDays

	answer, err := prompt.Ask(ctx, e.discord, transcript, q)
	if err != nil {
		return 0, err
	}

	days, _ := parsePurgeDays(answer.Content)
	return days, nil
}

// askReason returns an empty reason when the actor reacts with skip.
func (e *Engine) askReason(ctx context.Context, transcript *prompt.Transcript, req Request, text, skip string) (string, error) {
	answer, err := prompt.Ask(ctx, e.discord, transcript, e.question(req, text, skip))
	if err != nil {
		return "", err
	}
	if answer.Reacted {
		return "", nil
	}
	return strings.TrimSpace(answer.Content), nil
}

// askRequiredReason only accepts a non-empty reason; reacting cancels.
func (e *Engine) askRequiredReason(ctx context.Context, transcript *prompt.Transcript, req Request, text string) (string, error) {
	q := e.question(req, text, discord.EmojiCancel)
	q.CancelOnReaction = true
	q.Accept = func(content string) bool {
		return len(strings.TrimSpace(content)) > 0
	}

	answer, err := prompt.Ask(ctx, e.discord, transcript, q)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer.Content), nil
}

func parsePurgeDays(s string) (int, bool) {
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || days < 0 || days > maxPurgeDays {
		return 0, false
	}
	return days, true
}
