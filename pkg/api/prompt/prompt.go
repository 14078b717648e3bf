package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/log"
	"warden/pkg/metrics"
)

var (
	ErrCancelled = errors.New("prompt cancelled")
	ErrTimeout   = errors.New("prompt timed out")
)

const rejectNoticeTTL = 5 * time.Second

// Client is the part of the platform client a prompt talks to.
type Client interface {
	SendMessage(channelID, content string) (*discord.Message, error)
	SendTemporaryMessage(channelID, content string, ttl time.Duration) error
	React(channelID, messageID, emoji string) error
	DeleteMessages(channelID string, messageIDs []string) error
	AwaitReaction(filter func(*discord.Event) bool, callback func(*discord.Event)) func()
	AwaitMessage(filter func(*discord.Event) bool, callback func(*discord.Event)) func()
}

type Question struct {
	ChannelID string
	UserID    string
	Text      string

	// Emoji is added to the question; the asking user reacting with it resolves the prompt.
	Emoji string

	// CancelOnReaction makes the reaction abort with ErrCancelled instead of answering Reacted.
	CancelOnReaction bool

	// Accept validates text answers. Rejected answers get RejectNotice and the prompt keeps waiting.
	Accept       func(content string) bool
	RejectNotice string

	// Timeout of zero waits until ctx is done.
	Timeout time.Duration
}

type Answer struct {
	Reacted bool
	Content string
}

// Transcript collects the messages of an interactive flow so they can be removed once it ends.
type Transcript struct {
	sync.Mutex
	channelID  string
	messageIDs []string
}

func NewTranscript(channelID string) *Transcript {
	return &Transcript{channelID: channelID, messageIDs: make([]string, 0)}
}

func (t *Transcript) Add(messageID string) {
	if len(messageID) == 0 {
		return
	}

	t.Lock()
	defer t.Unlock()
	t.messageIDs = append(t.messageIDs, messageID)
}

func (t *Transcript) MessageIDs() []string {
	t.Lock()
	defer t.Unlock()
	return append([]string(nil), t.messageIDs...)
}

// Clear deletes every collected message.
func (t *Transcript) Clear(client Client) {
	t.Lock()
	ids := t.messageIDs
	t.messageIDs = make([]string, 0)
	t.Unlock()

	if len(ids) == 0 {
		return
	}

	if err := client.DeleteMessages(t.channelID, ids); err != nil {
		log.Logger().Warningf(nil, "error deleting prompt messages in %s, %s", t.channelID, err)
	}
}

// Ask posts q and waits for the asking user to either react with q.Emoji or send an accepted message in
// the same channel, whichever happens first. Both listeners are removed before Ask returns.
func Ask(ctx context.Context, client Client, transcript *Transcript, q Question) (*Answer, error) {
	question, err := client.SendMessage(q.ChannelID, q.Text)
	if err != nil {
		return nil, fmt.Errorf("error sending prompt, %w", err)
	}
	transcript.Add(question.ID)

	resolution := NewResolution[*Answer]()

	cancelReaction := client.AwaitReaction(func(e *discord.Event) bool {
		return e.MessageID == question.ID && e.UserID == q.UserID && e.Emoji == q.Emoji
	}, func(e *discord.Event) {
		resolution.Resolve(&Answer{Reacted: true})
	})
	defer cancelReaction()

	cancelMessage := client.AwaitMessage(func(e *discord.Event) bool {
		return e.ChannelID == q.ChannelID && e.UserID == q.UserID
	}, func(e *discord.Event) {
		if _, resolved := resolution.Value(); resolved {
			return
		}

		transcript.Add(e.MessageID)

		if q.Accept != nil && !q.Accept(e.Content) {
			if len(q.RejectNotice) > 0 {
				if err := client.SendTemporaryMessage(q.ChannelID, q.RejectNotice, rejectNoticeTTL); err != nil {
					log.Logger().Warningf(e, "error sending rejection notice, %s", err)
				}
			}
			return
		}

		resolution.Resolve(&Answer{Content: e.Content})
	})
	defer cancelMessage()

	if len(q.Emoji) > 0 {
		if err = client.React(q.ChannelID, question.ID, q.Emoji); err != nil {
			log.Logger().Warningf(nil, "error reacting to prompt, %s", err)
		}
	}

	waitCtx := ctx
	if q.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, q.Timeout)
		defer cancel()
	}

	answer, err := resolution.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			metrics.PromptResolved(metrics.OutcomeTimeout)
			return nil, ErrTimeout
		}
		return nil, err
	}

	if answer.Reacted {
		if q.CancelOnReaction {
			metrics.PromptResolved(metrics.OutcomeCancelled)
			return nil, ErrCancelled
		}
		metrics.PromptResolved(metrics.OutcomeReacted)
		return answer, nil
	}

	metrics.PromptResolved(metrics.OutcomeAnswered)
	return answer, nil
}
