package moderation

import (
	"context"
	"fmt"
	"strings"
	"warden/pkg/api/discord"
	"warden/pkg/api/prompt"
	"warden/pkg/log"
	"warden/pkg/models"
)

const maxPurgeMessages = 100

// Warn asks for a warning message, logs it and sends it to the target.
func (e *Engine) Warn(ctx context.Context, req Request) (*Result, error) {
	if err := e.authorize(req); err != nil {
		return nil, err
	}

	target, err := e.resolve(req.Target, false)
	if err != nil {
		return nil, err
	}

	transcript := prompt.NewTranscript(req.ChannelID)
	defer transcript.Clear(e.discord)

	reason, err := e.askRequiredReason(ctx, transcript, req, fmt.Sprintf("**What should the warning message be?** Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return &Result{Message: "**Canceled warning.**"}, nil
	}
	if err != nil {
		return nil, err
	}

	actor := e.actor(req.ActorID)
	e.modLog(fmt.Sprintf("%s **%s was issued a warning.**%s\n\n**Warned by:** %s (%s)", discord.EmojiWarn, target.Mention(), reasonText(reason), actor.Mention(), actor.Distinct()))

	if err = e.discord.SendDirectMessage(target.ID, fmt.Sprintf("**You've received a warning from one of the staff members.**%s", reasonText(reason))); err != nil {
		log.Logger().Warningf(req, "error sending warning to %s, %s", target.ID, err)
	}

	e.audit(models.NewAuditEntry(models.AuditActionWarn, target.ID, req.ActorID, e.truncateReason(reason)))

	return &Result{Message: fmt.Sprintf("**Sent warning to %s.**", target.Distinct())}, nil
}

// Kick asks for a required reason and removes the target from the guild. Moderators cannot be kicked.
// An active mute is kept so it applies again on rejoin.
func (e *Engine) Kick(ctx context.Context, req Request) (*Result, error) {
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

	reason, err := e.askRequiredReason(ctx, transcript, req, fmt.Sprintf("**What is the reason for the kick?** A reason must be given. Press %s to cancel.", discord.EmojiCancel))
	if aborted(err) {
		return &Result{Message: "**Canceled kick.**"}, nil
	}
	if err != nil {
		return nil, err
	}

	stored := e.truncateReason(reason)
	if err = e.discord.Kick(target.ID, stored); err != nil {
		if discord.IsNotPresent(err) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("error kicking %s, %w", target.ID, err)
	}

	actor := e.actor(req.ActorID)
	e.modLog(fmt.Sprintf("%s **%s was kicked.**%s\n\n**Kicked by:** %s (%s)", discord.EmojiKick, target.Mention(), reasonText(reason), actor.Mention(), actor.Distinct()))
	e.audit(models.NewAuditEntry(models.AuditActionKick, target.ID, req.ActorID, stored))

	return &Result{Message: fmt.Sprintf("**Kicked %s.**", target.Distinct())}, nil
}

// Purge deletes up to count recent messages in the request channel. A filter in double quotes keeps only
// messages containing that text; any other filter keeps only messages from that member.
func (e *Engine) Purge(ctx context.Context, req Request, count int, filter string) (*Result, error) {
	if err := e.authorize(req); err != nil {
		return nil, err
	}
	if count < 1 || count > maxPurgeMessages {
		return nil, ErrInvalidCount
	}

	var (
		text   string
		author *discord.Member
		err    error
	)
	filter = strings.TrimSpace(filter)
	switch {
	case len(filter) >= 2 && strings.HasPrefix(filter, `"`) && strings.HasSuffix(filter, `"`):
		text = filter[1 : len(filter)-1]
	case len(filter) > 0:
		if author, err = e.resolve(filter, true); err != nil {
			return nil, err
		}
	}

	if len(req.MessageID) > 0 {
		if err = e.discord.DeleteMessage(req.ChannelID, req.MessageID); err != nil {
			log.Logger().Warningf(req, "error deleting purge command, %s", err)
		}
	}

	history, err := e.discord.ChannelHistory(req.ChannelID, count)
	if err != nil {
		return nil, fmt.Errorf("error reading history of %s, %w", req.ChannelID, err)
	}

	ids := make([]string, 0, len(history))
	for _, m := range history {
		if matchesPurge(m, text, author) {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return &Result{Message: "No messages were found to purge."}, nil
	}

	if err = e.discord.DeleteMessages(req.ChannelID, ids); err != nil {
		return nil, fmt.Errorf("error purging %s, %w", req.ChannelID, err)
	}

	e.audit(models.NewAuditEntry(models.AuditActionPurge, "", req.ActorID, fmt.Sprintf("%d messages in %s", len(ids), req.ChannelID)))

	switch {
	case len(text) > 0:
		return &Result{Message: fmt.Sprintf("Searched **%d messages** and deleted **%d** containing the text `%s`.", len(history), len(ids), text)}, nil
	case author != nil:
		return &Result{Message: fmt.Sprintf("Searched **%d messages** and deleted **%d** from user `%s`.", len(history), len(ids), author.Distinct())}, nil
	default:
		return &Result{Message: fmt.Sprintf("Deleted **%d messages**.", len(ids))}, nil
	}
}

func matchesPurge(m *discord.Message, text string, author *discord.Member) bool {
	if len(text) > 0 {
		return strings.Contains(strings.ToLower(m.Content), strings.ToLower(text))
	}
	if author != nil {
		return m.AuthorID == author.ID
	}
	return true
}
