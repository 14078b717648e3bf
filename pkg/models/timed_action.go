package models

import (
	"fmt"
	"github.com/google/uuid"
	"time"
)

const (
	ActionKindMute    = "mute"
	ActionKindSoftban = "softban"
)

// ActionKinds lists every kind of timed action, in boot order.
var ActionKinds = []string{ActionKindMute, ActionKindSoftban}

// TimedAction is a mute or softban that must be reversed once ExpiresAt passes. At most one exists per
// kind and subject.
type TimedAction struct {
	ID        string    `firestore:"id" json:"id"`
	Kind      string    `firestore:"kind" json:"kind"`
	SubjectID string    `firestore:"subject_id" json:"subject_id"`
	ExpiresAt time.Time `firestore:"expires_at" json:"expires_at"`
	Reason    string    `firestore:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}

func NewTimedAction(kind, subjectID string, expiresAt time.Time, reason string) *TimedAction {
	return &TimedAction{
		ID:        fmt.Sprintf("%s-%s", kind, uuid.NewString()),
		Kind:      kind,
		SubjectID: subjectID,
		ExpiresAt: expiresAt,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

// ActionKey identifies the scheduled reversal of a kind of action for a subject.
func ActionKey(kind, subjectID string) string {
	return fmt.Sprintf("%s/%s", kind, subjectID)
}

func (a *TimedAction) Key() string {
	return ActionKey(a.Kind, a.SubjectID)
}

func (a *TimedAction) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

func (a *TimedAction) Labels() map[string]string {
	return map[string]string{
		"id":      a.ID,
		"kind":    a.Kind,
		"subject": a.SubjectID,
	}
}

func IsActionKind(kind string) bool {
	return kind == ActionKindMute || kind == ActionKindSoftban
}
