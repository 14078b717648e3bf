package models

import (
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"time"
)

const auditIDPrefix = "audit"

const (
	AuditActionMute       = "mute"
	AuditActionUnmute     = "unmute"
	AuditActionSoftban    = "softban"
	AuditActionUnban      = "unban"
	AuditActionBan        = "ban"
	AuditActionRaid       = "raid"
	AuditActionUnraid     = "unraid"
	AuditActionFlood      = "flood"
	AuditActionExpiration = "expiration"
	AuditActionWarn       = "warn"
	AuditActionKick       = "kick"
	AuditActionPurge      = "purge"
)

// AuditEntry describes one moderation action for the audit feed.
type AuditEntry struct {
	ID        string        `json:"id"`
	Action    string        `json:"action"`
	Kind      string        `json:"kind,omitempty"`
	SubjectID string        `json:"subject_id,omitempty"`
	ActorID   string        `json:"actor_id,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func NewAuditEntry(action, subjectID, actorID, reason string) *AuditEntry {
	return &AuditEntry{
		ID:        fmt.Sprintf("%s-%s", auditIDPrefix, uuid.NewString()),
		Action:    action,
		SubjectID: subjectID,
		ActorID:   actorID,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

// NewActionAuditEntry records the application of a timed action.
func NewActionAuditEntry(action string, ta *TimedAction, actorID string) *AuditEntry {
	entry := NewAuditEntry(action, ta.SubjectID, actorID, ta.Reason)
	entry.Kind = ta.Kind
	entry.Duration = ta.ExpiresAt.Sub(ta.CreatedAt).Round(time.Second)
	expiresAt := ta.ExpiresAt
	entry.ExpiresAt = &expiresAt
	return entry
}

func (a *AuditEntry) Serialize() ([]byte, error) {
	return json.Marshal(a)
}

func DeserializeAuditEntry(data []byte) (*AuditEntry, error) {
	var entry AuditEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (a *AuditEntry) Labels() map[string]string {
	return map[string]string{
		"id":      a.ID,
		"action":  a.Action,
		"subject": a.SubjectID,
	}
}
