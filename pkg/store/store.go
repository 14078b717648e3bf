package store

import (
	"context"
	"errors"
	"time"
	"warden/pkg/models"
)

// ErrActionExists is returned by CreateAction when the subject already has a record of that kind.
var ErrActionExists = errors.New("timed action already exists")

// ActionStore persists timed actions, one table per kind. The records are the source of truth for
// every reversal the scheduler holds in memory.
type ActionStore interface {
	// CreateAction fails with ErrActionExists when a record for kind and subjectID is present.
	CreateAction(ctx context.Context, kind, subjectID string, expiresAt time.Time, reason string) (*models.TimedAction, error)

	// Action returns nil, nil when no record exists.
	Action(ctx context.Context, kind, subjectID string) (*models.TimedAction, error)

	// DeleteAction removes the record only if the stored ID matches action.ID. Deleting a missing or
	// replaced record is not an error.
	DeleteAction(ctx context.Context, action *models.TimedAction) error

	Actions(ctx context.Context, kind string) ([]*models.TimedAction, error)
}

type SettingsStore interface {
	// Settings returns nil, nil when settings were never saved.
	Settings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
}

type Store interface {
	ActionStore
	SettingsStore
	Close() error
}
