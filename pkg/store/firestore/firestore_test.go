package firestore

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"os"
	"testing"
	"time"
	"warden/pkg/models"
	"warden/pkg/store"
)

// openEmulator connects to the Firestore emulator under a fresh guild, skipping without one.
func openEmulator(t *testing.T) *Store {
	t.Helper()

	if len(os.Getenv("FIRESTORE_EMULATOR_HOST")) == 0 {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}

	s, err := Open(context.Background(), "warden-test", "", uuid.NewString())
	if err != nil {
		t.Fatalf("error opening store, %s", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestActionPath(t *testing.T) {
	s := &Store{guildID: "g1"}

	tests := []struct {
		kind     string
		expected string
	}{
		{models.ActionKindMute, "guilds/g1/muted-users/u1"},
		{models.ActionKindSoftban, "guilds/g1/softban-users/u1"},
	}

	for _, tt := range tests {
		path, err := s.actionPath(tt.kind, "u1")
		if err != nil {
			t.Fatalf("unexpected error, %s", err)
		}
		if path != tt.expected {
			t.Errorf("actionPath(%s) = %s, expected %s", tt.kind, path, tt.expected)
		}
	}

	if _, err := s.actionPath("warn", "u1"); err == nil {
		t.Fatal("expected error for unknown kind")
	}

	if s.settingsPath() != "guilds/g1/settings/moderation" {
		t.Fatalf("unexpected settings path, %s", s.settingsPath())
	}
}

func TestCreateActionExists(t *testing.T) {
	s := openEmulator(t)
	ctx := context.Background()

	if _, err := s.CreateAction(ctx, models.ActionKindMute, "u1", time.Now().Add(time.Hour), "spam"); err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	if _, err := s.CreateAction(ctx, models.ActionKindMute, "u1", time.Now().Add(time.Hour), ""); !errors.Is(err, store.ErrActionExists) {
		t.Fatalf("expected ErrActionExists, got %v", err)
	}

	if _, err := s.CreateAction(ctx, models.ActionKindSoftban, "u1", time.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("expected kinds to be independent, got %s", err)
	}
}

func TestDeleteActionMatchesID(t *testing.T) {
	s := openEmulator(t)
	ctx := context.Background()

	action, err := s.CreateAction(ctx, models.ActionKindSoftban, "u1", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	stale := *action
	stale.ID = uuid.NewString()
	if err = s.DeleteAction(ctx, &stale); err != nil {
		t.Fatalf("error deleting stale action, %s", err)
	}

	current, err := s.Action(ctx, models.ActionKindSoftban, "u1")
	if err != nil {
		t.Fatalf("error fetching action, %s", err)
	}
	if current == nil || current.ID != action.ID {
		t.Fatalf("expected the record to survive a stale delete, got %+v", current)
	}

	if err = s.DeleteAction(ctx, action); err != nil {
		t.Fatalf("error deleting action, %s", err)
	}
	if current, err = s.Action(ctx, models.ActionKindSoftban, "u1"); err != nil || current != nil {
		t.Fatalf("expected the record gone, got %+v, %v", current, err)
	}

	if err = s.DeleteAction(ctx, action); err != nil {
		t.Fatalf("expected deleting a missing record to succeed, got %s", err)
	}
}

func TestActionsAndSettings(t *testing.T) {
	s := openEmulator(t)
	ctx := context.Background()

	for _, subject := range []string{"u1", "u2"} {
		if _, err := s.CreateAction(ctx, models.ActionKindMute, subject, time.Now().Add(time.Hour), ""); err != nil {
			t.Fatalf("error creating action, %s", err)
		}
	}
	actions, err := s.Actions(ctx, models.ActionKindMute)
	if err != nil || len(actions) != 2 {
		t.Fatalf("expected 2 mutes, got %d, %v", len(actions), err)
	}

	if settings, err := s.Settings(ctx); err != nil || settings != nil {
		t.Fatalf("expected no settings, got %+v, %v", settings, err)
	}
	saved := models.NewSettings(5, 10, 3, 4)
	if err = s.SaveSettings(ctx, saved); err != nil {
		t.Fatalf("error saving settings, %s", err)
	}
	loaded, err := s.Settings(ctx)
	if err != nil || loaded == nil || *loaded != *saved {
		t.Fatalf("expected %+v, got %+v, %v", saved, loaded, err)
	}
}
