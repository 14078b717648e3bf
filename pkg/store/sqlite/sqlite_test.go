package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	"warden/pkg/log"
	"warden/pkg/models"
	"warden/pkg/store"
)

func TestMain(m *testing.M) {
	log.InitializeConsoleLogger(log.Warning)
	os.Exit(m.Run())
}

func openStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "warden.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("error opening store, %s", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func TestCreateAndFetchAction(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)

	created, err := s.CreateAction(ctx, models.ActionKindMute, "100", expiresAt, "spam")
	if err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	fetched, err := s.Action(ctx, models.ActionKindMute, "100")
	if err != nil {
		t.Fatalf("error fetching action, %s", err)
	}
	if fetched == nil {
		t.Fatal("expected action")
	}
	if fetched.ID != created.ID || fetched.Reason != "spam" || fetched.Kind != models.ActionKindMute {
		t.Fatalf("unexpected action, %+v", fetched)
	}
	if !fetched.ExpiresAt.Equal(created.ExpiresAt) {
		t.Fatalf("expected expiry %s, got %s", created.ExpiresAt, fetched.ExpiresAt)
	}

	other, err := s.Action(ctx, models.ActionKindSoftban, "100")
	if err != nil {
		t.Fatalf("error fetching action, %s", err)
	}
	if other != nil {
		t.Fatal("kinds must not share records")
	}
}

func TestCreateActionRejectsDuplicate(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	if _, err := s.CreateAction(ctx, models.ActionKindSoftban, "200", time.Now().Add(time.Minute), ""); err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	_, err := s.CreateAction(ctx, models.ActionKindSoftban, "200", time.Now().Add(time.Hour), "")
	if !errors.Is(err, store.ErrActionExists) {
		t.Fatalf("expected ErrActionExists, got %v", err)
	}
}

func TestDeleteActionMatchesID(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	first, err := s.CreateAction(ctx, models.ActionKindMute, "300", time.Now().Add(time.Minute), "")
	if err != nil {
		t.Fatalf("error creating action, %s", err)
	}
	if err = s.DeleteAction(ctx, first); err != nil {
		t.Fatalf("error deleting action, %s", err)
	}

	second, err := s.CreateAction(ctx, models.ActionKindMute, "300", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("error creating action, %s", err)
	}

	// deleting the superseded record leaves the new one alone
	if err = s.DeleteAction(ctx, first); err != nil {
		t.Fatalf("error deleting stale action, %s", err)
	}

	current, err := s.Action(ctx, models.ActionKindMute, "300")
	if err != nil {
		t.Fatalf("error fetching action, %s", err)
	}
	if current == nil || current.ID != second.ID {
		t.Fatalf("expected %s to survive, got %+v", second.ID, current)
	}
}

func TestActionsSurviveReopen(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		if _, err := s.CreateAction(ctx, models.ActionKindMute, id, time.Now().Add(-time.Minute), ""); err != nil {
			t.Fatalf("error creating action, %s", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("error closing store, %s", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("error reopening store, %s", err)
	}
	defer reopened.Close()

	actions, err := reopened.Actions(ctx, models.ActionKindMute)
	if err != nil {
		t.Fatalf("error listing actions, %s", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}

	softbans, err := reopened.Actions(ctx, models.ActionKindSoftban)
	if err != nil {
		t.Fatalf("error listing actions, %s", err)
	}
	if len(softbans) != 0 {
		t.Fatalf("expected no softbans, got %d", len(softbans))
	}
}

func TestUnknownKind(t *testing.T) {
	s, _ := openStore(t)

	if _, err := s.Actions(context.Background(), "kick"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSettings(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	settings, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("error reading settings, %s", err)
	}
	if settings != nil {
		t.Fatalf("expected no settings, got %+v", settings)
	}

	if err = s.SaveSettings(ctx, models.NewSettings(5, 10, 5, 5)); err != nil {
		t.Fatalf("error saving settings, %s", err)
	}
	if err = s.SaveSettings(ctx, models.NewSettings(8, 20, 4, 3)); err != nil {
		t.Fatalf("error saving settings, %s", err)
	}

	settings, err = s.Settings(ctx)
	if err != nil {
		t.Fatalf("error reading settings, %s", err)
	}
	if *settings != *models.NewSettings(8, 20, 4, 3) {
		t.Fatalf("unexpected settings, %+v", settings)
	}
}
