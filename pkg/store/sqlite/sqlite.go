package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"warden/pkg/log"
	"warden/pkg/models"
	"warden/pkg/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Store)(nil)

var tables = map[string]string{
	models.ActionKindMute:    "muted_users",
	models.ActionKindSoftban: "softban_users",
}

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); len(dir) > 0 {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory, %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("error opening database, %w", err)
	}
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to database, %w", err)
	}

	s := &Store{db: db}

	if err = s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error migrating database, %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	logger := log.Logger()

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("error creating schema_migrations, %w", err)
	}

	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := make(map[string]bool)
	rows, err := s.db.QueryContext(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return err
	}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		applied[name] = true
	}
	if err = errors.Join(rows.Err(), rows.Close()); err != nil {
		return err
	}

	for _, file := range files {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrations, "migrations/"+file)
		if err != nil {
			return err
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error applying migration %s, %w", file, err)
		}

		if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", file, time.Now().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error recording migration %s, %w", file, err)
		}

		if err = tx.Commit(); err != nil {
			return err
		}

		logger.Debugf(nil, "applied migration %s", file)
	}

	return nil
}

func table(kind string) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("unknown action kind, %s", kind)
	}
	return t, nil
}

func (s *Store) CreateAction(ctx context.Context, kind, subjectID string, expiresAt time.Time, reason string) (*models.TimedAction, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	action := models.NewTimedAction(kind, subjectID, expiresAt.Truncate(time.Millisecond), reason)
	action.CreatedAt = action.CreatedAt.Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t+" WHERE subject_id = ?", subjectID).Scan(&count); err != nil {
		return nil, fmt.Errorf("error checking %s, %w", t, err)
	}
	if count > 0 {
		return nil, store.ErrActionExists
	}

	query := "INSERT INTO " + t + " (id, subject_id, expires_at, reason, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err = tx.ExecContext(ctx, query, action.ID, action.SubjectID, action.ExpiresAt.UnixMilli(), action.Reason, action.CreatedAt.UnixMilli()); err != nil {
		return nil, fmt.Errorf("error inserting into %s, %w", t, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return action, nil
}

func (s *Store) Action(ctx context.Context, kind, subjectID string) (*models.TimedAction, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT id, subject_id, expires_at, reason, created_at FROM "+t+" WHERE subject_id = ?", subjectID)
	action, err := scan(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s, %w", t, err)
	}

	return action, nil
}

func (s *Store) DeleteAction(ctx context.Context, action *models.TimedAction) error {
	t, err := table(action.Kind)
	if err != nil {
		return err
	}

	if _, err = s.db.ExecContext(ctx, "DELETE FROM "+t+" WHERE subject_id = ? AND id = ?", action.SubjectID, action.ID); err != nil {
		return fmt.Errorf("error deleting from %s, %w", t, err)
	}

	return nil
}

func (s *Store) Actions(ctx context.Context, kind string) ([]*models.TimedAction, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, subject_id, expires_at, reason, created_at FROM "+t+" ORDER BY expires_at")
	if err != nil {
		return nil, fmt.Errorf("error listing %s, %w", t, err)
	}
	defer rows.Close()

	actions := make([]*models.TimedAction, 0)
	for rows.Next() {
		action, err := scan(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("error reading %s, %w", t, err)
		}
		actions = append(actions, action)
	}

	return actions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(kind string, row scanner) (*models.TimedAction, error) {
	var expiresAt, createdAt int64
	action := &models.TimedAction{Kind: kind}

	if err := row.Scan(&action.ID, &action.SubjectID, &expiresAt, &action.Reason, &createdAt); err != nil {
		return nil, err
	}

	action.ExpiresAt = time.UnixMilli(expiresAt)
	action.CreatedAt = time.UnixMilli(createdAt)
	return action, nil
}

func (s *Store) Settings(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{}

	err := s.db.QueryRowContext(ctx, "SELECT raid_users, raid_seconds, flood_messages, flood_seconds FROM moderation_settings WHERE id = 1").
		Scan(&settings.RaidUsers, &settings.RaidSeconds, &settings.FloodMessages, &settings.FloodSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading settings, %w", err)
	}

	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	query := `
		INSERT INTO moderation_settings (id, raid_users, raid_seconds, flood_messages, flood_seconds)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			raid_users = excluded.raid_users,
			raid_seconds = excluded.raid_seconds,
			flood_messages = excluded.flood_messages,
			flood_seconds = excluded.flood_seconds`

	if _, err := s.db.ExecContext(ctx, query, settings.RaidUsers, settings.RaidSeconds, settings.FloodMessages, settings.FloodSeconds); err != nil {
		return fmt.Errorf("error saving settings, %w", err)
	}

	return nil
}
