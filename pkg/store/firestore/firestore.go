package firestore

import (
	"cloud.google.com/go/firestore"
	"context"
	"errors"
	"fmt"
	"google.golang.org/api/option"
	"time"
	"warden/pkg/models"
	"warden/pkg/store"
)

var _ store.Store = (*Store)(nil)

var collections = map[string]string{
	models.ActionKindMute:    pathMutedUsers,
	models.ActionKindSoftban: pathSoftbanUsers,
}

// Store keeps timed actions under guilds/<guild>/<kind collection>/<subject>.
type Store struct {
	client  *firestore.Client
	guildID string
}

func Open(ctx context.Context, projectID, credentialsFile, guildID string) (*Store, error) {
	opts := make([]option.ClientOption, 0)
	if len(credentialsFile) > 0 {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating firestore client, %w", err)
	}

	return &Store{client: client, guildID: guildID}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) collectionPath(kind string) (string, error) {
	c, ok := collections[kind]
	if !ok {
		return "", fmt.Errorf("unknown action kind, %s", kind)
	}
	return fmt.Sprintf("%s/%s/%s", pathGuilds, s.guildID, c), nil
}

func (s *Store) actionPath(kind, subjectID string) (string, error) {
	c, err := s.collectionPath(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", c, subjectID), nil
}

func (s *Store) CreateAction(ctx context.Context, kind, subjectID string, expiresAt time.Time, reason string) (*models.TimedAction, error) {
	path, err := s.actionPath(kind, subjectID)
	if err != nil {
		return nil, err
	}

	action := models.NewTimedAction(kind, subjectID, expiresAt, reason)
	if err = create(ctx, s.client, path, action); err != nil {
		if isAlreadyExists(err) {
			return nil, store.ErrActionExists
		}
		return nil, err
	}

	return action, nil
}

func (s *Store) Action(ctx context.Context, kind, subjectID string) (*models.TimedAction, error) {
	path, err := s.actionPath(kind, subjectID)
	if err != nil {
		return nil, err
	}

	action, err := get[models.TimedAction](ctx, s.client, path)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}

	return action, err
}

func (s *Store) DeleteAction(ctx context.Context, action *models.TimedAction) error {
	path, err := s.actionPath(action.Kind, action.SubjectID)
	if err != nil {
		return err
	}

	return removeIf(ctx, s.client, path, func(current *models.TimedAction) bool {
		return current.ID == action.ID
	})
}

func (s *Store) Actions(ctx context.Context, kind string) ([]*models.TimedAction, error) {
	path, err := s.collectionPath(kind)
	if err != nil {
		return nil, err
	}

	return list[models.TimedAction](ctx, s.client, path)
}

func (s *Store) settingsPath() string {
	return fmt.Sprintf("%s/%s/%s/%s", pathGuilds, s.guildID, pathSettings, documentModeration)
}

func (s *Store) Settings(ctx context.Context) (*models.Settings, error) {
	settings, err := get[models.Settings](ctx, s.client, s.settingsPath())
	if errors.Is(err, errNotFound) {
		return nil, nil
	}

	return settings, err
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	return set(ctx, s.client, s.settingsPath(), settings)
}
