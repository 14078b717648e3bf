package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	goredis "github.com/redis/go-redis/v9"
	"time"
	"warden/pkg/models"
	"warden/pkg/store"
)

var _ store.Store = (*Store)(nil)

var hashes = map[string]string{
	models.ActionKindMute:    "muted-users",
	models.ActionKindSoftban: "softban-users",
}

// Store keeps one hash per action kind, keyed by subject id, holding the JSON encoded record.
type Store struct {
	client *goredis.Client
	prefix string
}

func Open(ctx context.Context, address, password string, db int, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to redis, %w", err)
	}

	return NewStore(client, prefix), nil
}

func NewStore(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) hash(kind string) (string, error) {
	h, ok := hashes[kind]
	if !ok {
		return "", fmt.Errorf("unknown action kind, %s", kind)
	}
	return fmt.Sprintf("%s:%s", s.prefix, h), nil
}

func (s *Store) settingsKey() string {
	return fmt.Sprintf("%s:settings", s.prefix)
}

func (s *Store) CreateAction(ctx context.Context, kind, subjectID string, expiresAt time.Time, reason string) (*models.TimedAction, error) {
	key, err := s.hash(kind)
	if err != nil {
		return nil, err
	}

	action := models.NewTimedAction(kind, subjectID, expiresAt, reason)
	data, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("error encoding action, %w", err)
	}

	created, err := s.client.HSetNX(ctx, key, subjectID, data).Result()
	if err != nil {
		return nil, fmt.Errorf("error creating action, %w", err)
	}
	if !created {
		return nil, store.ErrActionExists
	}

	return action, nil
}

func (s *Store) Action(ctx context.Context, kind, subjectID string) (*models.TimedAction, error) {
	key, err := s.hash(kind)
	if err != nil {
		return nil, err
	}

	data, err := s.client.HGet(ctx, key, subjectID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting action, %w", err)
	}

	return decode(data)
}

func (s *Store) DeleteAction(ctx context.Context, action *models.TimedAction) error {
	key, err := s.hash(action.Kind)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *goredis.Tx) error {
		data, err := tx.HGet(ctx, key, action.SubjectID).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		current, err := decode(data)
		if err != nil {
			return err
		}
		if current.ID != action.ID {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HDel(ctx, key, action.SubjectID)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return fmt.Errorf("error deleting action, %w", err)
	}

	return nil
}

func (s *Store) Actions(ctx context.Context, kind string) ([]*models.TimedAction, error) {
	key, err := s.hash(kind)
	if err != nil {
		return nil, err
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("error listing actions, %w", err)
	}

	actions := make([]*models.TimedAction, 0, len(values))
	for _, v := range values {
		action, err := decode([]byte(v))
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	return actions, nil
}

func (s *Store) Settings(ctx context.Context) (*models.Settings, error) {
	data, err := s.client.Get(ctx, s.settingsKey()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting settings, %w", err)
	}

	settings := &models.Settings{}
	if err = json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("error decoding settings, %w", err)
	}

	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error encoding settings, %w", err)
	}

	if err = s.client.Set(ctx, s.settingsKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("error saving settings, %w", err)
	}

	return nil
}

func decode(data []byte) (*models.TimedAction, error) {
	action := &models.TimedAction{}
	if err := json.Unmarshal(data, action); err != nil {
		return nil, fmt.Errorf("error decoding action, %w", err)
	}
	return action, nil
}
