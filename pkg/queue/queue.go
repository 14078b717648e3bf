package queue

import (
	"cloud.google.com/go/pubsub"
	"context"
	"fmt"
	"google.golang.org/api/option"
	"sync"
	"warden/pkg/config"
	"warden/pkg/log"
	"warden/pkg/models"
	"warden/pkg/slicesx"
)

// Queue publishes audit entries for moderation actions. Publishing never blocks the action itself.
type Queue interface {
	Publish(entry *models.AuditEntry) error
	Close() error
}

// Initialize connects to the configured Pub/Sub topic. Without a topic the returned queue discards
// everything.
func Initialize(ctx context.Context, cfg *config.Config) (Queue, error) {
	if len(cfg.Queue.Topic) == 0 {
		return NewDiscardQueue(), nil
	}

	opts := make([]option.ClientOption, 0)
	if len(cfg.GoogleCloud.ServiceAccountFilename) > 0 {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCloud.ServiceAccountFilename))
	}

	client, err := pubsub.NewClient(ctx, cfg.GoogleCloud.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating pubsub client, %w", err)
	}

	topic := client.Topic(cfg.Queue.Topic)
	if topic == nil {
		_ = client.Close()
		return nil, fmt.Errorf("invalid topic, %s", cfg.Queue.Topic)
	}

	return &queue{
		ctx:    ctx,
		client: client,
		topic:  topic,
	}, nil
}

type queue struct {
	ctx     context.Context
	client  *pubsub.Client
	topic   *pubsub.Topic
	pending sync.WaitGroup
}

func (q *queue) Close() error {
	q.pending.Wait()
	q.topic.Stop()
	return q.client.Close()
}

func (q *queue) Publish(entry *models.AuditEntry) error {
	logger := log.Logger()

	data, err := entry.Serialize()
	if err != nil {
		return fmt.Errorf("error serializing audit entry, %w", err)
	}

	result := q.topic.Publish(q.ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"action": entry.Action},
	})

	q.pending.Add(1)
	go func() {
		defer q.pending.Done()
		if _, err := result.Get(q.ctx); err != nil {
			logger.Errorf(entry, "error publishing audit entry, %s", err)
			return
		}
		logger.Debugf(entry, "published: %s", string(data))
	}()

	return nil
}

// DiscardQueue keeps the most recent entries in memory instead of publishing them.
type DiscardQueue struct {
	sync.Mutex
	entries []*models.AuditEntry
}

const discardQueueCapacity = 100

func NewDiscardQueue() *DiscardQueue {
	return &DiscardQueue{entries: make([]*models.AuditEntry, 0)}
}

func (q *DiscardQueue) Publish(entry *models.AuditEntry) error {
	q.Lock()
	defer q.Unlock()

	q.entries = slicesx.Last(append(q.entries, entry), discardQueueCapacity)

	log.Logger().Debugf(entry, "audit: %s %s", entry.Action, entry.SubjectID)
	return nil
}

func (q *DiscardQueue) Entries() []*models.AuditEntry {
	q.Lock()
	defer q.Unlock()
	return append([]*models.AuditEntry(nil), q.entries...)
}

// Actions lists the action of every retained entry, oldest first.
func (q *DiscardQueue) Actions() []string {
	q.Lock()
	defer q.Unlock()

	actions := make([]string, 0, len(q.entries))
	for _, e := range q.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func (q *DiscardQueue) Close() error {
	return nil
}
