package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/logger"
)

// Inbox is a NotificationSink whose pending notifications can be drained
type Inbox interface {
	domain.NotificationSink
	Drain(ctx context.Context, userID string) ([]domain.Notification, error)
}

// inboxTTL expires inboxes of users that stopped polling
const inboxTTL = time.Hour

// RedisInbox keeps a capped list of pending notifications per user
type RedisInbox struct {
	client redis.UniversalClient
	size   int64
	now    func() time.Time
}

// NewRedisInbox creates an inbox keeping at most size notifications per user
func NewRedisInbox(client redis.UniversalClient, size int) *RedisInbox {
	if size <= 0 {
		size = 50
	}
	return &RedisInbox{client: client, size: int64(size), now: time.Now}
}

func inboxKey(userID string) string {
	return "scanner:notifications:" + userID
}

// Notify queues n for the user. Delivery failures are logged only.
func (i *RedisInbox) Notify(ctx context.Context, userID string, n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = i.now()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to encode notification")
		return
	}

	key := inboxKey(userID)
	_, err = i.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, i.size-1)
		pipe.Expire(ctx, key, inboxTTL)
		return nil
	})
	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("user_id", userID).
			Msg("Failed to queue notification")
	}
}

// Drain returns pending notifications oldest first and empties the inbox
func (i *RedisInbox) Drain(ctx context.Context, userID string) ([]domain.Notification, error) {
	key := inboxKey(userID)

	var lrange *redis.StringSliceCmd
	_, err := i.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain notifications: %w", err)
	}

	raw := lrange.Val()
	out := make([]domain.Notification, 0, len(raw))
	for j := len(raw) - 1; j >= 0; j-- {
		var n domain.Notification
		if err := json.Unmarshal([]byte(raw[j]), &n); err != nil {
			logger.Warn(ctx).Err(err).Msg("Dropping malformed notification")
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// MemoryInbox is the in-process Inbox used without redis
type MemoryInbox struct {
	mu    sync.Mutex
	size  int
	boxes map[string][]domain.Notification
	now   func() time.Time
}

// NewMemoryInbox creates an inbox keeping at most size notifications per user
func NewMemoryInbox(size int) *MemoryInbox {
	if size <= 0 {
		size = 50
	}
	return &MemoryInbox{size: size, boxes: make(map[string][]domain.Notification), now: time.Now}
}

func (i *MemoryInbox) Notify(ctx context.Context, userID string, n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = i.now()
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	box := append(i.boxes[userID], n)
	if len(box) > i.size {
		box = box[len(box)-i.size:]
	}
	i.boxes[userID] = box
}

func (i *MemoryInbox) Drain(ctx context.Context, userID string) ([]domain.Notification, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	box := i.boxes[userID]
	delete(i.boxes, userID)
	if box == nil {
		box = []domain.Notification{}
	}
	return box, nil
}

// LogSink writes every notification to the service log
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, userID string, n domain.Notification) {
	event := logger.Info(ctx)
	if n.Severity == domain.SeverityDestructive {
		event = logger.Warn(ctx)
	}
	event.
		Str("user_id", userID).
		Str("title", n.Title).
		Str("description", n.Description).
		Str("severity", string(n.Severity)).
		Msg("User notified")
}

// Fanout delivers to every sink in order
type Fanout []domain.NotificationSink

func (f Fanout) Notify(ctx context.Context, userID string, n domain.Notification) {
	for _, sink := range f {
		if sink != nil {
			sink.Notify(ctx, userID, n)
		}
	}
}
