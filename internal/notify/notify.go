// Package notify hands notifications off after a successful commit. Delivery
// is best effort: failures are logged and counted, never returned to the
// operation that produced the notification.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/metrics"
	"github.com/emotionalcenter/amistapp/internal/models"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, n models.Notification) error
}

type Dispatcher struct {
	sinks   []Sink
	log     *zap.Logger
	timeout time.Duration
}

func NewDispatcher(log *zap.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{sinks: sinks, log: log.Named("notify"), timeout: 3 * time.Second}
}

// Notify не зависит от отмены исходного запроса: коммит уже случился.
func (d *Dispatcher) Notify(ctx context.Context, n models.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	for _, s := range d.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			metrics.NotifyErrors.Inc()
			d.log.Warn("notification not delivered",
				zap.String("sink", s.Name()),
				zap.String("recipient", n.RecipientID.String()),
				zap.Error(err),
			)
			observability.CaptureErr(fmt.Errorf("notify %s: %w", s.Name(), err))
		}
	}
}

type InboxStore interface {
	InsertNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, id uuid.UUID) error
}

// InboxSink пишет уведомление в таблицу notifications.
type InboxSink struct{ store InboxStore }

func NewInboxSink(store InboxStore) *InboxSink { return &InboxSink{store: store} }

func (s *InboxSink) Name() string { return "inbox" }

func (s *InboxSink) Deliver(ctx context.Context, n models.Notification) error {
	return s.store.InsertNotification(ctx, n)
}

// PubSubSink публикует JSON в канал Redis для внешних доставщиков (push и т.п.).
type PubSubSink struct {
	rdb     redis.UniversalClient
	channel string
}

func NewPubSubSink(rdb redis.UniversalClient, channel string) *PubSubSink {
	return &PubSubSink{rdb: rdb, channel: channel}
}

func (s *PubSubSink) Name() string { return "pubsub" }

func (s *PubSubSink) Deliver(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, data).Err()
}

type LogSink struct{ log *zap.Logger }

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, n models.Notification) error {
	s.log.Debug("notification",
		zap.String("recipient", n.RecipientID.String()),
		zap.String("message", n.Message),
		zap.Any("metadata", n.Metadata),
	)
	return nil
}
