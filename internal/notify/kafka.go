package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tranqh/tripflow/internal/observability"
	"github.com/tranqh/tripflow/pkg/backoff"
)

// KafkaNotifier publishes notification events to the topic the email worker
// consumes. Delivery is retried a few times with backoff and then dropped;
// a lost notification must never fail the business transaction behind it.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaNotifier{writer: w, logger: logger}
}

func (k *KafkaNotifier) Publish(ctx context.Context, ev Event) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		k.logger.Error("notify: marshal event", "type", ev.Type, "trip_id", ev.TripID, "err", err)
		return
	}

	// Bounded so a broker outage cannot hold the caller's goroutine long.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err = backoff.Retry(pubCtx, 3, backoff.New(200*time.Millisecond, 2*time.Second), func() error {
		return k.writer.WriteMessages(pubCtx, kafka.Message{Key: []byte(ev.TripID), Value: b})
	})
	if err != nil {
		observability.NotifyFailuresTotal.Inc()
		k.logger.Error("notify: publish failed", "type", ev.Type, "trip_id", ev.TripID, "err", err)
	}
}

func (k *KafkaNotifier) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// LogNotifier is used when no brokers are configured (local development):
// events are only written to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) Publish(_ context.Context, ev Event) {
	l.Logger.Info("notify (log only)", "type", ev.Type, "trip_id", ev.TripID, "recipient", ev.Recipient)
}
