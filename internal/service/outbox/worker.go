package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

var (
	publishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_outbox_publish_attempts_total",
		Help: "Total number of outbox publish attempts grouped by result.",
	}, []string{"result"})
	pendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shop_outbox_pending_records",
		Help: "Current number of pending records in transactional outbox.",
	})
	oldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shop_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending outbox record.",
	})
)

// Options задаёт параметры relay-воркера. Нулевые значения заменяются
// значениями по умолчанию.
type Options struct {
	Logger         *log.Entry
	DLQPublisher   domain.OutboxPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = log.WithField("component", "outbox-relay")
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.RetryBaseDelay < 0 {
		o.RetryBaseDelay = 0
	}
}

// Worker перекладывает pending-сообщения из outbox в брокер.
// Каждое сообщение публикуется с ограниченным числом повторов; после
// исчерпания попыток оно помечается failed и, если настроено, уходит в DLQ.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	opts      Options
}

// NewWorker создаёт relay-воркер для transactional outbox.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, opts Options) *Worker {
	opts.normalize()
	return &Worker{repo: repo, publisher: publisher, opts: opts}
}

// Run запускает периодический опрос outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.opts.Logger.Warn("outbox relay is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл: снимает метрики backlog, забирает батч
// pending-сообщений и публикует их по одному.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.refreshBacklogMetrics()

	batch, err := w.repo.PullPending(w.opts.BatchSize)
	if err != nil {
		w.opts.Logger.WithError(err).Warn("failed to pull pending outbox messages")
		return
	}

	for _, msg := range batch {
		if ctx.Err() != nil {
			return
		}
		w.relay(ctx, msg)
	}

	if len(batch) > 0 {
		w.refreshBacklogMetrics()
	}
}

func (w *Worker) relay(ctx context.Context, msg domain.OutboxMessage) {
	if err := w.publishWithRetry(ctx, msg); err != nil {
		w.opts.Logger.WithError(err).WithFields(log.Fields{
			"outbox_id":  msg.ID,
			"event_type": msg.EventType,
		}).Error("outbox publish failed after retries")
		publishAttempts.WithLabelValues("failed").Inc()

		if dlqErr := w.publishToDLQ(msg, err); dlqErr != nil {
			w.opts.Logger.WithError(dlqErr).WithField("outbox_id", msg.ID).Warn("failed to publish to DLQ")
			publishAttempts.WithLabelValues("dlq_failed").Inc()
		}
		if markErr := w.repo.MarkFailed(msg.ID); markErr != nil {
			w.opts.Logger.WithError(markErr).WithField("outbox_id", msg.ID).Warn("failed to mark outbox as failed")
		}
		return
	}

	if err := w.repo.MarkSent(msg.ID); err != nil {
		w.opts.Logger.WithError(err).WithField("outbox_id", msg.ID).Warn("failed to mark outbox as sent")
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error

	for attempt := 1; attempt <= w.opts.MaxAttempts; attempt++ {
		if err := w.publisher.Publish(msg); err == nil {
			publishAttempts.WithLabelValues("sent").Inc()
			return nil
		} else {
			lastErr = err
			publishAttempts.WithLabelValues("retry_error").Inc()
		}

		if attempt >= w.opts.MaxAttempts {
			break
		}

		delay := backoff(w.opts.RetryBaseDelay, attempt)
		if delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", w.opts.MaxAttempts, lastErr)
}

func (w *Worker) publishToDLQ(msg domain.OutboxMessage, publishErr error) error {
	if w.opts.DLQPublisher == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"outbox_id":      msg.ID,
		"aggregate_type": msg.AggregateType,
		"aggregate_id":   msg.AggregateID,
		"event_type":     msg.EventType,
		"payload":        json.RawMessage(msg.Payload),
		"publish_error":  publishErr.Error(),
		"failed_at":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	msg.Payload = payload
	if err := w.opts.DLQPublisher.Publish(msg); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

func (w *Worker) refreshBacklogMetrics() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.opts.Logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	pendingRecords.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		oldestPendingAge.Set(0)
		return
	}
	age := time.Since(stats.OldestPendingAt).Seconds()
	if age < 0 {
		age = 0
	}
	oldestPendingAge.Set(age)
}

// backoff возвращает задержку перед повтором: base * 2^(attempt-1).
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
