package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"mochi-server/internal/model"
	"mochi-server/internal/platform/rabbitmq"
)

// MoodLogStore is the write side used by the worker.
type MoodLogStore interface {
	Create(ctx context.Context, entry *model.MoodLog) error
}

// Delivery is the subset of amqp.Delivery the worker acknowledges.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type MoodLogPersistWorker struct {
	conn      *amqp.Connection
	repo      MoodLogStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMoodLogPersistWorker(conn *amqp.Connection, repo MoodLogStore, queueName string, logger *zap.Logger) *MoodLogPersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoodLogPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger.With(zap.String("worker", "mood_log_persist"), zap.String("queue", queueName)),
	}
}

func (w *MoodLogPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("delivery channel closed")
					return
				}
				w.handle(workerCtx, &d, d.Body)
			}
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// handle persists one payload. Malformed payloads are dropped; store failures
// are requeued once.
func (w *MoodLogPersistWorker) handle(ctx context.Context, d Delivery, body []byte) {
	var entry model.MoodLog
	if err := json.Unmarshal(body, &entry); err != nil || entry.ID.IsZero() || entry.UserID == "" {
		w.logger.Error("decode mood log failed", zap.Error(err), zap.ByteString("body", body))
		_ = d.Nack(false, false)
		return
	}

	if err := w.repo.Create(ctx, &entry); err != nil {
		redelivered := false
		if ad, ok := d.(*amqp.Delivery); ok {
			redelivered = ad.Redelivered
		}
		w.logger.Error("persist mood log failed",
			zap.String("log_id", entry.ID.String()),
			zap.Bool("redelivered", redelivered),
			zap.Error(err),
		)
		_ = d.Nack(false, !redelivered)
		return
	}

	_ = d.Ack(false)
}

func (w *MoodLogPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
