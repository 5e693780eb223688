package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"mochi-server/internal/model"
)

type MoodLogPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewMoodLogPublisher(conn *amqp.Connection, queueName string) *MoodLogPublisher {
	return &MoodLogPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *MoodLogPublisher) Publish(ctx context.Context, entry model.MoodLog) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal mood log payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    entry.ID.String(),
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish mood log failed: %w", err)
	}
	return nil
}
