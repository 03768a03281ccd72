package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nexflow/easepay-confirm/internal/usecase"
)

const (
	opsExchange       = "payments.ops"
	anomalyRoutingKey = "payment.anomaly"
	anomalyQueueName  = "payment.anomaly.q"
)

// AnomalyPublisher pushes flagged deliveries to the operations exchange so
// alerting picks them up alongside the anomalies table.
type AnomalyPublisher struct {
	ch *amqp.Channel
}

// NewAnomalyPublisher declares the ops exchange, queue, and binding once at
// startup.
func NewAnomalyPublisher(ch *amqp.Channel) (*AnomalyPublisher, error) {
	if err := ch.ExchangeDeclare(
		opsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		anomalyQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, anomalyRoutingKey, opsExchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &AnomalyPublisher{ch: ch}, nil
}

func (p *AnomalyPublisher) PublishAnomaly(ctx context.Context, rec usecase.AnomalyRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal anomaly: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    rec.ID,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, opsExchange, anomalyRoutingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.AlertPublisher = (*AnomalyPublisher)(nil)
