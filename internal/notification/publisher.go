package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const queueName = "pos.events"

// Event is the message published for sale and stock happenings. Consumers
// (email sender, browser push bridge) live outside this service.
type Event struct {
	Kind       string    `json:"kind"`
	UserID     uint      `json:"user_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events to RabbitMQ. A nil Publisher (no broker configured)
// drops events silently; any publish error is logged and returned so callers
// can ignore it without failing their own work.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("[WARN] rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("[WARN] rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts; declare is idempotent.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("[WARN] rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("[WARN] rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
