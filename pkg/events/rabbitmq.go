package events

import (
	"context"
	"fmt"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange registry events are published on
const DefaultExchange = "registry.events"

// ItemKeyHeader carries the decimal item key on every published message
const ItemKeyHeader = "x-item-key"

// RabbitMQPublisher implements EventPublisher
type RabbitMQPublisher struct {
	channel *amqp.Channel
}

// NewRabbitMQPublisher opens a channel and declares the topic exchange
func NewRabbitMQPublisher(conn *amqp.Connection, exchange string) (*RabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{channel: ch}, nil
}

// Close closes the channel
func (p *RabbitMQPublisher) Close() error {
	return p.channel.Close()
}

// Publish sends the event with its type as routing key. The outbox ID becomes
// the AMQP message ID so consumers can drop redeliveries.
func (p *RabbitMQPublisher) Publish(ctx context.Context, exchange string, event *OutboxEvent) error {
	return p.channel.PublishWithContext(ctx,
		exchange,        // exchange
		event.EventType, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/x-protobuf",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.CreatedAt,
			Type:         event.EventType,
			Headers: amqp.Table{
				ItemKeyHeader: strconv.FormatUint(event.ItemKey, 10),
			},
			Body: event.Payload,
		},
	)
}
