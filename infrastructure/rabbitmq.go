package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"resume-screener/domain"
)

const publishTimeout = 5 * time.Second

// RabbitPublisher announces scan changes on a topic exchange with routing keys
// of the form scan.<event>, so dashboards can refresh without polling.
type RabbitPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewRabbitPublisher(url, exchange string, log *logrus.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.WithField("exchange", exchange).Info("connected to RabbitMQ")
	return &RabbitPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func RoutingKey(event domain.ScanEvent) string {
	return "scan." + event.Type
}

// eventMessage wraps event for the broker. Each message gets its own id since
// one scan emits several events over its life.
func eventMessage(event domain.ScanEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     event.Timestamp,
		MessageId:     uuid.NewString(),
		CorrelationId: event.ScanID,
		Type:          event.Type,
		Body:          body,
	}, nil
}

func (r *RabbitPublisher) Publish(ctx context.Context, event domain.ScanEvent) error {
	msg, err := eventMessage(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.PublishWithContext(
		ctx,
		r.exchange,
		RoutingKey(event),
		false,
		false,
		msg,
	)
}

func (r *RabbitPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.ScanEvent) error { return nil }
