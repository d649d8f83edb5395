package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"room-reservation/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// publisher is the slice of *amqp.Channel used for publishing.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPDispatcher publishes events as JSON to a topic exchange, routed by event type.
type AMQPDispatcher struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
	mu       sync.Mutex
	log      *zap.Logger
}

func NewAMQPDispatcher(cfg utils.AMQPConfig, log *zap.Logger) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info("AMQP dispatcher ready", zap.String("exchange", cfg.Exchange))
	return newAMQPDispatcher(conn, ch, cfg.Exchange, log), nil
}

func newAMQPDispatcher(conn *amqp.Connection, ch publisher, exchange string, log *zap.Logger) *AMQPDispatcher {
	return &AMQPDispatcher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		log:      log.With(zap.String("dispatcher", "amqp")),
	}
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}

	d.mu.Lock()
	err = d.ch.PublishWithContext(ctx, d.exchange, string(event.Type), false, false, msg)
	d.mu.Unlock()
	if err != nil {
		d.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
		)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	d.log.Debug("Event published", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
	return nil
}

func (d *AMQPDispatcher) Close() error {
	var errs []error
	if d.ch != nil {
		errs = append(errs, d.ch.Close())
	}
	if d.conn != nil {
		errs = append(errs, d.conn.Close())
	}
	return errors.Join(errs...)
}
