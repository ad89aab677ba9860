// Package messaging publishes domain events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	reconnectDelay = 5 * time.Second
	publishTimeout = 5 * time.Second
)

var ErrChannelUnavailable = errors.New("messaging: channel not available")

// Publisher sends an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close()
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close()                                     {}

// RabbitMQ publishes JSON envelopes to a durable topic exchange and
// reconnects in the background when the connection drops.
type RabbitMQ struct {
	url     string
	log     *zap.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.RWMutex
	done    chan struct{}
	closing sync.Once
	now     func() time.Time
	dial    func(url string) (*amqp.Connection, *amqp.Channel, error)
	delay   time.Duration
}

func NewRabbitMQ(url string, log *zap.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		url:   url,
		log:   log,
		done:  make(chan struct{}),
		now:   time.Now,
		dial:  dial,
		delay: reconnectDelay,
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	go r.handleReconnect()
	return r, nil
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

// connect dials without holding the lock so Publish keeps failing fast
// while the broker is unreachable.
func (r *RabbitMQ) connect() error {
	conn, ch, err := r.dial(r.url)
	if err != nil {
		return err
	}

	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		ch.Close()
		conn.Close()
		return errors.New("messaging: publisher closed")
	default:
	}
	r.conn = conn
	r.channel = ch
	r.mu.Unlock()

	r.log.Info("rabbitmq connected", zap.String("exchange", ExchangeName))
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	for {
		r.mu.RLock()
		closed := r.conn.NotifyClose(make(chan *amqp.Error, 1))
		r.mu.RUnlock()

		select {
		case <-r.done:
			return
		case err := <-closed:
			if err != nil {
				r.log.Warn("rabbitmq connection lost, reconnecting", zap.Error(err))
			}
		}

		r.mu.Lock()
		r.channel = nil
		r.mu.Unlock()

		if !r.reconnect() {
			return
		}
	}
}

// reconnect retries until a connection is up. It returns false once the
// publisher is closed.
func (r *RabbitMQ) reconnect() bool {
	for {
		select {
		case <-r.done:
			return false
		default:
		}
		err := r.connect()
		if err == nil {
			return true
		}
		r.log.Warn("rabbitmq reconnect failed", zap.Error(err), zap.Duration("retry_in", r.delay))
		select {
		case <-r.done:
			return false
		case <-time.After(r.delay):
		}
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(NewEnvelope(routingKey, payload, r.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.channel == nil {
		return ErrChannelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    r.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	r.log.Debug("event published", zap.String("routing_key", routingKey))
	return nil
}

func (r *RabbitMQ) Close() {
	r.closing.Do(func() { close(r.done) })

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
	r.log.Info("rabbitmq connection closed")
}
