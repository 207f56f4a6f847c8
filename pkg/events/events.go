// Package events publishes JSON messages to a RabbitMQ topic exchange with lifecycle coordination.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JaimeStill/protrace/pkg/lifecycle"
)

// ErrNotConnected is returned by Publish before the broker channel is open
// or after it has been closed.
var ErrNotConnected = errors.New("events: not connected")

// System publishes messages to the configured exchange.
type System interface {
	// Publish marshals payload as JSON and sends it with the given routing key.
	Publish(ctx context.Context, routingKey string, payload any) error
	// Start registers connect and close hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type publisher struct {
	url      string
	exchange string
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel Channel
}

// New creates a publisher for cfg. When events are disabled the returned
// System discards every message.
func New(cfg *Config, logger *slog.Logger) System {
	if !cfg.Enabled {
		return noop{}
	}
	return &publisher{
		url:      cfg.URL,
		exchange: cfg.Exchange,
		timeout:  cfg.PublishTimeoutDuration(),
		logger:   logger.With("system", "events", "exchange", cfg.Exchange),
	}
}

func (p *publisher) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting event publisher")

	lc.OnStartup(func() {
		if err := p.connect(); err != nil {
			p.logger.Error("broker connect failed", "error", err)
			return
		}
		p.logger.Info("event publisher connected")
	})

	lc.OnShutdown("events", func() {
		<-lc.Context().Done()
		p.close()
		p.logger.Info("event publisher closed")
	})

	return nil
}

func (p *publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.channel = ch
	p.mu.Unlock()
	return nil
}

func (p *publisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("channel close failed", "error", err)
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Warn("connection close failed", "error", err)
		}
		p.conn = nil
	}
}

func (p *publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()
	if ch == nil {
		return ErrNotConnected
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

type noop struct{}

func (noop) Publish(context.Context, string, any) error { return nil }

func (noop) Start(*lifecycle.Coordinator) error { return nil }
