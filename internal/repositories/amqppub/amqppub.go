// Package amqppub publishes prepared chunks to RabbitMQ.
package amqppub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nkasozi/reconciler-backend/internal/recon"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements recon.QueuePublisher. A channel is not safe for
// concurrent publishing, so calls are serialised.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     *amqp.Connection
	exchange string
	declared map[string]bool
	log      logpkg.Logger
	now      func() time.Time
}

// New wraps an open channel. Queues are declared durable on first use.
func New(ch Channel, exchange string, log logpkg.Logger) *Publisher {
	if log == nil {
		log = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	return &Publisher{ch: ch, exchange: exchange, declared: map[string]bool{}, log: log.WithComponent("amqppub"), now: time.Now}
}

// Dial opens a connection and channel to url and declares queues up front.
func Dial(url, exchange string, queues []string, log logpkg.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, recon.WrapError(recon.KindConnectionError, fmt.Errorf("amqp dial: %w", err))
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, recon.WrapError(recon.KindConnectionError, fmt.Errorf("amqp channel: %w", err))
	}
	p := New(ch, exchange, log)
	p.conn = conn
	for _, q := range queues {
		if err := p.declare(q); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *Publisher) declare(queue string) error {
	if p.declared[queue] {
		return nil
	}
	if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return recon.WrapError(recon.KindConnectionError, fmt.Errorf("declare %s: %w", queue, err))
	}
	p.declared[queue] = true
	return nil
}

// Publish sends payload as a persistent JSON message routed by queue name.
// The generated message id is returned as the ack id.
func (p *Publisher) Publish(ctx context.Context, queue string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.declare(queue); err != nil {
		return "", err
	}
	msgID := uuid.NewString()
	err := p.ch.PublishWithContext(ctx, p.exchange, queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msgID,
		Timestamp:    p.now(),
		Body:         payload,
	})
	if err != nil {
		p.log.Warn("publish failed", logpkg.Str("queue", queue), logpkg.Err(err))
		return "", recon.WrapError(recon.KindConnectionError, err)
	}
	return msgID, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ recon.QueuePublisher = (*Publisher)(nil)
