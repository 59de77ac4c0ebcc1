package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher sends activity events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// NoopPublisher drops every event.  It is used when the activity stream
// is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ActivityEvent) error { return nil }

// ErrBrokerBackoff is returned while the publisher waits out the
// backoff that follows a failed dial.
var ErrBrokerBackoff = errors.New("rabbitmq unavailable, backing off")

const (
	defaultDialTimeout = 5 * time.Second
	redialBackoff      = 5 * time.Second
)

// AMQPPublisher publishes persistent JSON messages to a durable queue on
// the default exchange.  The connection is opened lazily and reopened
// after a failure.  Dialing happens outside the mutex and is bounded by
// the caller's deadline; after a failed dial further publishes fail fast
// until redialBackoff has passed.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	dialing  bool
	nextDial time.Time
}

func NewAMQPPublisher(url, queue string, log zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:   url,
		queue: queue,
		log:   log.With().Str("component", "activity-publisher").Logger(),
		now:   time.Now,
	}
}

// Publish marshals ev and sends it.  Errors are logged and returned so
// the caller can ignore them without interrupting the request.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	if err := p.ensureChannel(ctx); err != nil {
		if !errors.Is(err, ErrBrokerBackoff) {
			p.log.Warn().Err(err).Str("type", ev.Type).Msg("rabbitmq unavailable")
		}
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrBrokerBackoff
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.log.Warn().Err(err).Str("type", ev.Type).Msg("publish failed")
		p.resetLocked()
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	p.ch, p.conn = nil, nil
	return err
}

// ensureChannel makes sure an open channel exists.  Only one caller dials
// at a time; the others fail fast instead of queueing behind it.
func (p *AMQPPublisher) ensureChannel(ctx context.Context) error {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		p.mu.Unlock()
		return nil
	}
	if p.dialing || p.now().Before(p.nextDial) {
		p.mu.Unlock()
		return ErrBrokerBackoff
	}
	p.resetLocked()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.nextDial = p.now().Add(redialBackoff)
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

// dial opens a connection and channel and declares the queue.  The TCP
// connect and AMQP handshake share the deadline of ctx.
func (p *AMQPPublisher) dial(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, nil, fmt.Errorf("dial: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
