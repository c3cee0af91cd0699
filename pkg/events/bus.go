// Package events is the integration event bus. The Postgres transport
// (watermill-sql) optionally routes publishes through a forwarder queue so a
// message written inside a business transaction is relayed only after that
// transaction commits; NewInMemoryEventBus uses the gochannel transport for
// single-process deployments and tests.
//
// Subscribers sharing a consumer group split the stream between them. A
// failed handler is retried with exponential backoff; a Permanent error skips
// the retries. Trace context travels in message metadata.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/logger"
)

const (
	defaultHandlerAttempts = 3
	defaultRetryBaseDelay  = time.Second
	shutdownTimeout        = 30 * time.Second
	errBuffer              = 100
)

// ErrNoTxSupport is returned by PublishTx on a bus without a database.
var ErrNoTxSupport = errors.New("events: transactional publishing requires the SQL bus")

// EventBus publishes and consumes Watermill messages.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber

	// SQL transport only.
	db           *sql.DB
	fwd          *forwarder.Forwarder
	useForwarder bool
	group        string

	attempts  uint64
	baseDelay time.Duration

	log logger.Logger
	wg  sync.WaitGroup
}

// Option customises an EventBus.
type Option func(*EventBus)

// WithHandlerRetry sets how many times a handler runs before its message is
// given up on, and the first backoff delay.
func WithHandlerRetry(attempts uint64, baseDelay time.Duration) Option {
	return func(q *EventBus) {
		if attempts > 0 {
			q.attempts = attempts
		}
		if baseDelay > 0 {
			q.baseDelay = baseDelay
		}
	}
}

func newBus(log logger.Logger, opts []Option) *EventBus {
	q := &EventBus{
		log:       log,
		attempts:  defaultHandlerAttempts,
		baseDelay: defaultRetryBaseDelay,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func configOptions(cfg *config.Config) []Option {
	return []Option{WithHandlerRetry(cfg.EventHandlerAttempts, cfg.EventRetryBaseDelay)}
}

// SupportsTx reports whether the bus can publish inside a SQL transaction.
func (q *EventBus) SupportsTx() bool {
	return q.db != nil
}

// Publish sends msgs to topic with the trace context of ctx in their metadata.
func (q *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	injectTrace(ctx, msgs)
	if err := q.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// PublishTx publishes msgs through tx; they become visible only if tx commits.
func (q *EventBus) PublishTx(ctx context.Context, tx *sql.Tx, topic string, msgs ...*message.Message) error {
	if q.db == nil {
		return ErrNoTxSupport
	}
	pub, err := q.txPublisher(tx)
	if err != nil {
		return err
	}
	injectTrace(ctx, msgs)
	if err := pub.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: tx publish to %s: %w", topic, err)
	}
	return nil
}

func injectTrace(ctx context.Context, msgs []*message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
}

func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}

// Ping checks the database behind the SQL transport. The in-memory bus is
// always healthy.
func (q *EventBus) Ping(ctx context.Context) error {
	if q.db == nil {
		return nil
	}
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber and forwarder, waits up to 30s for in-flight
// handlers, then closes the publisher and database.
func (q *EventBus) Close() error {
	if err := q.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if q.fwd != nil {
		if err := q.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := q.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}
