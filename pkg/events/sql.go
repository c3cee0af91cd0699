package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/logger"
)

const (
	forwarderTopic = "_forwarder_queue"
	forwarderGroup = "forwarder-consumer"
)

// NewEventBus opens its own connection to cfg.DatabaseURL and publishes
// directly to the target topics. Instances with the same ServiceName share
// the "<service>-consumer" group.
func NewEventBus(cfg *config.Config, log logger.Logger, opts ...Option) (*EventBus, error) {
	return newSQLBus(cfg, log, false, opts)
}

// NewEventBusWithForwarder publishes into the durable forwarder queue;
// StartForwarder relays the queue to the target topics. Used by the API so
// PublishTx writes land in the same transaction as the customer row.
func NewEventBusWithForwarder(cfg *config.Config, log logger.Logger, opts ...Option) (*EventBus, error) {
	return newSQLBus(cfg, log, true, opts)
}

func newSQLBus(cfg *config.Config, log logger.Logger, useForwarder bool, opts []Option) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}

	q := newBus(log, append(configOptions(cfg), opts...))
	q.db = db
	q.useForwarder = useForwarder
	q.group = cfg.ServiceName + "-consumer"

	pub, err := newSQLPublisher(db, true, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	q.publisher = q.wrapForwarder(pub)

	q.subscriber, err = newSQLSubscriber(db, q.group, log)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}
	return q, nil
}

func newSQLPublisher(db watermillsql.ContextExecutor, initSchema bool, log logger.Logger) (*watermillsql.Publisher, error) {
	return watermillsql.NewPublisher(db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}, newWatermillLogger(log))
}

func newSQLSubscriber(db *sql.DB, group string, log logger.Logger) (*watermillsql.Subscriber, error) {
	return watermillsql.NewSubscriber(db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, newWatermillLogger(log))
}

// wrapForwarder envelopes messages for the forwarder queue in forwarder mode.
func (q *EventBus) wrapForwarder(pub message.Publisher) message.Publisher {
	if !q.useForwarder {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: forwarderTopic})
}

// txPublisher binds a publisher to tx. Tables already exist once the bus
// is constructed, so schema initialisation is off.
func (q *EventBus) txPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := newSQLPublisher(tx, false, q.log)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return q.wrapForwarder(pub), nil
}

// StartForwarder runs the relay from the forwarder queue to the target
// topics until ctx is done. It returns once the relay is running.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	if !q.useForwarder {
		return errors.New("events: StartForwarder called on non-forwarder EventBus")
	}
	if q.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	queue, err := newSQLSubscriber(q.db, forwarderGroup, q.log)
	if err != nil {
		return fmt.Errorf("events: new forwarder subscriber: %w", err)
	}
	target, err := newSQLPublisher(q.db, true, q.log)
	if err != nil {
		_ = queue.Close()
		return fmt.Errorf("events: new forwarder target publisher: %w", err)
	}
	fwd, err := forwarder.NewForwarder(queue, target, newWatermillLogger(q.log), forwarder.Config{
		ForwarderTopic: forwarderTopic,
	})
	if err != nil {
		_ = target.Close()
		_ = queue.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	q.fwd = fwd

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.log.InfoContext(ctx, "events: forwarder started")
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: forwarder stopped with error", "error", err)
			return
		}
		q.log.InfoContext(ctx, "events: forwarder stopped")
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: context cancelled waiting for forwarder: %w", ctx.Err())
	}
}
