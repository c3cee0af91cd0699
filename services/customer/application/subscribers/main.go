// Package subscribers keeps the Redis customer cache in step with committed
// customer changes announced on the event bus.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/events"
	"github.com/ghuser/crm/pkg/logger"
	domainevents "github.com/ghuser/crm/services/customer/domain/events"
)

// Bus is the subscribe side of events.EventBus.
type Bus interface {
	Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error)
}

// Register subscribes the cache handler to every customer topic. Subscriber
// errors are drained and logged until ctx is done.
func Register(ctx context.Context, bus Bus, customers *cache.CustomerCache, log logger.Logger) error {
	handler := HandleCustomerChanged(customers, log)
	for _, topic := range domainevents.Topics {
		errCh, err := bus.Subscribe(ctx, topic, handler)
		if err != nil {
			return err
		}

		// Drain subscriber errors in background so the channel never blocks.
		go func() {
			for err := range errCh {
				log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}()
	}

	log.Info("event subscribers registered", "topics", domainevents.Topics)
	return nil
}

// HandleCustomerChanged warms the cache on customer.created and
// customer.updated and tombstones on customer.deleted. Topics are not ordered
// against each other, so a warm that lands after the delete is refused.
// It is idempotent; the bus retries failed evictions and acks undecodable
// payloads as permanent failures.
func HandleCustomerChanged(customers *cache.CustomerCache, log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt domainevents.CustomerChangedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return events.Permanent(fmt.Errorf("decode customer event: %w", err))
		}

		if evt.Customer == nil {
			if err := customers.MarkDeleted(ctx, evt.CustomerID); err != nil {
				return fmt.Errorf("evict customer %s: %w", evt.CustomerID, err)
			}
			log.InfoContext(ctx, "cache evicted", "customer_id", evt.CustomerID, "event_type", evt.EventType)
			return nil
		}

		if stale(ctx, customers, evt.Customer) {
			log.DebugContext(ctx, "stale customer event skipped", "customer_id", evt.CustomerID, "event_id", evt.EventID)
			return nil
		}

		cc := cache.CachedCustomer(*evt.Customer)
		err := customers.Set(ctx, &cc)
		if errors.Is(err, cache.ErrCustomerDeleted) {
			log.DebugContext(ctx, "deleted customer not warmed", "customer_id", evt.CustomerID, "event_id", evt.EventID)
			return nil
		}
		if err != nil {
			// Cache warming is best-effort; log but do not fail the handler.
			log.WarnContext(ctx, "cache warm failed", "customer_id", evt.CustomerID, "error", err)
			return nil
		}
		log.InfoContext(ctx, "cache warmed", "customer_id", evt.CustomerID, "event_type", evt.EventType)
		return nil
	}
}

// stale reports whether the cache already holds a newer state than snap.
func stale(ctx context.Context, customers *cache.CustomerCache, snap *domainevents.CustomerSnapshot) bool {
	cached, err := customers.Get(ctx, snap.ID)
	if err != nil || cached.UpdatedAt == nil {
		return false
	}
	return snap.UpdatedAt == nil || cached.UpdatedAt.After(*snap.UpdatedAt)
}
