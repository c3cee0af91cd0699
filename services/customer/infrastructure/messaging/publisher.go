// Package messaging announces committed customer changes on the event bus.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/crm/pkg/database"
	"github.com/ghuser/crm/pkg/events"
	domainevents "github.com/ghuser/crm/services/customer/domain/events"
	"github.com/ghuser/crm/services/customer/domain/models"
	"github.com/ghuser/crm/services/customer/domain/repositories"
)

const eventVersion = 1

// BusPublisher implements repositories.ChangePublisher on an EventBus.
// When ctx carries a SQL transaction and the bus supports it, the message is
// written through that transaction (outbox); otherwise it is published
// directly.
type BusPublisher struct {
	bus *events.EventBus
}

var _ repositories.ChangePublisher = (*BusPublisher)(nil)

// NewBusPublisher returns a BusPublisher for bus.
func NewBusPublisher(bus *events.EventBus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

// PublishChange implements repositories.ChangePublisher. c may be nil for
// deletions.
func (p *BusPublisher) PublishChange(ctx context.Context, evt models.CustomerEvent, c *models.Customer) error {
	msg, topic, err := NewChangeMessage(evt, c)
	if err != nil {
		return err
	}

	if tx, ok := database.TxFromContext(ctx); ok && p.bus.SupportsTx() {
		return p.bus.PublishTx(ctx, tx, topic, msg)
	}
	return p.bus.Publish(ctx, topic, msg)
}

// NewChangeMessage encodes evt as a CustomerChangedEvent message and returns
// the topic it belongs on.
func NewChangeMessage(evt models.CustomerEvent, c *models.Customer) (*message.Message, string, error) {
	topic, ok := domainevents.TopicFor(string(evt.Type))
	if !ok {
		return nil, "", fmt.Errorf("messaging: no topic for event type %q", evt.Type)
	}

	payload := domainevents.CustomerChangedEvent{
		EventID:    evt.ID,
		Version:    eventVersion,
		CustomerID: evt.CustomerID,
		EventType:  string(evt.Type),
		OccurredAt: evt.OccurredAt,
		OccurredBy: evt.OccurredBy,
	}
	if c != nil && evt.Type != models.EventCustomerDeleted {
		snap := domainevents.CustomerSnapshot(models.SnapshotOf(c))
		payload.Customer = &snap
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("messaging: marshal %s: %w", evt.Type, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.Metadata.Set("event_id", evt.ID.String())
	msg.Metadata.Set("event_type", string(evt.Type))
	msg.Metadata.Set("event_version", fmt.Sprint(eventVersion))
	return msg, topic, nil
}
