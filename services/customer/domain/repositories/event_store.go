package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/crm/services/customer/domain/models"
)

// EventStore is the append-only log of customer events. There is no update
// or delete operation.
type EventStore interface {
	// Append assigns a fresh ID and OccurredAt to evt (overwriting any caller
	// values), persists it and returns the stored event. OccurredAt never
	// goes backwards for a given customer.
	Append(ctx context.Context, evt models.CustomerEvent) (models.CustomerEvent, error)

	// GetBySubject returns every event of customerID ordered by OccurredAt,
	// ties broken by append order. Unknown customers yield an empty, non-nil
	// slice.
	GetBySubject(ctx context.Context, customerID uuid.UUID) ([]models.CustomerEvent, error)
}

// Transactor runs fn atomically. Repositories and the event store called with
// the ctx passed to fn take part in the same unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ChangePublisher announces committed customer changes to other processes.
// When called inside WithinTx the message is part of the same unit of work.
type ChangePublisher interface {
	PublishChange(ctx context.Context, evt models.CustomerEvent, c *models.Customer) error
}
