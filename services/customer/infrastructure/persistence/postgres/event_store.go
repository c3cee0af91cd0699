package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/crm/pkg/database"
	"github.com/ghuser/crm/services/customer/domain/models"
	"github.com/ghuser/crm/services/customer/domain/repositories"
)

// ErrEmptyEventType is returned by Append for an event without a type.
var ErrEmptyEventType = errors.New("postgres: event type is required")

const (
	// The GREATEST clamp keeps occurred_at non-decreasing per customer even if
	// the application clock steps back.
	appendEventSQL = `INSERT INTO customer_events
		(id, customer_id, event_type, payload, occurred_at, occurred_by)
	SELECT $1, $2, $3, $4,
		GREATEST($5::timestamptz, COALESCE(MAX(occurred_at), $5::timestamptz)), $6
	FROM customer_events WHERE customer_id = $2
	RETURNING occurred_at`

	eventsBySubjectSQL = `SELECT id, customer_id, event_type, payload, occurred_at, occurred_by
	FROM customer_events WHERE customer_id = $1
	ORDER BY occurred_at, seq`
)

// EventStore is the append-only customer_events table. Rows are never
// updated or deleted; the table carries triggers that reject both.
type EventStore struct {
	db  *database.Database
	now func() time.Time
}

var _ repositories.EventStore = (*EventStore)(nil)

// NewEventStore returns an EventStore backed by the given pool.
func NewEventStore(db *database.Database) *EventStore {
	return &EventStore{db: db, now: time.Now}
}

// Append stores evt under a fresh id and the current time.
func (s *EventStore) Append(ctx context.Context, evt models.CustomerEvent) (models.CustomerEvent, error) {
	if evt.Type == "" {
		return models.CustomerEvent{}, ErrEmptyEventType
	}

	stored := evt.Clone()
	stored.ID = uuid.New()
	at := s.now().UTC().Truncate(time.Microsecond)

	err := s.db.Executor(ctx).QueryRowContext(ctx, appendEventSQL,
		stored.ID, stored.CustomerID, string(stored.Type), string(stored.Payload), at, stored.OccurredBy,
	).Scan(&stored.OccurredAt)
	if err != nil {
		return models.CustomerEvent{}, fmt.Errorf("append customer event: %w", err)
	}
	stored.OccurredAt = stored.OccurredAt.UTC()
	return stored, nil
}

// GetBySubject returns the events of customerID oldest first.
func (s *EventStore) GetBySubject(ctx context.Context, customerID uuid.UUID) ([]models.CustomerEvent, error) {
	rows, err := s.db.Executor(ctx).QueryContext(ctx, eventsBySubjectSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer events: %w", err)
	}
	defer rows.Close()

	out := make([]models.CustomerEvent, 0)
	for rows.Next() {
		var (
			e       models.CustomerEvent
			typ     string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.CustomerID, &typ, &payload, &e.OccurredAt, &e.OccurredBy); err != nil {
			return nil, fmt.Errorf("scan customer event: %w", err)
		}
		e.Type = models.EventType(typ)
		e.Payload = payload
		e.OccurredAt = e.OccurredAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer events: %w", err)
	}
	return out, nil
}

// Transactor runs units of work in a database transaction carried by ctx.
type Transactor struct {
	db *database.Database
}

var _ repositories.Transactor = (*Transactor)(nil)

// NewTransactor returns a Transactor over db.
func NewTransactor(db *database.Database) *Transactor {
	return &Transactor{db: db}
}

// WithinTx implements repositories.Transactor.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.RunInTx(ctx, fn)
}
