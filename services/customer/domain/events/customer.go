package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics published after a customer write commits.
const (
	TopicCustomerCreated = "customer.created"
	TopicCustomerUpdated = "customer.updated"
	TopicCustomerDeleted = "customer.deleted"
)

// Topics lists every customer topic, for subscribers that want all of them.
var Topics = []string{TopicCustomerCreated, TopicCustomerUpdated, TopicCustomerDeleted}

// CustomerChangedEvent is the integration message for all three topics.
// Customer is nil for deletions.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicCustomerCreated).
type CustomerChangedEvent struct {
	EventID    uuid.UUID         `json:"event_id"` // audit event id; use for deduplication
	Version    int               `json:"version"`  // Schema version; increment on breaking changes
	CustomerID uuid.UUID         `json:"customer_id"`
	EventType  string            `json:"event_type"`
	OccurredAt time.Time         `json:"occurred_at"`
	OccurredBy string            `json:"occurred_by"`
	Customer   *CustomerSnapshot `json:"customer,omitempty"`
}

// CustomerSnapshot mirrors the audit payload so consumers need not import the
// domain models package.
type CustomerSnapshot struct {
	ID                      uuid.UUID  `json:"id"`
	Name                    string     `json:"name"`
	Document                string     `json:"document"`
	CustomerType            int        `json:"customer_type"`
	BirthDate               *time.Time `json:"birth_date,omitempty"`
	Phone                   string     `json:"phone"`
	Email                   string     `json:"email"`
	ZipCode                 string     `json:"zip_code"`
	Street                  string     `json:"street"`
	Number                  string     `json:"number"`
	Complement              string     `json:"complement,omitempty"`
	Neighborhood            string     `json:"neighborhood"`
	City                    string     `json:"city"`
	State                   string     `json:"state"`
	StateRegistration       string     `json:"state_registration,omitempty"`
	StateRegistrationExempt bool       `json:"state_registration_exempt"`
	CreatedBy               string     `json:"created_by"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedBy               string     `json:"updated_by,omitempty"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
}

// TopicFor maps an audit event type to its topic.
func TopicFor(eventType string) (string, bool) {
	switch eventType {
	case "CustomerCreated":
		return TopicCustomerCreated, true
	case "CustomerUpdated":
		return TopicCustomerUpdated, true
	case "CustomerDeleted":
		return TopicCustomerDeleted, true
	default:
		return "", false
	}
}
