package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a customer state change.
type EventType string

const (
	EventCustomerCreated EventType = "CustomerCreated"
	EventCustomerUpdated EventType = "CustomerUpdated"
	EventCustomerDeleted EventType = "CustomerDeleted"
)

// CustomerEvent is an immutable audit record of a customer state change.
// ID and OccurredAt are assigned by the event store on append; values set by
// the caller are overwritten.
type CustomerEvent struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Type       EventType
	Payload    json.RawMessage
	OccurredAt time.Time
	OccurredBy string
}

// Clone returns a copy of e that shares no memory with it.
func (e CustomerEvent) Clone() CustomerEvent {
	cp := e
	if e.Payload != nil {
		cp.Payload = append(json.RawMessage(nil), e.Payload...)
	}
	return cp
}

// CustomerSnapshot is the payload of CustomerCreated and CustomerUpdated
// events: the full customer state right after the write.
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

// SnapshotOf captures c as an event payload.
func SnapshotOf(c *Customer) CustomerSnapshot {
	return CustomerSnapshot{
		ID:                      c.ID,
		Name:                    c.Name,
		Document:                c.Document,
		CustomerType:            int(c.Type),
		BirthDate:               c.BirthDate,
		Phone:                   c.Phone,
		Email:                   c.Email,
		ZipCode:                 c.Address.ZipCode,
		Street:                  c.Address.Street,
		Number:                  c.Address.Number,
		Complement:              c.Address.Complement,
		Neighborhood:            c.Address.Neighborhood,
		City:                    c.Address.City,
		State:                   c.Address.State,
		StateRegistration:       c.StateRegistration,
		StateRegistrationExempt: c.StateRegistrationExempt,
		CreatedBy:               c.CreatedBy,
		CreatedAt:               c.CreatedAt,
		UpdatedBy:               c.UpdatedBy,
		UpdatedAt:               c.UpdatedAt,
	}
}

// DeletedMarker is the payload of CustomerDeleted events.
type DeletedMarker struct {
	ID        uuid.UUID `json:"id"`
	DeletedBy string    `json:"deleted_by"`
}

// NewCustomerEvent builds an unsaved event for customerID with payload
// serialized as JSON.
func NewCustomerEvent(customerID uuid.UUID, typ EventType, payload any, actor string) (CustomerEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return CustomerEvent{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return CustomerEvent{
		CustomerID: customerID,
		Type:       typ,
		Payload:    raw,
		OccurredBy: actor,
	}, nil
}
