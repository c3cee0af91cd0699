package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCustomerEvent_Snapshot(t *testing.T) {
	c := NewCustomer(sampleParams(), "alice")
	c.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	evt, err := NewCustomerEvent(c.ID, EventCustomerCreated, SnapshotOf(c), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evt.ID != uuid.Nil || !evt.OccurredAt.IsZero() {
		t.Fatal("id and occurredAt are assigned by the store")
	}
	if evt.CustomerID != c.ID || evt.Type != EventCustomerCreated || evt.OccurredBy != "alice" {
		t.Fatalf("unexpected event %+v", evt)
	}

	var snap CustomerSnapshot
	if err := json.Unmarshal(evt.Payload, &snap); err != nil {
		t.Fatalf("payload is not a snapshot: %v", err)
	}
	if snap.Document != "11122233344" || snap.Email != "alice@example.com" || snap.City != "São Paulo" {
		t.Fatalf("snapshot does not reflect customer: %+v", snap)
	}
}

func TestNewCustomerEvent_DeletedMarker(t *testing.T) {
	id := uuid.New()
	evt, err := NewCustomerEvent(id, EventCustomerDeleted, DeletedMarker{ID: id, DeletedBy: "bob"}, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(evt.Payload, &m); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if len(m) != 2 || m["id"] != id.String() || m["deleted_by"] != "bob" {
		t.Fatalf("unexpected marker %v", m)
	}
}

func TestNewCustomerEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewCustomerEvent(uuid.New(), EventCustomerUpdated, func() {}, "x")
	if err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestCustomerEvent_Clone(t *testing.T) {
	evt := CustomerEvent{Payload: json.RawMessage(`{"a":1}`)}
	cp := evt.Clone()
	cp.Payload[2] = 'b'

	if string(evt.Payload) != `{"a":1}` {
		t.Fatalf("clone shares payload bytes: %s", evt.Payload)
	}
}
