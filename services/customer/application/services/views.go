package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	pkgcache "github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/services/customer/domain/models"
)

// CreateCustomerCommand carries the caller-supplied fields of a new customer.
type CreateCustomerCommand struct {
	Name                    string
	Document                string
	Type                    models.CustomerType
	BirthDate               *time.Time
	Phone                   string
	Email                   string
	Address                 models.Address
	StateRegistration       string
	StateRegistrationExempt bool
}

// UpdateCustomerCommand carries the mutable fields of an existing customer.
type UpdateCustomerCommand struct {
	ID                      uuid.UUID
	Name                    string
	Phone                   string
	Email                   string
	Address                 models.Address
	StateRegistration       string
	StateRegistrationExempt bool
}

// CustomerView is the read model returned by the service and the API.
type CustomerView struct {
	ID                      uuid.UUID  `json:"id"                                  example:"123e4567-e89b-12d3-a456-426614174000"`
	Name                    string     `json:"name"                                example:"Maria Silva"`
	Document                string     `json:"document"                            example:"11122233344"`
	CustomerType            int        `json:"customer_type"                       example:"1"`
	BirthDate               *time.Time `json:"birth_date,omitempty"                example:"1990-03-10T00:00:00Z"`
	Phone                   string     `json:"phone"                               example:"11999990000"`
	Email                   string     `json:"email"                               example:"maria@example.com"`
	ZipCode                 string     `json:"zip_code"                            example:"01001000"`
	Street                  string     `json:"street"                              example:"Praça da Sé"`
	Number                  string     `json:"number"                              example:"100"`
	Complement              string     `json:"complement,omitempty"                example:"lado ímpar"`
	Neighborhood            string     `json:"neighborhood"                        example:"Sé"`
	City                    string     `json:"city"                                example:"São Paulo"`
	State                   string     `json:"state"                               example:"SP"`
	StateRegistration       string     `json:"state_registration,omitempty"        example:"110.042.490.114"`
	StateRegistrationExempt bool       `json:"state_registration_exempt"           example:"false"`
	CreatedBy               string     `json:"created_by"                          example:"System"`
	CreatedAt               time.Time  `json:"created_at"                          example:"2024-01-15T10:30:00Z"`
	UpdatedBy               string     `json:"updated_by,omitempty"                example:"maria"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"                example:"2024-01-16T10:30:00Z"`
} // @name CustomerView

// CustomerPage is one page of List results.
type CustomerPage struct {
	Items  []CustomerView `json:"items"`
	Total  int            `json:"total"  example:"120"`
	Limit  int            `json:"limit"  example:"50"`
	Offset int            `json:"offset" example:"0"`
} // @name CustomerPage

// EventView is an audit event as exposed by GetEvents.
type EventView struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	EventType  string          `json:"event_type"  example:"CustomerCreated"`
	Payload    json.RawMessage `json:"payload"     swaggertype:"object"`
	OccurredAt time.Time       `json:"occurred_at" example:"2024-01-15T10:30:00Z"`
	OccurredBy string          `json:"occurred_by" example:"System"`
} // @name EventView

// ViewOf maps a customer to its read model.
func ViewOf(c *models.Customer) CustomerView {
	return CustomerView{
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

func eventViewOf(e models.CustomerEvent) EventView {
	return EventView{
		ID:         e.ID,
		CustomerID: e.CustomerID,
		EventType:  string(e.Type),
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
		OccurredBy: e.OccurredBy,
	}
}

// CachedOf maps a customer to its cache entry.
func CachedOf(c *models.Customer) *pkgcache.CachedCustomer {
	return &pkgcache.CachedCustomer{
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

func viewOfCached(cc *pkgcache.CachedCustomer) CustomerView {
	return CustomerView(*cc)
}
