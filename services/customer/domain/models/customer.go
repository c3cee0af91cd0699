package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CustomerType distinguishes individuals (CPF) from companies (CNPJ).
type CustomerType int

const (
	CustomerTypeIndividual CustomerType = 1
	CustomerTypeCompany    CustomerType = 2
)

// Valid reports whether t is a known customer type.
func (t CustomerType) Valid() bool {
	return t == CustomerTypeIndividual || t == CustomerTypeCompany
}

func (t CustomerType) String() string {
	switch t {
	case CustomerTypeIndividual:
		return "individual"
	case CustomerTypeCompany:
		return "company"
	default:
		return "unknown"
	}
}

// Address is the postal address of a customer. ZipCode holds digits only.
type Address struct {
	ZipCode      string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// Customer is the aggregate root of the customer bounded context.
// Records are never physically removed; DeletedAt marks a soft delete.
type Customer struct {
	ID                      uuid.UUID
	Name                    string
	Document                string // digits only
	Type                    CustomerType
	BirthDate               *time.Time
	Phone                   string
	Email                   string // lowercased
	Address                 Address
	StateRegistration       string
	StateRegistrationExempt bool

	CreatedBy string
	CreatedAt time.Time
	UpdatedBy string
	UpdatedAt *time.Time
	DeletedBy string
	DeletedAt *time.Time
}

// NewCustomerParams carries the caller-controlled fields of a new customer.
type NewCustomerParams struct {
	Name                    string
	Document                string
	Type                    CustomerType
	BirthDate               *time.Time
	Phone                   string
	Email                   string
	Address                 Address
	StateRegistration       string
	StateRegistrationExempt bool
}

// NewCustomer builds a Customer with a generated id, normalized document and
// email, and the creating actor. CreatedAt is stamped by the repository.
func NewCustomer(p NewCustomerParams, actor string) *Customer {
	addr := p.Address
	addr.ZipCode = NormalizeZipCode(addr.ZipCode)
	addr.State = strings.ToUpper(strings.TrimSpace(addr.State))

	return &Customer{
		ID:                      uuid.New(),
		Name:                    strings.TrimSpace(p.Name),
		Document:                NormalizeDocument(p.Document),
		Type:                    p.Type,
		BirthDate:               p.BirthDate,
		Phone:                   strings.TrimSpace(p.Phone),
		Email:                   NormalizeEmail(p.Email),
		Address:                 addr,
		StateRegistration:       strings.TrimSpace(p.StateRegistration),
		StateRegistrationExempt: p.StateRegistrationExempt,
		CreatedBy:               actor,
	}
}

// CustomerChanges are the fields an update may touch. Document and Type are
// immutable after creation and deliberately absent.
type CustomerChanges struct {
	Name                    string
	Phone                   string
	Email                   string
	Address                 Address
	StateRegistration       string
	StateRegistrationExempt bool
}

// ApplyChanges overwrites the mutable fields and records the updating actor.
// UpdatedAt is stamped by the repository.
func (c *Customer) ApplyChanges(ch CustomerChanges, actor string) {
	addr := ch.Address
	addr.ZipCode = NormalizeZipCode(addr.ZipCode)
	addr.State = strings.ToUpper(strings.TrimSpace(addr.State))

	c.Name = strings.TrimSpace(ch.Name)
	c.Phone = strings.TrimSpace(ch.Phone)
	c.Email = NormalizeEmail(ch.Email)
	c.Address = addr
	c.StateRegistration = strings.TrimSpace(ch.StateRegistration)
	c.StateRegistrationExempt = ch.StateRegistrationExempt
	c.UpdatedBy = actor
}

// MarkDeleted soft-deletes the customer.
func (c *Customer) MarkDeleted(actor string, at time.Time) {
	at = at.UTC()
	c.DeletedBy = actor
	c.DeletedAt = &at
}

// IsDeleted reports whether the customer has been soft-deleted.
func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Clone returns a deep copy of c.
func (c *Customer) Clone() *Customer {
	cp := *c
	if c.BirthDate != nil {
		b := *c.BirthDate
		cp.BirthDate = &b
	}
	if c.UpdatedAt != nil {
		u := *c.UpdatedAt
		cp.UpdatedAt = &u
	}
	if c.DeletedAt != nil {
		d := *c.DeletedAt
		cp.DeletedAt = &d
	}
	return &cp
}

// NormalizeDocument keeps only the digits of a CPF/CNPJ so "111.222.333-44"
// and "11122233344" compare equal.
func NormalizeDocument(s string) string {
	return digits(s)
}

// NormalizeZipCode keeps only the digits of a postal code.
func NormalizeZipCode(s string) string {
	return digits(s)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
