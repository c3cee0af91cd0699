package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/ghuser/crm/pkg/result"
	"github.com/ghuser/crm/services/customer/domain"
	"github.com/ghuser/crm/services/customer/domain/models"
)

const (
	maxNameLength  = 200
	maxPhoneLength = 20
	adultAge       = 18
)

// ValidateCustomer enforces the business rules of a fully built Customer.
// It returns every violation, not just the first. now anchors the age rule.
//
// Business rules:
//   - Name is required and at most 200 characters
//   - Document has 11 (CPF) or 14 (CNPJ) digits
//   - Phone is at most 20 characters
//   - Email, street, number, neighborhood and city are required
//   - Postal code has 8 digits and state 2 letters
//   - Individuals are at least 18 years old
//   - Companies give a state registration or are exempt
func ValidateCustomer(c *models.Customer, now time.Time) []result.Error {
	if c == nil {
		return []result.Error{domain.Invalid("customer cannot be nil")}
	}

	var errs []result.Error
	add := func(format string, args ...any) {
		errs = append(errs, domain.Invalid(fmt.Sprintf(format, args...)))
	}

	if c.Name == "" {
		add("name is required")
	} else if n := len([]rune(c.Name)); n > maxNameLength {
		add("name must not exceed %d characters", maxNameLength)
	}

	if n := len(c.Document); n != 11 && n != 14 {
		add("document must have 11 (CPF) or 14 (CNPJ) digits")
	}

	if !c.Type.Valid() {
		add("customer type must be 1 (individual) or 2 (company)")
	}

	if len([]rune(c.Phone)) > maxPhoneLength {
		add("phone must not exceed %d characters", maxPhoneLength)
	}

	if c.Email == "" || !strings.Contains(c.Email, "@") {
		add("a valid email is required")
	}

	a := c.Address
	if len(a.ZipCode) != 8 {
		add("zip code must have 8 digits")
	}
	for _, f := range []struct{ name, value string }{
		{"street", a.Street},
		{"number", a.Number},
		{"neighborhood", a.Neighborhood},
		{"city", a.City},
	} {
		if strings.TrimSpace(f.value) == "" {
			add("%s is required", f.name)
		}
	}
	if len(a.State) != 2 {
		add("state must have 2 letters")
	}

	switch c.Type {
	case models.CustomerTypeIndividual:
		if c.BirthDate == nil {
			add("birth date is required for individuals")
		} else if c.BirthDate.AddDate(adultAge, 0, 0).After(now) {
			add("customer must be at least %d years old", adultAge)
		}
	case models.CustomerTypeCompany:
		if strings.TrimSpace(c.StateRegistration) == "" && !c.StateRegistrationExempt {
			add("company must have a state registration or be exempt")
		}
	}

	return errs
}
