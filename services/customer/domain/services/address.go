// Package services contains stateless domain services for the customer
// bounded context. They operate purely on domain types.
package services

import (
	"context"
	"strings"

	"github.com/ghuser/crm/services/customer/domain/models"
)

// PostalAddress is the result of a postal-code lookup.
type PostalAddress struct {
	ZipCode      string
	Street       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// AddressResolver looks up a postal code. It never fails: any lookup problem
// (after the resolver's own retries) is reported as ok=false.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, postalCode string) (addr PostalAddress, ok bool)
}

// MergeAddress overlays a resolved postal address on the caller's address.
// Each resolved field wins only when it is non-blank; Number is always the
// caller's, and Complement is filled only when the caller left it blank.
// With ok=false the caller's address is returned verbatim.
func MergeAddress(caller models.Address, resolved PostalAddress, ok bool) models.Address {
	if !ok {
		return caller
	}
	out := caller
	out.ZipCode = pick(models.NormalizeZipCode(resolved.ZipCode), caller.ZipCode)
	out.Street = pick(resolved.Street, caller.Street)
	out.Neighborhood = pick(resolved.Neighborhood, caller.Neighborhood)
	out.City = pick(resolved.City, caller.City)
	out.State = pick(strings.ToUpper(resolved.State), caller.State)
	if strings.TrimSpace(caller.Complement) == "" {
		out.Complement = strings.TrimSpace(resolved.Complement)
	}
	return out
}

func pick(preferred, fallback string) string {
	if p := strings.TrimSpace(preferred); p != "" {
		return p
	}
	return fallback
}
