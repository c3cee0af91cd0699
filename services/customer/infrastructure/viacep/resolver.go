package viacep

import (
	"context"
	"errors"

	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/services/customer/domain/models"
	"github.com/ghuser/crm/services/customer/domain/services"
)

// Looker is the lookup half of Client.
type Looker interface {
	Lookup(ctx context.Context, postalCode string) (*Address, error)
}

// Resolver adapts a Looker to services.AddressResolver, reading through an
// optional Redis cache. Every failure is logged and reported as ok=false.
type Resolver struct {
	client Looker
	cache  *cache.AddressCache // nil disables caching
	log    logger.Logger
}

var _ services.AddressResolver = (*Resolver)(nil)

// NewResolver returns a Resolver. addressCache may be nil.
func NewResolver(client Looker, addressCache *cache.AddressCache, log logger.Logger) *Resolver {
	return &Resolver{client: client, cache: addressCache, log: log}
}

// ResolveAddress implements services.AddressResolver.
func (r *Resolver) ResolveAddress(ctx context.Context, postalCode string) (services.PostalAddress, bool) {
	zip := models.NormalizeZipCode(postalCode)
	if !validPostalCode(zip) {
		return services.PostalAddress{}, false
	}

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, zip)
		switch {
		case err == nil:
			return services.PostalAddress{
				ZipCode:      cached.ZipCode,
				Street:       cached.Street,
				Complement:   cached.Complement,
				Neighborhood: cached.Neighborhood,
				City:         cached.City,
				State:        cached.State,
			}, true
		case !cache.IsMiss(err):
			r.log.WarnContext(ctx, "viacep: address cache read failed", "postal_code", zip, "error", err)
		}
	}

	addr, err := r.client.Lookup(ctx, zip)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.log.InfoContext(ctx, "viacep: postal code not found", "postal_code", zip)
		} else {
			r.log.WarnContext(ctx, "viacep: lookup failed, using caller address", "postal_code", zip, "error", err)
		}
		return services.PostalAddress{}, false
	}

	out := services.PostalAddress{
		ZipCode:      zip,
		Street:       addr.Street,
		Complement:   addr.Complement,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		State:        addr.State,
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, &cache.CachedAddress{
			ZipCode:      out.ZipCode,
			Street:       out.Street,
			Complement:   out.Complement,
			Neighborhood: out.Neighborhood,
			City:         out.City,
			State:        out.State,
		}); err != nil {
			r.log.WarnContext(ctx, "viacep: address cache write failed", "postal_code", zip, "error", err)
		}
	}
	return out, true
}
