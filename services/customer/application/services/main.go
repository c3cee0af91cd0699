package services

import (
	"fmt"

	"github.com/ghuser/crm/pkg/app"
	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/services/customer/domain/repositories"
	"github.com/ghuser/crm/services/customer/infrastructure/messaging"
	"github.com/ghuser/crm/services/customer/infrastructure/persistence/memory"
	"github.com/ghuser/crm/services/customer/infrastructure/persistence/postgres"
	"github.com/ghuser/crm/services/customer/infrastructure/viacep"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Customer *CustomerService
}

// New wires all customer application services with infrastructure from the
// Application container. The storage backend follows a.Config.StorageDriver.
func New(a *app.Application) (*Services, error) {
	cfg := a.Config

	var (
		customers repositories.CustomerRepository
		events    repositories.EventStore
		tx        repositories.Transactor
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		customers, events, tx = store, store, store
	case config.StoragePostgres:
		if a.Db == nil {
			return nil, fmt.Errorf("customer services: %s storage requires a database", cfg.StorageDriver)
		}
		customers = postgres.NewCustomerRepository(a.Db)
		events = postgres.NewEventStore(a.Db)
		tx = postgres.NewTransactor(a.Db)
	default:
		return nil, fmt.Errorf("customer services: unknown storage driver %q", cfg.StorageDriver)
	}

	var (
		customerCache *cache.CustomerCache
		addressCache  *cache.AddressCache
	)
	if a.Redis != nil {
		customerCache = cache.NewCustomerCache(a.Redis, cfg.CustomerCacheTTL)
		addressCache = cache.NewAddressCache(a.Redis, cfg.AddressCacheTTL)
	}

	client := viacep.NewClient(viacep.Config{
		BaseURL:    cfg.ViaCEPBaseURL,
		Timeout:    cfg.ViaCEPTimeout,
		MaxRetries: cfg.ViaCEPMaxRetries,
		BaseDelay:  cfg.ViaCEPRetryBaseDelay,
	}, a.Logger)

	deps := Deps{
		Customers:  customers,
		Events:     events,
		Transactor: tx,
		Resolver:   viacep.NewResolver(client, addressCache, a.Logger),
		Cache:      customerCache,
		Logger:     a.Logger,
	}
	if a.EventBus != nil {
		deps.Publisher = messaging.NewBusPublisher(a.EventBus)
	}

	return &Services{Customer: NewCustomerService(deps)}, nil
}
