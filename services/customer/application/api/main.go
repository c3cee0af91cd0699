package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/crm/pkg/app"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/services/customer/application/handlers"
	appsvcs "github.com/ghuser/crm/services/customer/application/services"
)

// CustomerRoutes registers customer endpoints on the provided chi router.
func CustomerRoutes(r chi.Router, a *app.Application) error {
	svcs, err := appsvcs.New(a)
	if err != nil {
		return err
	}
	Mount(r, svcs, a)
	return nil
}

// Mount registers the customer endpoints backed by svcs.
func Mount(r chi.Router, svcs *appsvcs.Services, a *app.Application) {
	prod := a.Config.Environment == config.EnvProduction
	r.Group(func(r chi.Router) {
		r.Route("/v1/customers", func(r chi.Router) {
			r.Get("/", handlers.NewListCustomersHandler(svcs, a.Logger, prod).Execute)
			r.Post("/", handlers.NewPostCustomerHandler(svcs, a.Logger, prod).Execute)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handlers.NewGetCustomerHandler(svcs, a.Logger, prod).Execute)
				r.Put("/", handlers.NewPutCustomerHandler(svcs, a.Logger, prod).Execute)
				r.Delete("/", handlers.NewDeleteCustomerHandler(svcs, a.Logger, prod).Execute)
				r.Get("/events", handlers.NewGetCustomerEventsHandler(svcs, a.Logger, prod).Execute)
			})
		})
	})
}
