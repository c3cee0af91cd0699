package handlers

import (
	"net/http"

	"github.com/ghuser/crm/pkg/errhttp"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/result"
	appsvcs "github.com/ghuser/crm/services/customer/application/services"
	"github.com/ghuser/crm/services/customer/domain/repositories"
)

// GetCustomerHandler handles GET /v1/customers/{id} requests.
type GetCustomerHandler struct {
	base
}

// NewGetCustomerHandler returns a GetCustomerHandler backed by the given services.
func NewGetCustomerHandler(svcs *appsvcs.Services, log logger.Logger, isProduction bool) *GetCustomerHandler {
	return &GetCustomerHandler{base: newBase(svcs, log, isProduction)}
}

// Execute returns one active customer.
//
//	@Summary		Get customer
//	@Tags			customers
//	@Produce		json
//	@Param			id	path		string	true	"Customer ID"	format(uuid)
//	@Success		200	{object}	CustomerView
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/v1/customers/{id} [get]
func (h *GetCustomerHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetByID(r.Context(), id)
	write(w, r, h.base, res, err, http.StatusOK)
}

// ListCustomersHandler handles GET /v1/customers requests.
type ListCustomersHandler struct {
	base
}

// NewListCustomersHandler returns a ListCustomersHandler backed by the given services.
func NewListCustomersHandler(svcs *appsvcs.Services, log logger.Logger, isProduction bool) *ListCustomersHandler {
	return &ListCustomersHandler{base: newBase(svcs, log, isProduction)}
}

// Execute returns a page of active customers, oldest first.
//
//	@Summary		List customers
//	@Tags			customers
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (default 50, max 200)"
//	@Param			offset	query		int	false	"Records to skip"
//	@Success		200		{object}	CustomerPage
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/v1/customers [get]
func (h *ListCustomersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var errs []result.Error
	limit, bad := queryInt(r, "limit", appsvcs.DefaultPageSize)
	if bad != nil {
		errs = append(errs, *bad)
	}
	offset, bad := queryInt(r, "offset", 0)
	if bad != nil {
		errs = append(errs, *bad)
	}
	if len(errs) > 0 {
		errhttp.WriteFailure(w, errs)
		return
	}

	res, err := h.svc.List(r.Context(), repositories.QueryOpts{Limit: limit, Offset: offset})
	write(w, r, h.base, res, err, http.StatusOK)
}

// GetCustomerEventsHandler handles GET /v1/customers/{id}/events requests.
type GetCustomerEventsHandler struct {
	base
}

// NewGetCustomerEventsHandler returns a GetCustomerEventsHandler backed by the given services.
func NewGetCustomerEventsHandler(svcs *appsvcs.Services, log logger.Logger, isProduction bool) *GetCustomerEventsHandler {
	return &GetCustomerEventsHandler{base: newBase(svcs, log, isProduction)}
}

// Execute returns the audit trail of a customer, oldest first. Deleted
// customers keep their history; unknown ids yield an empty list.
//
//	@Summary		Customer audit trail
//	@Tags			customers
//	@Produce		json
//	@Param			id	path		string	true	"Customer ID"	format(uuid)
//	@Success		200	{array}		EventView
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/v1/customers/{id}/events [get]
func (h *GetCustomerEventsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetEvents(r.Context(), id)
	write(w, r, h.base, res, err, http.StatusOK)
}
