package handlers

import (
	"net/http"

	"github.com/ghuser/crm/pkg/errhttp"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/result"
	pkgvalidator "github.com/ghuser/crm/pkg/validator"
	appsvcs "github.com/ghuser/crm/services/customer/application/services"
	customerdomain "github.com/ghuser/crm/services/customer/domain"
)

// PutCustomerHandler handles PUT /v1/customers/{id} requests.
type PutCustomerHandler struct {
	base
}

// NewPutCustomerHandler returns a PutCustomerHandler backed by the given services.
func NewPutCustomerHandler(svcs *appsvcs.Services, log logger.Logger, isProduction bool) *PutCustomerHandler {
	return &PutCustomerHandler{base: newBase(svcs, log, isProduction)}
}

// Execute updates the mutable fields of a customer.
//
//	@Summary		Update customer
//	@Description	Replaces the mutable fields of an active customer and records CustomerUpdated
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Customer ID"	format(uuid)
//	@Param			request	body		UpdateCustomerRequest	true	"Customer update request"
//	@Success		200		{object}	CustomerView
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/v1/customers/{id} [put]
func (h *PutCustomerHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateCustomerRequest](w, r)
	if !ok {
		return
	}
	if req.ID != nil && *req.ID != id {
		errhttp.WriteFailure(w, []result.Error{customerdomain.ErrIDMismatch})
		return
	}

	res, err := h.svc.Update(r.Context(), appsvcs.UpdateCustomerCommand{
		ID:                      id,
		Name:                    req.Name,
		Phone:                   req.Phone,
		Email:                   req.Email,
		Address:                 req.address(),
		StateRegistration:       req.StateRegistration,
		StateRegistrationExempt: req.StateRegistrationExempt,
	})
	write(w, r, h.base, res, err, http.StatusOK)
}
