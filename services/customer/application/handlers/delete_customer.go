package handlers

import (
	"net/http"

	"github.com/ghuser/crm/pkg/logger"
	appsvcs "github.com/ghuser/crm/services/customer/application/services"
)

// DeleteCustomerHandler handles DELETE /v1/customers/{id} requests.
type DeleteCustomerHandler struct {
	base
}

// NewDeleteCustomerHandler returns a DeleteCustomerHandler backed by the given services.
func NewDeleteCustomerHandler(svcs *appsvcs.Services, log logger.Logger, isProduction bool) *DeleteCustomerHandler {
	return &DeleteCustomerHandler{base: newBase(svcs, log, isProduction)}
}

// Execute soft-deletes a customer.
//
//	@Summary		Delete customer
//	@Description	Soft-deletes an active customer and records CustomerDeleted; its history stays readable
//	@Tags			customers
//	@Produce		json
//	@Param			id	path	string	true	"Customer ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/v1/customers/{id} [delete]
func (h *DeleteCustomerHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Delete(r.Context(), id)
	write(w, r, h.base, res, err, http.StatusNoContent)
}
