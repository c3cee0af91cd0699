package handlers

import (
	"net/http"

	"github.com/ghuser/crm/pkg/logger"
	pkgvalidator "github.com/ghuser/crm/pkg/validator"
	appsvcs "github.com/ghuser/crm/services/customer/application/services"
	"github.com/ghuser/crm/services/customer/domain/models"
)

// PostCustomerHandler handles POST /v1/customers requests.
type PostCustomerHandler struct {
	base
}

// NewPostCustomerHandler returns a PostCustomerHandler backed by the given services.
func NewPostCustomerHandler(svcs *appsvcs.Services, log logger.Logger, isProduction bool) *PostCustomerHandler {
	return &PostCustomerHandler{base: newBase(svcs, log, isProduction)}
}

// Execute registers a new customer.
//
//	@Summary		Create customer
//	@Description	Registers a customer, enriching the address from its postal code, and records CustomerCreated
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateCustomerRequest	true	"Customer creation request"
//	@Success		201		{object}	CustomerView
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/v1/customers [post]
func (h *PostCustomerHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateCustomerRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Create(r.Context(), appsvcs.CreateCustomerCommand{
		Name:                    req.Name,
		Document:                req.Document,
		Type:                    models.CustomerType(req.CustomerType),
		BirthDate:               req.BirthDate,
		Phone:                   req.Phone,
		Email:                   req.Email,
		Address:                 req.address(),
		StateRegistration:       req.StateRegistration,
		StateRegistrationExempt: req.StateRegistrationExempt,
	})
	write(w, r, h.base, res, err, http.StatusCreated)
}
