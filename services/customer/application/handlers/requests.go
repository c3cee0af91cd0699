package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pkgvalidator "github.com/ghuser/crm/pkg/validator"
	"github.com/ghuser/crm/services/customer/domain/models"
)

func init() {
	pkgvalidator.RegisterStructValidation(createCustomerRules, CreateCustomerRequest{})
}

// CreateCustomerRequest is the request body for POST /v1/customers.
type CreateCustomerRequest struct {
	Name                    string     `json:"name"                      validate:"required,max=200"    example:"Maria Silva"`
	Document                string     `json:"document"                  validate:"required,document"   example:"111.222.333-44"`
	CustomerType            int        `json:"customer_type"             validate:"required,oneof=1 2"  example:"1"`
	BirthDate               *time.Time `json:"birth_date,omitempty"      validate:"omitempty,adult"     example:"1990-03-10T00:00:00Z"`
	Phone                   string     `json:"phone"                     validate:"required,max=20"     example:"11999990000"`
	Email                   string     `json:"email"                     validate:"required,email"      example:"maria@example.com"`
	ZipCode                 string     `json:"zip_code"                  validate:"required,zipcode"    example:"01001-000"`
	Street                  string     `json:"street"                    validate:"required,max=200"    example:"Praça da Sé"`
	Number                  string     `json:"number"                    validate:"required,max=20"     example:"100"`
	Complement              string     `json:"complement,omitempty"      validate:"max=100"             example:"lado ímpar"`
	Neighborhood            string     `json:"neighborhood"              validate:"required,max=100"    example:"Sé"`
	City                    string     `json:"city"                      validate:"required,max=100"    example:"São Paulo"`
	State                   string     `json:"state"                     validate:"required,uf"         example:"SP"`
	StateRegistration       string     `json:"state_registration,omitempty" validate:"max=30"          example:"110.042.490.114"`
	StateRegistrationExempt bool       `json:"state_registration_exempt"                                example:"false"`
} // @name CreateCustomerRequest

// UpdateCustomerRequest is the request body for PUT /v1/customers/{id}.
// Document and customer type cannot change. ID is optional; when present it
// must match the URL.
type UpdateCustomerRequest struct {
	ID                      *uuid.UUID `json:"id,omitempty"                                              example:"123e4567-e89b-12d3-a456-426614174000"`
	Name                    string     `json:"name"                      validate:"required,max=200"    example:"Maria Silva"`
	Phone                   string     `json:"phone"                     validate:"required,max=20"     example:"11999990000"`
	Email                   string     `json:"email"                     validate:"required,email"      example:"maria@example.com"`
	ZipCode                 string     `json:"zip_code"                  validate:"required,zipcode"    example:"01001-000"`
	Street                  string     `json:"street"                    validate:"required,max=200"    example:"Praça da Sé"`
	Number                  string     `json:"number"                    validate:"required,max=20"     example:"100"`
	Complement              string     `json:"complement,omitempty"      validate:"max=100"             example:"lado ímpar"`
	Neighborhood            string     `json:"neighborhood"              validate:"required,max=100"    example:"Sé"`
	City                    string     `json:"city"                      validate:"required,max=100"    example:"São Paulo"`
	State                   string     `json:"state"                     validate:"required,uf"         example:"SP"`
	StateRegistration       string     `json:"state_registration,omitempty" validate:"max=30"          example:"110.042.490.114"`
	StateRegistrationExempt bool       `json:"state_registration_exempt"                                example:"false"`
} // @name UpdateCustomerRequest

// ErrorItem is one failure in an ErrorResponse.
type ErrorItem struct {
	Code    string `json:"code"    example:"Customer.DuplicateDocument"`
	Message string `json:"message" example:"A customer with this document already exists"`
} // @name ErrorItem

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error  string      `json:"error"  example:"A customer with this document already exists"`
	Errors []ErrorItem `json:"errors"`
} // @name ErrorResponse

// createCustomerRules: individuals give a birth date, companies a state
// registration unless exempt.
func createCustomerRules(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(CreateCustomerRequest)
	if !ok {
		return
	}
	switch models.CustomerType(req.CustomerType) {
	case models.CustomerTypeIndividual:
		if req.BirthDate == nil || req.BirthDate.IsZero() {
			sl.ReportError(req.BirthDate, "birth_date", "BirthDate", "required", "")
		}
	case models.CustomerTypeCompany:
		if req.StateRegistration == "" && !req.StateRegistrationExempt {
			sl.ReportError(req.StateRegistration, "state_registration", "StateRegistration", "required", "")
		}
	}
}

func (req *CreateCustomerRequest) address() models.Address {
	return models.Address{
		ZipCode:      req.ZipCode,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
	}
}

func (req *UpdateCustomerRequest) address() models.Address {
	return models.Address{
		ZipCode:      req.ZipCode,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
	}
}
