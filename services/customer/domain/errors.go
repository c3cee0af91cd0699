package domain

import "github.com/ghuser/crm/pkg/result"

// Error codes for the customer domain. Codes ending in ".NotFound" are
// mapped to 404 by the HTTP boundary; everything else to 400.
const (
	CodeNotFound          = "Customer.NotFound"
	CodeDuplicateDocument = "Customer.DuplicateDocument"
	CodeDuplicateEmail    = "Customer.DuplicateEmail"
	CodeInvalid           = "Customer.Invalid"
	CodeIDMismatch        = "Customer.IdMismatch"
)

// Sentinel business errors for the customer domain. They are result.Error
// values, so errors.Is matches them even when wrapped.
var (
	// ErrCustomerNotFound: no non-deleted customer has the given id.
	ErrCustomerNotFound = result.NewError(CodeNotFound, "Customer not found")

	// ErrDuplicateDocument: an active customer already holds the document.
	ErrDuplicateDocument = result.NewError(CodeDuplicateDocument, "A customer with this document already exists")

	// ErrDuplicateEmail: an active customer already holds the email.
	ErrDuplicateEmail = result.NewError(CodeDuplicateEmail, "A customer with this email already exists")

	// ErrIDMismatch: the id in the request body differs from the URL id.
	ErrIDMismatch = result.NewError(CodeIDMismatch, "The id in the body does not match the id in the URL")
)

// Invalid builds a Customer.Invalid error for a violated domain rule.
func Invalid(message string) result.Error {
	return result.NewError(CodeInvalid, message)
}
