package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/crm/services/customer/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// CustomerRepository is the persistence interface for the Customer aggregate.
// The domain layer owns this interface; infrastructure implements it.
// Lookups ignore soft-deleted customers.
type CustomerRepository interface {
	// FindByID returns the active customer or ErrCustomerNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)

	// FindActiveByDocument returns the active customer holding the
	// normalized document, or (nil, nil) when there is none.
	FindActiveByDocument(ctx context.Context, document string) (*models.Customer, error)

	// FindActiveByEmail returns the active customer holding the normalized
	// email, or (nil, nil) when there is none.
	FindActiveByEmail(ctx context.Context, email string) (*models.Customer, error)

	// List retrieves a page of active customers ordered by creation time plus
	// the total count (ignoring pagination).
	List(ctx context.Context, opts QueryOpts) ([]*models.Customer, int, error)

	// Insert persists a new customer, stamping CreatedAt on c.
	// Returns ErrDuplicateDocument/ErrDuplicateEmail on unique violations.
	Insert(ctx context.Context, c *models.Customer) error

	// Update persists the mutable fields of c, stamping UpdatedAt on c.
	Update(ctx context.Context, c *models.Customer) error

	// SoftDelete persists DeletedAt/DeletedBy of c.
	SoftDelete(ctx context.Context, c *models.Customer) error
}
