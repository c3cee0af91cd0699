package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/crm/pkg/database"
	customerdomain "github.com/ghuser/crm/services/customer/domain"
	"github.com/ghuser/crm/services/customer/domain/models"
	"github.com/ghuser/crm/services/customer/domain/repositories"
)

const (
	uniqueViolation = "23505"

	documentActiveKey = "customers_document_active_key"
	emailActiveKey    = "customers_email_active_key"
)

const customerColumns = `id, name, document, customer_type, birth_date, phone, email,
	zip_code, street, number, complement, neighborhood, city, state,
	state_registration, state_registration_exempt,
	created_by, created_at, updated_by, updated_at, deleted_by, deleted_at`

const (
	findCustomerByIDSQL = `SELECT ` + customerColumns + `
	FROM customers WHERE id = $1 AND deleted_at IS NULL`

	findCustomerByDocumentSQL = `SELECT ` + customerColumns + `
	FROM customers WHERE document = $1 AND deleted_at IS NULL`

	findCustomerByEmailSQL = `SELECT ` + customerColumns + `
	FROM customers WHERE email = $1 AND deleted_at IS NULL`

	listCustomersSQL = `SELECT ` + customerColumns + `
	FROM customers WHERE deleted_at IS NULL
	ORDER BY created_at, id LIMIT $1 OFFSET $2`

	countCustomersSQL = `SELECT COUNT(*) FROM customers WHERE deleted_at IS NULL`

	insertCustomerSQL = `INSERT INTO customers (` + customerColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, NULL, NULL, NULL, NULL)`

	updateCustomerSQL = `UPDATE customers SET
		name = $2, phone = $3, email = $4,
		zip_code = $5, street = $6, number = $7, complement = $8,
		neighborhood = $9, city = $10, state = $11,
		state_registration = $12, state_registration_exempt = $13,
		updated_by = $14, updated_at = $15
	WHERE id = $1 AND deleted_at IS NULL`

	softDeleteCustomerSQL = `UPDATE customers SET deleted_by = $2, deleted_at = $3
	WHERE id = $1 AND deleted_at IS NULL`
)

// CustomerRepository implements repositories.CustomerRepository against
// PostgreSQL. Every call joins the transaction carried by ctx, if any.
type CustomerRepository struct {
	db  *database.Database
	now func() time.Time
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository returns a CustomerRepository backed by the given pool.
func NewCustomerRepository(db *database.Database) *CustomerRepository {
	return &CustomerRepository{db: db, now: time.Now}
}

// FindByID returns the active customer with id or ErrCustomerNotFound.
func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := scanCustomer(r.db.Executor(ctx).QueryRowContext(ctx, findCustomerByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customerdomain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

// FindActiveByDocument returns the active holder of document, or nil.
func (r *CustomerRepository) FindActiveByDocument(ctx context.Context, document string) (*models.Customer, error) {
	return r.findOne(ctx, findCustomerByDocumentSQL, document)
}

// FindActiveByEmail returns the active holder of email, or nil.
func (r *CustomerRepository) FindActiveByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.findOne(ctx, findCustomerByEmailSQL, email)
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg any) (*models.Customer, error) {
	c, err := scanCustomer(r.db.Executor(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

// List retrieves a page of active customers and their total count.
func (r *CustomerRepository) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Customer, int, error) {
	exec := r.db.Executor(ctx)

	rows, err := exec.QueryContext(ctx, listCustomersSQL, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0, opts.Limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}

	var total int
	if err := exec.QueryRowContext(ctx, countCustomersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

// Insert persists a new customer and stamps c.CreatedAt.
// Returns ErrDuplicateDocument or ErrDuplicateEmail on unique violations.
func (r *CustomerRepository) Insert(ctx context.Context, c *models.Customer) error {
	createdAt := r.stamp()
	_, err := r.db.Executor(ctx).ExecContext(ctx, insertCustomerSQL,
		c.ID, c.Name, c.Document, int16(c.Type), c.BirthDate, c.Phone, c.Email,
		c.Address.ZipCode, c.Address.Street, c.Address.Number, c.Address.Complement,
		c.Address.Neighborhood, c.Address.City, c.Address.State,
		c.StateRegistration, c.StateRegistrationExempt,
		c.CreatedBy, createdAt,
	)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	c.CreatedAt = createdAt
	return nil
}

// Update persists the mutable fields of c and stamps c.UpdatedAt.
func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	updatedAt := r.stamp()
	res, err := r.db.Executor(ctx).ExecContext(ctx, updateCustomerSQL,
		c.ID, c.Name, c.Phone, c.Email,
		c.Address.ZipCode, c.Address.Street, c.Address.Number, c.Address.Complement,
		c.Address.Neighborhood, c.Address.City, c.Address.State,
		c.StateRegistration, c.StateRegistrationExempt,
		c.UpdatedBy, updatedAt,
	)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	c.UpdatedAt = &updatedAt
	return nil
}

// SoftDelete persists c.DeletedBy and c.DeletedAt, stamping the latter when
// the caller left it unset.
func (r *CustomerRepository) SoftDelete(ctx context.Context, c *models.Customer) error {
	if c.DeletedAt == nil {
		c.MarkDeleted(c.DeletedBy, r.stamp())
	}
	res, err := r.db.Executor(ctx).ExecContext(ctx, softDeleteCustomerSQL, c.ID, c.DeletedBy, *c.DeletedAt)
	if err != nil {
		return fmt.Errorf("soft delete customer: %w", err)
	}
	return expectOneRow(res)
}

func (r *CustomerRepository) stamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return customerdomain.ErrCustomerNotFound
	}
	return nil
}

// duplicateError maps a unique violation on the active-customer indexes to
// its business error. Other errors yield nil.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case documentActiveKey:
		return customerdomain.ErrDuplicateDocument
	case emailActiveKey:
		return customerdomain.ErrDuplicateEmail
	default:
		return nil
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c            models.Customer
		customerType int16
		birthDate    sql.NullTime
		updatedBy    sql.NullString
		updatedAt    sql.NullTime
		deletedBy    sql.NullString
		deletedAt    sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Document, &customerType, &birthDate, &c.Phone, &c.Email,
		&c.Address.ZipCode, &c.Address.Street, &c.Address.Number, &c.Address.Complement,
		&c.Address.Neighborhood, &c.Address.City, &c.Address.State,
		&c.StateRegistration, &c.StateRegistrationExempt,
		&c.CreatedBy, &c.CreatedAt, &updatedBy, &updatedAt, &deletedBy, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = models.CustomerType(customerType)
	c.CreatedAt = c.CreatedAt.UTC()
	c.BirthDate = timePtr(birthDate)
	c.UpdatedBy = updatedBy.String
	c.UpdatedAt = timePtr(updatedAt)
	c.DeletedBy = deletedBy.String
	c.DeletedAt = timePtr(deletedAt)
	return &c, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
