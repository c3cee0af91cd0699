package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/crm/pkg/auth"
	pkgcache "github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/result"
	customerdomain "github.com/ghuser/crm/services/customer/domain"
	"github.com/ghuser/crm/services/customer/domain/models"
	"github.com/ghuser/crm/services/customer/domain/repositories"
	domainsvcs "github.com/ghuser/crm/services/customer/domain/services"
)

// Pagination bounds for List.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Deps are the collaborators of a CustomerService. Publisher, Resolver and
// Cache are optional.
type Deps struct {
	Customers  repositories.CustomerRepository
	Events     repositories.EventStore
	Transactor repositories.Transactor
	Publisher  repositories.ChangePublisher
	Resolver   domainsvcs.AddressResolver
	Cache      *pkgcache.CustomerCache
	Logger     logger.Logger
	Meter      metric.Meter // defaults to the global meter provider
	Now        func() time.Time
}

// CustomerService is the aggregate service of the customer context. Every
// mutation writes the customer, appends exactly one audit event and
// publishes the change in a single unit of work.
//
// Operations return a result.Result for business outcomes; the error return
// is reserved for faults (storage down, cancelled context).
type CustomerService struct {
	customers repositories.CustomerRepository
	events    repositories.EventStore
	tx        repositories.Transactor
	publisher repositories.ChangePublisher
	resolver  domainsvcs.AddressResolver
	cache     *pkgcache.CustomerCache
	log       logger.Logger
	metrics   *serviceMetrics
	now       func() time.Time
}

// NewCustomerService returns a CustomerService wired with d.
func NewCustomerService(d Deps) *CustomerService {
	meter := d.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := d.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &CustomerService{
		customers: d.Customers,
		events:    d.Events,
		tx:        d.Transactor,
		publisher: d.Publisher,
		resolver:  d.Resolver,
		cache:     d.Cache,
		log:       log,
		metrics:   newServiceMetrics(meter),
		now:       now,
	}
}

// Create registers a new customer and appends CustomerCreated.
func (s *CustomerService) Create(ctx context.Context, cmd CreateCustomerCommand) (result.Result[CustomerView], error) {
	ctx, span := tracer().Start(ctx, "CustomerService.Create")
	defer span.End()

	actor := auth.ActorFromCtx(ctx)
	c := models.NewCustomer(models.NewCustomerParams{
		Name:                    cmd.Name,
		Document:                cmd.Document,
		Type:                    cmd.Type,
		BirthDate:               cmd.BirthDate,
		Phone:                   cmd.Phone,
		Email:                   cmd.Email,
		Address:                 cmd.Address,
		StateRegistration:       cmd.StateRegistration,
		StateRegistrationExempt: cmd.StateRegistrationExempt,
	}, actor)
	span.SetAttributes(attribute.String("customer.id", c.ID.String()))

	if holder, err := s.customers.FindActiveByDocument(ctx, c.Document); err != nil {
		return s.fault(span, fmt.Errorf("check document: %w", err))
	} else if holder != nil {
		s.log.InfoContext(ctx, "duplicate document rejected", "document", c.Document, "holder_id", holder.ID)
		return rejectView(ctx, s.metrics, customerdomain.ErrDuplicateDocument), nil
	}
	if holder, err := s.customers.FindActiveByEmail(ctx, c.Email); err != nil {
		return s.fault(span, fmt.Errorf("check email: %w", err))
	} else if holder != nil {
		s.log.InfoContext(ctx, "duplicate email rejected", "email", c.Email, "holder_id", holder.ID)
		return rejectView(ctx, s.metrics, customerdomain.ErrDuplicateEmail), nil
	}

	c.Address = s.enrich(ctx, c.Address)

	if errs := domainsvcs.ValidateCustomer(c, s.now()); len(errs) > 0 {
		return rejectView(ctx, s.metrics, errs...), nil
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.customers.Insert(ctx, c); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		return s.record(ctx, c.ID, c, models.EventCustomerCreated, models.SnapshotOf(c), actor)
	})
	if err != nil {
		return s.failOrFault(ctx, span, err)
	}

	s.metrics.appended(ctx, string(models.EventCustomerCreated))
	s.log.InfoContext(ctx, "customer created", "customer_id", c.ID, "actor", actor)
	return result.Success(ViewOf(c)), nil
}

// Update changes the mutable fields of an active customer and appends
// CustomerUpdated with the post-update state.
func (s *CustomerService) Update(ctx context.Context, cmd UpdateCustomerCommand) (result.Result[CustomerView], error) {
	ctx, span := tracer().Start(ctx, "CustomerService.Update",
		trace.WithAttributes(attribute.String("customer.id", cmd.ID.String())))
	defer span.End()

	actor := auth.ActorFromCtx(ctx)

	c, err := s.customers.FindByID(ctx, cmd.ID)
	if err != nil {
		return s.failOrFault(ctx, span, err)
	}

	email := models.NormalizeEmail(cmd.Email)
	if email != c.Email {
		holder, err := s.customers.FindActiveByEmail(ctx, email)
		if err != nil {
			return s.fault(span, fmt.Errorf("check email: %w", err))
		}
		if holder != nil && holder.ID != c.ID {
			return rejectView(ctx, s.metrics, customerdomain.ErrDuplicateEmail), nil
		}
	}

	c.ApplyChanges(models.CustomerChanges{
		Name:                    cmd.Name,
		Phone:                   cmd.Phone,
		Email:                   email,
		Address:                 cmd.Address,
		StateRegistration:       cmd.StateRegistration,
		StateRegistrationExempt: cmd.StateRegistrationExempt,
	}, actor)
	c.Address = s.enrich(ctx, c.Address)

	if errs := domainsvcs.ValidateCustomer(c, s.now()); len(errs) > 0 {
		return rejectView(ctx, s.metrics, errs...), nil
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.customers.Update(ctx, c); err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		return s.record(ctx, c.ID, c, models.EventCustomerUpdated, models.SnapshotOf(c), actor)
	})
	if err != nil {
		return s.failOrFault(ctx, span, err)
	}

	s.metrics.appended(ctx, string(models.EventCustomerUpdated))
	s.evict(ctx, c.ID)
	s.log.InfoContext(ctx, "customer updated", "customer_id", c.ID, "actor", actor)
	return result.Success(ViewOf(c)), nil
}

// Delete soft-deletes an active customer and appends CustomerDeleted.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) (result.Result[result.Unit], error) {
	ctx, span := tracer().Start(ctx, "CustomerService.Delete",
		trace.WithAttributes(attribute.String("customer.id", id.String())))
	defer span.End()

	actor := auth.ActorFromCtx(ctx)

	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return failOrFault[result.Unit](ctx, s, span, err)
	}

	c.MarkDeleted(actor, s.now())
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.customers.SoftDelete(ctx, c); err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return s.record(ctx, c.ID, nil, models.EventCustomerDeleted, models.DeletedMarker{ID: c.ID, DeletedBy: actor}, actor)
	})
	if err != nil {
		return failOrFault[result.Unit](ctx, s, span, err)
	}

	s.metrics.appended(ctx, string(models.EventCustomerDeleted))
	s.tombstone(ctx, c.ID)
	s.log.InfoContext(ctx, "customer deleted", "customer_id", c.ID, "actor", actor)
	return result.Success(result.Unit{}), nil
}

// GetByID returns an active customer, reading through the cache when one is
// configured.
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (result.Result[CustomerView], error) {
	ctx, span := tracer().Start(ctx, "CustomerService.GetByID",
		trace.WithAttributes(attribute.String("customer.id", id.String())))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return result.Success(viewOfCached(cached)), nil
		}
		if !pkgcache.IsMiss(err) {
			s.log.WarnContext(ctx, "customer cache read failed", "customer_id", id, "error", err)
		}
	}

	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return s.failOrFault(ctx, span, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, CachedOf(c)); err != nil && !errors.Is(err, pkgcache.ErrCustomerDeleted) {
			s.log.WarnContext(ctx, "customer cache write failed", "customer_id", id, "error", err)
		}
	}
	return result.Success(ViewOf(c)), nil
}

// List returns a page of active customers. A non-positive limit means
// DefaultPageSize; limits above MaxPageSize are clamped.
func (s *CustomerService) List(ctx context.Context, opts repositories.QueryOpts) (result.Result[CustomerPage], error) {
	ctx, span := tracer().Start(ctx, "CustomerService.List")
	defer span.End()

	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	opts.Limit = min(opts.Limit, MaxPageSize)
	opts.Offset = max(opts.Offset, 0)

	customers, total, err := s.customers.List(ctx, opts)
	if err != nil {
		return failOrFault[CustomerPage](ctx, s, span, fmt.Errorf("list customers: %w", err))
	}

	items := make([]CustomerView, len(customers))
	for i, c := range customers {
		items[i] = ViewOf(c)
	}
	return result.Success(CustomerPage{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}), nil
}

// GetEvents returns the audit trail of a customer, oldest first. Unknown and
// deleted customers are not an error: the former have no events, the latter
// keep theirs.
func (s *CustomerService) GetEvents(ctx context.Context, customerID uuid.UUID) (result.Result[[]EventView], error) {
	ctx, span := tracer().Start(ctx, "CustomerService.GetEvents",
		trace.WithAttributes(attribute.String("customer.id", customerID.String())))
	defer span.End()

	evts, err := s.events.GetBySubject(ctx, customerID)
	if err != nil {
		return failOrFault[[]EventView](ctx, s, span, fmt.Errorf("get customer events: %w", err))
	}

	views := make([]EventView, len(evts))
	for i, e := range evts {
		views[i] = eventViewOf(e)
	}
	return result.Success(views), nil
}

// record appends the audit event for a write and publishes it with the
// customer state to announce (nil for deletions).
func (s *CustomerService) record(ctx context.Context, customerID uuid.UUID, c *models.Customer, typ models.EventType, payload any, actor string) error {
	evt, err := models.NewCustomerEvent(customerID, typ, payload, actor)
	if err != nil {
		return err
	}
	stored, err := s.events.Append(ctx, evt)
	if err != nil {
		return fmt.Errorf("append %s: %w", typ, err)
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishChange(ctx, stored, c); err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}
	return nil
}

// enrich overlays the postal lookup on addr. Lookup problems never fail the
// caller; they only leave addr as supplied.
func (s *CustomerService) enrich(ctx context.Context, addr models.Address) models.Address {
	if s.resolver == nil {
		return addr
	}
	resolved, ok := s.resolver.ResolveAddress(ctx, addr.ZipCode)
	if ok {
		s.metrics.enriched(ctx, enrichmentResolved)
	} else {
		s.metrics.enriched(ctx, enrichmentFallback)
	}
	return domainsvcs.MergeAddress(addr, resolved, ok)
}

func (s *CustomerService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.WarnContext(ctx, "customer cache eviction failed", "customer_id", id, "error", err)
	}
}

func (s *CustomerService) tombstone(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkDeleted(ctx, id); err != nil {
		s.log.WarnContext(ctx, "customer cache tombstone failed", "customer_id", id, "error", err)
	}
}

func (s *CustomerService) fault(span trace.Span, err error) (result.Result[CustomerView], error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return result.Result[CustomerView]{}, err
}

func (s *CustomerService) failOrFault(ctx context.Context, span trace.Span, err error) (result.Result[CustomerView], error) {
	return failOrFault[CustomerView](ctx, s, span, err)
}

// failOrFault turns a business error anywhere in err's chain into a Failure
// and anything else into a fault.
func failOrFault[T any](ctx context.Context, s *CustomerService, span trace.Span, err error) (result.Result[T], error) {
	var be result.Error
	if errors.As(err, &be) {
		return reject[T](ctx, s.metrics, be), nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return result.Result[T]{}, err
}

func reject[T any](ctx context.Context, m *serviceMetrics, errs ...result.Error) result.Result[T] {
	for _, e := range errs {
		m.reject(ctx, e.Code)
	}
	return result.Failure[T](errs...)
}

func rejectView(ctx context.Context, m *serviceMetrics, errs ...result.Error) result.Result[CustomerView] {
	return reject[CustomerView](ctx, m, errs...)
}
