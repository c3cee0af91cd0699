// Package memory is a process-local implementation of the customer
// repository, the event store and the transactor. It backs STORAGE_DRIVER=memory
// and the application-layer tests. Nothing survives a restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/crm/services/customer/domain"
	"github.com/ghuser/crm/services/customer/domain/models"
	"github.com/ghuser/crm/services/customer/domain/repositories"
)

// ErrEmptyEventType is returned by Append for an event without a type.
var ErrEmptyEventType = errors.New("memory: event type is required")

type txKey struct{}

// Store holds customers and their audit events.
//
// Writes are serialized: a WithinTx block holds the write lock for its whole
// duration, and a write outside any transaction behaves like a one-statement
// transaction. Calls inside fn must use the ctx passed to fn.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex

	customers map[uuid.UUID]*models.Customer
	order     []uuid.UUID // insertion order, for List
	events    []models.CustomerEvent
	lastAt    map[uuid.UUID]time.Time

	now func() time.Time
}

var (
	_ repositories.CustomerRepository = (*Store)(nil)
	_ repositories.EventStore         = (*Store)(nil)
	_ repositories.Transactor         = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps assigned by the store.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		customers: make(map[uuid.UUID]*models.Customer),
		lastAt:    make(map[uuid.UUID]time.Time),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type snapshot struct {
	customers map[uuid.UUID]*models.Customer
	order     []uuid.UUID
	events    int
	lastAt    map[uuid.UUID]time.Time
}

// WithinTx runs fn with exclusive write access. If fn fails (or panics) every
// change it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn under the data lock, taking the write lock first unless ctx
// already belongs to a WithinTx block.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx(ctx) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		customers: make(map[uuid.UUID]*models.Customer, len(s.customers)),
		order:     append([]uuid.UUID(nil), s.order...),
		events:    len(s.events),
		lastAt:    make(map[uuid.UUID]time.Time, len(s.lastAt)),
	}
	for id, c := range s.customers {
		snap.customers[id] = c.Clone()
	}
	for id, t := range s.lastAt {
		snap.lastAt[id] = t
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = snap.customers
	s.order = snap.order
	s.events = s.events[:snap.events]
	s.lastAt = snap.lastAt
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// FindByID implements repositories.CustomerRepository.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok || c.IsDeleted() {
		return nil, domain.ErrCustomerNotFound
	}
	return c.Clone(), nil
}

// FindActiveByDocument implements repositories.CustomerRepository.
func (s *Store) FindActiveByDocument(ctx context.Context, document string) (*models.Customer, error) {
	return s.findActive(ctx, func(c *models.Customer) bool { return c.Document == document })
}

// FindActiveByEmail implements repositories.CustomerRepository.
func (s *Store) FindActiveByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return s.findActive(ctx, func(c *models.Customer) bool { return c.Email == email })
}

func (s *Store) findActive(ctx context.Context, match func(*models.Customer) bool) (*models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c := s.activeWhere(match, uuid.Nil); c != nil {
		return c.Clone(), nil
	}
	return nil, nil
}

// activeWhere returns the first active customer other than except matching
// match. Callers hold mu.
func (s *Store) activeWhere(match func(*models.Customer) bool, except uuid.UUID) *models.Customer {
	for _, id := range s.order {
		c := s.customers[id]
		if id != except && !c.IsDeleted() && match(c) {
			return c
		}
	}
	return nil
}

// List implements repositories.CustomerRepository.
func (s *Store) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Customer, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*models.Customer, 0, len(s.order))
	for _, id := range s.order {
		if c := s.customers[id]; !c.IsDeleted() {
			active = append(active, c)
		}
	}
	total := len(active)

	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}

	page := make([]*models.Customer, 0, end-start)
	for _, c := range active[start:end] {
		page = append(page, c.Clone())
	}
	return page, total, nil
}

// Insert implements repositories.CustomerRepository.
func (s *Store) Insert(ctx context.Context, c *models.Customer) error {
	return s.write(ctx, func() error {
		if _, exists := s.customers[c.ID]; exists {
			return fmt.Errorf("memory: customer %s already exists", c.ID)
		}
		if err := s.checkUnique(c); err != nil {
			return err
		}
		c.CreatedAt = s.stamp()
		s.customers[c.ID] = c.Clone()
		s.order = append(s.order, c.ID)
		return nil
	})
}

// Update implements repositories.CustomerRepository.
func (s *Store) Update(ctx context.Context, c *models.Customer) error {
	return s.write(ctx, func() error {
		cur, ok := s.customers[c.ID]
		if !ok || cur.IsDeleted() {
			return domain.ErrCustomerNotFound
		}
		if err := s.checkUnique(c); err != nil {
			return err
		}
		at := s.stamp()
		c.UpdatedAt = &at
		s.customers[c.ID] = c.Clone()
		return nil
	})
}

// SoftDelete implements repositories.CustomerRepository.
func (s *Store) SoftDelete(ctx context.Context, c *models.Customer) error {
	return s.write(ctx, func() error {
		cur, ok := s.customers[c.ID]
		if !ok || cur.IsDeleted() {
			return domain.ErrCustomerNotFound
		}
		if c.DeletedAt == nil {
			c.MarkDeleted(c.DeletedBy, s.stamp())
		}
		cur.DeletedAt = c.DeletedAt
		cur.DeletedBy = c.DeletedBy
		return nil
	})
}

// checkUnique mirrors the partial unique indexes on active document and
// email. Callers hold mu.
func (s *Store) checkUnique(c *models.Customer) error {
	if s.activeWhere(func(o *models.Customer) bool { return o.Document == c.Document }, c.ID) != nil {
		return domain.ErrDuplicateDocument
	}
	if s.activeWhere(func(o *models.Customer) bool { return o.Email == c.Email }, c.ID) != nil {
		return domain.ErrDuplicateEmail
	}
	return nil
}

// Append implements repositories.EventStore.
func (s *Store) Append(ctx context.Context, evt models.CustomerEvent) (models.CustomerEvent, error) {
	if evt.Type == "" {
		return models.CustomerEvent{}, ErrEmptyEventType
	}

	stored := evt.Clone()
	err := s.write(ctx, func() error {
		at := s.stamp()
		if last, ok := s.lastAt[evt.CustomerID]; ok && last.After(at) {
			at = last
		}
		stored.ID = uuid.New()
		stored.OccurredAt = at
		s.events = append(s.events, stored)
		s.lastAt[evt.CustomerID] = at
		return nil
	})
	if err != nil {
		return models.CustomerEvent{}, err
	}
	return stored.Clone(), nil
}

// GetBySubject implements repositories.EventStore.
func (s *Store) GetBySubject(ctx context.Context, customerID uuid.UUID) ([]models.CustomerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CustomerEvent, 0)
	for _, e := range s.events {
		if e.CustomerID == customerID {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}
