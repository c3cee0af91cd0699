package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ghuser/crm/migrations"
	"github.com/ghuser/crm/pkg/database"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/migrator"
	customerdomain "github.com/ghuser/crm/services/customer/domain"
	"github.com/ghuser/crm/services/customer/domain/models"
)

// startPostgres runs a throwaway Postgres with the customer migrations
// applied. Set CRM_INTEGRATION=1 to enable; it needs a Docker daemon.
func startPostgres(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() || os.Getenv("CRM_INTEGRATION") == "" {
		t.Skip("set CRM_INTEGRATION=1 to run Postgres integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "docker.io/postgres:16-alpine",
		tcpostgres.WithDatabase("crm"),
		tcpostgres.WithUsername("crm"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migrator.RunMigrations(ctx, dsn, migrations.Customer()))

	db, err := database.NewPool(ctx, dsn, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestIntegration_AtomicWriteAndOrdering(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	repo := NewCustomerRepository(db)
	store := NewEventStore(db)
	tx := NewTransactor(db)

	c := sampleCustomer()
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repo.Insert(ctx, c); err != nil {
			return err
		}
		for _, typ := range []models.EventType{models.EventCustomerCreated, models.EventCustomerUpdated} {
			if _, err := store.Append(ctx, models.CustomerEvent{
				CustomerID: c.ID, Type: typ, Payload: []byte(`{}`), OccurredBy: "alice",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	// The clock steps back; the stored time must not.
	store.now = func() time.Time { return time.Now().Add(-time.Hour) }
	last, err := store.Append(ctx, models.CustomerEvent{
		CustomerID: c.ID, Type: models.EventCustomerDeleted, Payload: []byte(`{}`), OccurredBy: "bob",
	})
	require.NoError(t, err)

	got, err := store.GetBySubject(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.EventCustomerCreated, got[0].Type)
	assert.Equal(t, models.EventCustomerUpdated, got[1].Type)
	assert.Equal(t, last.ID, got[2].ID)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].OccurredAt.Before(got[i-1].OccurredAt))
	}
}

func TestIntegration_RollbackLeavesNoTrace(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	repo := NewCustomerRepository(db)
	store := NewEventStore(db)
	tx := NewTransactor(db)
	boom := errors.New("boom")

	c := sampleCustomer()
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Insert(ctx, c))
		_, err := store.Append(ctx, models.CustomerEvent{
			CustomerID: c.ID, Type: models.EventCustomerCreated, Payload: []byte(`{}`), OccurredBy: "alice",
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, customerdomain.ErrCustomerNotFound)
	evts, err := store.GetBySubject(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, evts)
}

func TestIntegration_PartialUniqueIndexes(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	repo := NewCustomerRepository(db)

	first := sampleCustomer()
	require.NoError(t, repo.Insert(ctx, first))

	dupDoc := sampleCustomer()
	dupDoc.Email = "other@x.com"
	assert.ErrorIs(t, repo.Insert(ctx, dupDoc), customerdomain.ErrDuplicateDocument)

	dupEmail := sampleCustomer()
	dupEmail.Document = "99988877766"
	assert.ErrorIs(t, repo.Insert(ctx, dupEmail), customerdomain.ErrDuplicateEmail)

	first.MarkDeleted("bob", time.Now())
	require.NoError(t, repo.SoftDelete(ctx, first))
	require.NoError(t, repo.Insert(ctx, sampleCustomer()), "soft delete frees document and email")
}

func TestIntegration_EventsAreImmutable(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	store := NewEventStore(db)

	evt, err := store.Append(ctx, models.CustomerEvent{
		CustomerID: uuid.New(), Type: models.EventCustomerCreated, Payload: []byte(`{}`), OccurredBy: "alice",
	})
	require.NoError(t, err)

	_, err = db.DB().ExecContext(ctx, `UPDATE customer_events SET occurred_by = 'mallory' WHERE id = $1`, evt.ID)
	assert.Error(t, err)
	_, err = db.DB().ExecContext(ctx, `DELETE FROM customer_events WHERE id = $1`, evt.ID)
	assert.Error(t, err)
}
