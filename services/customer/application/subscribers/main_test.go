package subscribers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/events"
	"github.com/ghuser/crm/pkg/logger"
	domainevents "github.com/ghuser/crm/services/customer/domain/events"
)

func newCache(t *testing.T) (*miniredis.Miniredis, *cache.CustomerCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewCustomerCache(cache.WrapClient(rdb), time.Minute)
}

func changeMessage(t *testing.T, evt domainevents.CustomerChangedEvent) *message.Message {
	t.Helper()
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), raw)
}

func snapshot(id uuid.UUID, email string, updatedAt *time.Time) *domainevents.CustomerSnapshot {
	return &domainevents.CustomerSnapshot{
		ID:           id,
		Name:         "Alice",
		Document:     "11122233344",
		CustomerType: 1,
		Email:        email,
		CreatedBy:    "alice",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    updatedAt,
	}
}

func TestHandleCustomerChanged_WarmsAndEvicts(t *testing.T) {
	mr, cc := newCache(t)
	handle := HandleCustomerChanged(cc, logger.Discard())
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, handle(ctx, changeMessage(t, domainevents.CustomerChangedEvent{
		EventID: uuid.New(), CustomerID: id, EventType: "CustomerCreated", Customer: snapshot(id, "a@x.com", nil),
	})))
	got, err := cc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	require.NoError(t, handle(ctx, changeMessage(t, domainevents.CustomerChangedEvent{
		EventID: uuid.New(), CustomerID: id, EventType: "CustomerDeleted",
	})))
	assert.False(t, mr.Exists("customer:"+id.String()))
}

func TestHandleCustomerChanged_SkipsStaleUpdate(t *testing.T) {
	_, cc := newCache(t)
	handle := HandleCustomerChanged(cc, logger.Discard())
	ctx := context.Background()
	id := uuid.New()
	older := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, handle(ctx, changeMessage(t, domainevents.CustomerChangedEvent{
		CustomerID: id, EventType: "CustomerUpdated", Customer: snapshot(id, "new@x.com", &newer),
	})))
	require.NoError(t, handle(ctx, changeMessage(t, domainevents.CustomerChangedEvent{
		CustomerID: id, EventType: "CustomerUpdated", Customer: snapshot(id, "old@x.com", &older),
	})))

	got, err := cc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", got.Email)
}

func TestHandleCustomerChanged_PoisonMessageIsPermanent(t *testing.T) {
	_, cc := newCache(t)
	handle := HandleCustomerChanged(cc, logger.Discard())

	err := handle(context.Background(), message.NewMessage(watermill.NewUUID(), []byte("{")))
	require.Error(t, err)
	assert.True(t, events.IsPermanent(err), "undecodable payloads are not retried")
}

func TestHandleCustomerChanged_CacheDownFailsEviction(t *testing.T) {
	mr, cc := newCache(t)
	handle := HandleCustomerChanged(cc, logger.Discard())
	mr.Close()

	id := uuid.New()
	err := handle(context.Background(), changeMessage(t, domainevents.CustomerChangedEvent{CustomerID: id, EventType: "CustomerDeleted"}))
	assert.Error(t, err, "eviction failures are retried by the bus")

	err = handle(context.Background(), changeMessage(t, domainevents.CustomerChangedEvent{
		CustomerID: id, EventType: "CustomerCreated", Customer: snapshot(id, "a@x.com", nil),
	}))
	assert.NoError(t, err, "warming is best effort")
}

func TestRegister_InMemoryBus(t *testing.T) {
	mr, cc := newCache(t)
	bus := events.NewInMemoryEventBus(logger.Discard())
	defer bus.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Register(ctx, bus, cc, logger.Discard()))

	id := uuid.New()
	require.NoError(t, bus.Publish(ctx, domainevents.TopicCustomerCreated, changeMessage(t, domainevents.CustomerChangedEvent{
		CustomerID: id, EventType: "CustomerCreated", Customer: snapshot(id, "a@x.com", nil),
	})))

	assert.Eventually(t, func() bool { return mr.Exists("customer:" + id.String()) }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleCustomerChanged_LateWarmAfterDeleteIsRefused(t *testing.T) {
	mr, cc := newCache(t)
	handle := HandleCustomerChanged(cc, logger.Discard())
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, handle(ctx, changeMessage(t, domainevents.CustomerChangedEvent{
		EventID: uuid.New(), CustomerID: id, EventType: "CustomerDeleted",
	})))
	require.NoError(t, handle(ctx, changeMessage(t, domainevents.CustomerChangedEvent{
		EventID: uuid.New(), CustomerID: id, EventType: "CustomerCreated", Customer: snapshot(id, "a@x.com", nil),
	})))

	assert.False(t, mr.Exists("customer:"+id.String()), "deleted customer must not be re-cached")
	_, err := cc.Get(ctx, id)
	assert.True(t, cache.IsMiss(err))
}
