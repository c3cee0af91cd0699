package viacep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/logger"
)

type stubLooker struct {
	addr  *Address
	err   error
	calls int
	codes []string
}

func (s *stubLooker) Lookup(_ context.Context, code string) (*Address, error) {
	s.calls++
	s.codes = append(s.codes, code)
	return s.addr, s.err
}

func newAddressCache(t *testing.T) (*miniredis.Miniredis, *cache.AddressCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewAddressCache(cache.WrapClient(rdb), time.Hour)
}

func TestResolveAddress_NormalizesAndResolves(t *testing.T) {
	looker := &stubLooker{addr: &Address{Street: "Praça da Sé", Neighborhood: "Sé", City: "São Paulo", State: "SP"}}
	r := NewResolver(looker, nil, logger.Discard())

	addr, ok := r.ResolveAddress(context.Background(), "01001-000")
	require.True(t, ok)
	assert.Equal(t, []string{"01001000"}, looker.codes)
	assert.Equal(t, "01001000", addr.ZipCode)
	assert.Equal(t, "São Paulo", addr.City)
}

func TestResolveAddress_InvalidCodeSkipsLookup(t *testing.T) {
	looker := &stubLooker{}
	r := NewResolver(looker, nil, logger.Discard())

	_, ok := r.ResolveAddress(context.Background(), "123")
	assert.False(t, ok)
	assert.Zero(t, looker.calls)
}

func TestResolveAddress_FailuresAreAbsorbed(t *testing.T) {
	for _, err := range []error{ErrNotFound, errors.New("dial tcp: timeout")} {
		r := NewResolver(&stubLooker{err: err}, nil, logger.Discard())
		addr, ok := r.ResolveAddress(context.Background(), "01001000")
		assert.False(t, ok)
		assert.Zero(t, addr)
	}
}

func TestResolveAddress_ReadsThroughCache(t *testing.T) {
	mr, ac := newAddressCache(t)
	looker := &stubLooker{addr: &Address{Street: "Praça da Sé", Neighborhood: "Sé", City: "São Paulo", State: "SP"}}
	r := NewResolver(looker, ac, logger.Discard())
	ctx := context.Background()

	first, ok := r.ResolveAddress(ctx, "01001000")
	require.True(t, ok)
	assert.True(t, mr.Exists("postal:01001000"))

	second, ok := r.ResolveAddress(ctx, "01001-000")
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, looker.calls, "second resolve must be served from cache")
}

func TestResolveAddress_CacheOutageFallsBackToLookup(t *testing.T) {
	mr, ac := newAddressCache(t)
	mr.Close()
	looker := &stubLooker{addr: &Address{City: "São Paulo"}}
	r := NewResolver(looker, ac, logger.Discard())

	addr, ok := r.ResolveAddress(context.Background(), "01001000")
	require.True(t, ok)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, 1, looker.calls)
}
