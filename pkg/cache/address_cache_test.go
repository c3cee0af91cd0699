package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressCache_SetGet(t *testing.T) {
	mr, rc := newMiniRedis(t)
	c := NewAddressCache(rc, time.Hour)
	ctx := context.Background()

	addr := &CachedAddress{
		ZipCode:      "01001000",
		Street:       "Praça da Sé",
		Complement:   "lado ímpar",
		Neighborhood: "Sé",
		City:         "São Paulo",
		State:        "SP",
	}
	require.NoError(t, c.Set(ctx, addr))

	assert.Equal(t, time.Hour, mr.TTL("postal:01001000"))
	assert.Equal(t, "Sé", mr.HGet("postal:01001000", "neighborhood"))

	got, err := c.Get(ctx, "01001000")
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestAddressCache_Miss(t *testing.T) {
	_, rc := newMiniRedis(t)
	c := NewAddressCache(rc, 0)

	_, err := c.Get(context.Background(), "99999999")
	assert.True(t, IsMiss(err), "expected miss, got %v", err)
}
