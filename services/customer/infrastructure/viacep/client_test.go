package viacep

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/crm/pkg/logger"
)

const seBody = `{
  "cep": "01001-000",
  "logradouro": "Praça da Sé",
  "complemento": "lado ímpar",
  "bairro": "Sé",
  "localidade": "São Paulo",
  "uf": "SP"
}`

func newTestClient(url string, retries uint64) *Client {
	return NewClient(Config{
		BaseURL:    url,
		Timeout:    time.Second,
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
	}, logger.Discard())
}

func TestLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/01001000/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seBody))
	}))
	defer srv.Close()

	addr, err := newTestClient(srv.URL+"/ws", 0).Lookup(context.Background(), "01001000")
	require.NoError(t, err)
	assert.Equal(t, "Praça da Sé", addr.Street)
	assert.Equal(t, "Sé", addr.Neighborhood)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.State)
}

func TestLookup_ErroFlagIsNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load(), "not found must not be retried")
}

func TestLookup_InvalidPostalCode(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0", 3)
	for _, code := range []string{"", "0100100", "010010000", "01001-00", "abcdefgh"} {
		_, err := c.Lookup(context.Background(), code)
		assert.ErrorIs(t, err, ErrInvalidPostalCode, code)
	}
}

func TestLookup_RetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusBadGateway},
		{"rate limited", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(seBody))
			}))
			defer srv.Close()

			addr, err := newTestClient(srv.URL, 3).Lookup(context.Background(), "01001000")
			require.NoError(t, err)
			assert.Equal(t, "Sé", addr.Neighborhood)
			assert.Equal(t, int32(3), calls.Load())
		})
	}
}

func TestLookup_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Lookup(context.Background(), "01001000")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestLookup_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Lookup(context.Background(), "01001000")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookup_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Lookup(context.Background(), "01001000")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestLookup_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 3).Lookup(ctx, "01001000")
	assert.ErrorIs(t, err, context.Canceled)
}
