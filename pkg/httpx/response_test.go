package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghuser/crm/pkg/httpx"
)

func TestWriters(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter)
		wantCode int
		wantBody map[string]string
	}{
		{
			name:     "json",
			write:    func(w http.ResponseWriter) { httpx.JSON(w, http.StatusCreated, map[string]string{"id": "abc"}) },
			wantCode: http.StatusCreated,
			wantBody: map[string]string{"id": "abc"},
		},
		{
			name:     "json error",
			write:    func(w http.ResponseWriter) { httpx.JSONError(w, http.StatusBadRequest, "invalid customer id") },
			wantCode: http.StatusBadRequest,
			wantBody: map[string]string{"error": "invalid customer id"},
		},
		{
			name:     "no content",
			write:    httpx.NoContent,
			wantCode: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantBody == nil {
				if w.Body.Len() != 0 {
					t.Errorf("expected empty body, got %q", w.Body.String())
				}
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if xct := w.Header().Get("X-Content-Type-Options"); xct != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", xct)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for k, v := range tt.wantBody {
				if body[k] != v {
					t.Errorf("%s = %q, want %q", k, body[k], v)
				}
			}
		})
	}
}

func TestSafeError(t *testing.T) {
	err := errors.New(`pq: relation "customers" does not exist`)
	tests := []struct {
		status     int
		production bool
		want       string
	}{
		{http.StatusInternalServerError, true, "Internal Server Error"},
		{http.StatusInternalServerError, false, err.Error()},
		{http.StatusBadRequest, true, err.Error()},
	}
	for _, tt := range tests {
		if got := httpx.SafeError(err, tt.status, tt.production); got != tt.want {
			t.Errorf("SafeError(%d, prod=%v) = %q, want %q", tt.status, tt.production, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr bool
		tooBig  bool
	}{
		{name: "valid", body: `{"name":"Alice"}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"name":"Alice","extra":1}`, wantErr: true},
		{name: "trailing object", body: `{"name":"a"}{"name":"b"}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", 64) + `"}`, limit: 16, wantErr: true, tooBig: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, tt.limit)
			}

			var p payload
			err := httpx.DecodeJSON(r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.tooBig && !errors.Is(err, httpx.ErrBodyTooLarge) {
				t.Fatalf("expected ErrBodyTooLarge, got %v", err)
			}
			if !tt.wantErr && p.Name != "Alice" {
				t.Errorf("expected name Alice, got %q", p.Name)
			}
		})
	}
}
