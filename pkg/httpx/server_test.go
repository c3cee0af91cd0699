package httpx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/crm/pkg/httpx"
)

func newRouter(cfg httpx.ServerConfig) *chi.Mux {
	r := httpx.NewRouter(cfg, httpx.Middlewares{})
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestNewRouter_SecurityHeaders(t *testing.T) {
	r := newRouter(httpx.ServerConfig{ServiceName: "crm"})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'self'",
	}
	for header, expected := range want {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("%s: got %q, want %q", header, got, expected)
		}
	}
}

func TestNewRouter_RateLimit(t *testing.T) {
	r := newRouter(httpx.ServerConfig{RateLimitPerMinute: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		req.RemoteAddr = "192.0.2.10:4321"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests = %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", codes[2])
	}

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.RemoteAddr = "192.0.2.11:4321"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("other client = %d, want 200", rr.Code)
	}
}

func TestNewRouter_RequestTimeout(t *testing.T) {
	r := httpx.NewRouter(httpx.ServerConfig{RequestTimeout: 20 * time.Millisecond}, httpx.Middlewares{})
	r.Get("/slow", func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rr.Code)
	}
}

func TestCORSMiddleware_Origins(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		origin  string
		want    string
	}{
		{"listed origin", "https://app.example.com, http://localhost:3000", "http://localhost:3000", "http://localhost:3000"},
		{"unlisted origin", "https://app.example.com", "https://evil.example.com", ""},
		{"wildcard", "*", "https://anything.example.com", "*"},
		{"blank list allows all", " , ", "https://anything.example.com", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.CORSMiddleware(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/customers", http.NoBody)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestBodyLimit(t *testing.T) {
	const limit = 16

	h := httpx.RequestBodyLimit(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for size, want := range map[int]int{
		limit:     http.StatusOK,
		limit + 1: http.StatusRequestEntityTooLarge,
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", size))))
		if rr.Code != want {
			t.Errorf("body of %d bytes: status = %d, want %d", size, rr.Code, want)
		}
	}
}

func TestNewRouter_AppMiddlewaresRunInOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := httpx.NewRouter(httpx.ServerConfig{}, httpx.Middlewares{
		Recovery: mark("recovery"),
		Sentry:   mark("sentry"),
		Otel:     mark("otel"),
		Logger:   mark("logger"),
	})
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	want := []string{"recovery", "sentry", "otel", "logger"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestDocsCSP_OverridesPolicy(t *testing.T) {
	r := newRouter(httpx.ServerConfig{})
	r.With(httpx.DocsCSP).Get("/swagger/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/index.html", http.NoBody))
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "'unsafe-inline'") {
		t.Errorf("docs CSP = %q, want inline scripts allowed", csp)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	if csp := rr.Header().Get("Content-Security-Policy"); csp != "default-src 'self'" {
		t.Errorf("API CSP = %q, want the strict policy", csp)
	}
}

func TestNewServer_WriteTimeoutCoversRequestTimeout(t *testing.T) {
	srv := httpx.NewServer(":0", http.NotFoundHandler(), httpx.ServerConfig{RequestTimeout: time.Minute})
	if srv.WriteTimeout <= time.Minute {
		t.Fatalf("WriteTimeout = %v, want more than the request timeout", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout == 0 || srv.IdleTimeout == 0 {
		t.Fatalf("server timeouts must be set: %+v", srv)
	}
}
