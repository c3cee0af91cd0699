package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

const (
	defaultRateLimit      = 100
	defaultRequestTimeout = 30 * time.Second
	maxBodyBytes          = 10 << 20

	contentSecurityPolicy = "default-src 'self'"
	// The Swagger UI bundle injects inline styles and scripts.
	docsContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
)

// ServerConfig holds the options for NewRouter and NewServer.
type ServerConfig struct {
	ServiceName   string
	IsDevelopment bool
	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// "*" (dev only) or an empty list allows all.
	CORSAllowedOrigins string
	// RateLimitPerMinute caps requests per client IP; zero means 100.
	RateLimitPerMinute int
	// RequestTimeout bounds handler execution; zero means 30s.
	RequestTimeout time.Duration
}

func (c ServerConfig) rateLimit() int {
	if c.RateLimitPerMinute <= 0 {
		return defaultRateLimit
	}
	return c.RateLimitPerMinute
}

func (c ServerConfig) requestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.RequestTimeout
}

// Middlewares are the application-level middlewares NewRouter slots into
// its stack. Nil entries are skipped.
type Middlewares struct {
	Recovery func(http.Handler) http.Handler
	Sentry   func(http.Handler) http.Handler
	Otel     func(http.Handler) http.Handler
	Logger   func(http.Handler) http.Handler
}

// NewRouter returns a chi.Mux with the standard middleware stack, outermost
// first:
//
//  1. Recovery: JSON 500 for panics re-raised by Sentry
//  2. Sentry: captures the panic, then re-panics
//  3. RequestID: X-Request-Id per request
//  4. Otel: server span per request
//  5. Logger: one record per request with trace and request ids
//  6. RealIP: RemoteAddr from X-Forwarded-For / X-Real-IP
//  7. rate limit per client IP
//  8. CORS
//  9. 10 MB body cap
//  10. handler deadline
//  11. security headers (CSP, HSTS, frame and sniffing protection)
func NewRouter(cfg ServerConfig, mw Middlewares) *chi.Mux {
	stack := []func(http.Handler) http.Handler{
		mw.Recovery,
		mw.Sentry,
		middleware.RequestID,
		mw.Otel,
		mw.Logger,
		middleware.RealIP,
		httprate.LimitByIP(cfg.rateLimit(), time.Minute),
		CORSMiddleware(cfg.CORSAllowedOrigins),
		RequestBodyLimit(maxBodyBytes),
		middleware.Timeout(cfg.requestTimeout()),
		securityHeaders(cfg.IsDevelopment).Handler,
	}

	r := chi.NewRouter()
	for _, m := range stack {
		if m != nil {
			r.Use(m)
		}
	}
	return r
}

func securityHeaders(isDevelopment bool) *secure.Secure {
	return secure.New(secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), usb=(), magnetometer=(), gyroscope=()",
		IsDevelopment:         isDevelopment,
	})
}

// DocsCSP relaxes the Content-Security-Policy set by NewRouter so the
// Swagger UI can load. Mount it on the docs route only.
func DocsCSP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", docsContentSecurityPolicy)
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware allows the comma-separated allowedOrigins. Credentials are
// never allowed, so "*" is safe to combine with the session cookie.
func CORSMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: parseOrigins(allowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Link", "X-Request-Id"},
		MaxAge:         300,
	})
}

func parseOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RequestBodyLimit caps the request body at maxBytes. Reads past the cap
// fail, and DecodeJSON turns that into ErrBodyTooLarge.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// NewServer returns an *http.Server whose write timeout leaves room for a
// handler to hit its deadline and still write the 504.
func NewServer(addr string, handler http.Handler, cfg ServerConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.requestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
