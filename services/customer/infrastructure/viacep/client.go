// Package viacep looks up Brazilian postal codes (CEP) against the ViaCEP
// web service (https://viacep.com.br).
package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/crm/pkg/logger"
)

const (
	postalCodeLength = 8
	maxBodyBytes     = 64 << 10
)

var (
	// ErrInvalidPostalCode: the code does not have exactly 8 digits.
	ErrInvalidPostalCode = errors.New("viacep: postal code must have 8 digits")

	// ErrNotFound: ViaCEP answered {"erro": true} or 404.
	ErrNotFound = errors.New("viacep: postal code not found")
)

// Address is the ViaCEP JSON response.
type Address struct {
	PostalCode   string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Error        bool   `json:"erro"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string        // e.g. https://viacep.com.br/ws/
	Timeout    time.Duration // per attempt
	MaxRetries uint64        // retries after the first attempt
	BaseDelay  time.Duration // first backoff delay; doubles on every retry
}

// Client is a ViaCEP HTTP client with exponential-backoff retries.
type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries uint64
	baseDelay  time.Duration
	log        logger.Logger
}

// NewClient returns a Client. Outbound requests are traced with otelhttp.
func NewClient(cfg Config, log logger.Logger) *Client {
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: cfg.MaxRetries,
		baseDelay:  delay,
		log:        log,
	}
}

// Lookup fetches the address of an 8-digit postal code. Transport errors,
// 429 and 5xx responses are retried; ErrNotFound and ErrInvalidPostalCode
// are returned without retrying.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*Address, error) {
	if !validPostalCode(postalCode) {
		return nil, ErrInvalidPostalCode
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))

	var (
		addr    *Address
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		a, err := c.fetch(ctx, postalCode)
		if err != nil {
			var re *retryable
			if errors.As(err, &re) {
				c.log.WarnContext(ctx, "viacep: lookup failed, retrying",
					"postal_code", postalCode,
					"attempt", attempt,
					"error", re.err,
				)
				return retry.RetryableError(re.err)
			}
			return err
		}
		addr = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// retryable marks a failure worth another attempt.
type retryable struct{ err error }

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

func (c *Client) fetch(ctx context.Context, postalCode string) (*Address, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+postalCode+"/json/", nil)
	if err != nil {
		return nil, fmt.Errorf("viacep: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryable{fmt.Errorf("viacep: request: %w", err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, &retryable{fmt.Errorf("viacep: unexpected status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("viacep: unexpected status %d", resp.StatusCode)
	}

	var addr Address
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&addr); err != nil {
		return nil, fmt.Errorf("viacep: decode response: %w", err)
	}
	if addr.Error {
		return nil, ErrNotFound
	}
	return &addr, nil
}

func validPostalCode(s string) bool {
	if len(s) != postalCodeLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
