// Package errhttp maps business failures and faults to HTTP responses.
//
// Business failures are result.Error values: codes ending in ".NotFound" map
// to 404, every other code to 400. Anything else is a fault and maps to 500.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/crm/pkg/httpx"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/result"
	"github.com/ghuser/crm/pkg/telemetry"
)

type failureResponse struct {
	Error  string         `json:"error"`
	Errors []result.Error `json:"errors"`
}

// StatusFor returns the HTTP status for a set of business failures.
func StatusFor(errs []result.Error) int {
	for _, e := range errs {
		if e.IsNotFound() {
			return http.StatusNotFound // 404
		}
	}
	return http.StatusBadRequest // 400
}

// WriteFailure writes business failures as {"error": first message, "errors": [...]}.
func WriteFailure(w http.ResponseWriter, errs []result.Error) {
	resp := failureResponse{Errors: errs}
	if len(errs) > 0 {
		resp.Error = errs[0].Message
	} else {
		resp.Errors = []result.Error{}
		resp.Error = http.StatusText(http.StatusBadRequest)
	}
	httpx.JSON(w, StatusFor(errs), resp)
}

// WriteError writes err as a JSON error response. A result.Error anywhere in
// the chain is treated as a business failure; everything else is a fault that
// is logged, reported to Sentry and answered with 500. In production the 500
// body carries only the generic status text.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error, isProduction bool) {
	var be result.Error
	if errors.As(err, &be) {
		WriteFailure(w, []result.Error{be})
		return
	}

	log.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	telemetry.CaptureError(r, err)

	status := http.StatusInternalServerError
	httpx.JSONError(w, status, httpx.SafeError(err, status, isProduction))
}
