package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/crm/pkg/errhttp"
	"github.com/ghuser/crm/pkg/httpx"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/result"
	pkgvalidator "github.com/ghuser/crm/pkg/validator"
	appsvcs "github.com/ghuser/crm/services/customer/application/services"
)

// base carries what every customer handler needs.
type base struct {
	svc          *appsvcs.CustomerService
	log          logger.Logger
	isProduction bool
}

func newBase(svcs *appsvcs.Services, log logger.Logger, isProduction bool) base {
	return base{svc: svcs.Customer, log: log, isProduction: isProduction}
}

// write answers a service outcome: faults as 500, failures as 404/400 and
// success with status and the carried value.
func write[T any](w http.ResponseWriter, r *http.Request, b base, res result.Result[T], err error, status int) {
	if err != nil {
		errhttp.WriteError(w, r, b.log, err, b.isProduction)
		return
	}
	v, ok := res.Value()
	if !ok {
		errhttp.WriteFailure(w, res.Errors())
		return
	}
	if status == http.StatusNoContent {
		httpx.NoContent(w)
		return
	}
	httpx.JSON(w, status, v)
}

func invalidParam(name, message string) result.Error {
	return result.NewError(pkgvalidator.ValidationCodePrefix+name, name+": "+message)
}

// customerID parses the {id} URL parameter, answering 400 when it is not a UUID.
func customerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteFailure(w, []result.Error{invalidParam("id", "Must be a valid UUID")})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads a non-negative integer query parameter, def when absent.
func queryInt(r *http.Request, name string, def int) (int, *result.Error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		e := invalidParam(name, "Must be a non-negative integer")
		return 0, &e
	}
	return n, nil
}
