package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/crm/pkg/app"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/logger"
)

type failureBody struct {
	Error  string `json:"error"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

type customerBody struct {
	ID           uuid.UUID `json:"id"`
	Document     string    `json:"document"`
	Email        string    `json:"email"`
	ZipCode      string    `json:"zip_code"`
	Street       string    `json:"street"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	CreatedBy    string    `json:"created_by"`
}

type eventBody struct {
	EventType  string `json:"event_type"`
	OccurredBy string `json:"occurred_by"`
}

// viaCEP serves 01001000 and reports every other code as unknown.
func viaCEP(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/01001000/") {
			_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","complemento":"lado ímpar","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
			return
		}
		_, _ = w.Write([]byte(`{"erro": true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		StorageDriver:        config.StorageMemory,
		Environment:          config.EnvTesting,
		ViaCEPBaseURL:        viaCEP(t).URL,
		ViaCEPTimeout:        time.Second,
		ViaCEPMaxRetries:     0,
		ViaCEPRetryBaseDelay: time.Millisecond,
	}
	r := chi.NewRouter()
	require.NoError(t, CustomerRoutes(r, &app.Application{Config: cfg, Logger: logger.Discard()}))
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func individual(doc, email, zip string) map[string]any {
	return map[string]any{
		"name":          "Maria Silva",
		"document":      doc,
		"customer_type": 1,
		"birth_date":    "1990-03-10T00:00:00Z",
		"phone":         "11999990000",
		"email":         email,
		"zip_code":      zip,
		"street":        "Caller Street",
		"number":        "100",
		"neighborhood":  "Caller Hood",
		"city":          "Caller City",
		"state":         "RJ",
	}
}

func update(email string) map[string]any {
	return map[string]any{
		"name":         "Maria Silva",
		"phone":        "11999990000",
		"email":        email,
		"zip_code":     "20000-000",
		"street":       "Caller Street",
		"number":       "100",
		"neighborhood": "Caller Hood",
		"city":         "Caller City",
		"state":        "RJ",
	}
}

func TestPostCustomer_EnrichesFromPostalCode(t *testing.T) {
	h := newRouter(t)

	w := do(t, h, http.MethodPost, "/v1/customers", individual("111.222.333-44", "a@x.com", "01001-000"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	c := decode[customerBody](t, w)
	assert.Equal(t, "11122233344", c.Document)
	assert.Equal(t, "01001000", c.ZipCode)
	assert.Equal(t, "Praça da Sé", c.Street)
	assert.Equal(t, "Sé", c.Neighborhood)
	assert.Equal(t, "São Paulo", c.City)
	assert.Equal(t, "SP", c.State)
	assert.Equal(t, "System", c.CreatedBy)
}

func TestPostCustomer_UnknownPostalCodeKeepsCallerAddress(t *testing.T) {
	h := newRouter(t)

	w := do(t, h, http.MethodPost, "/v1/customers", individual("11122233344", "a@x.com", "20000-000"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	c := decode[customerBody](t, w)
	assert.Equal(t, "Caller Street", c.Street)
	assert.Equal(t, "Caller City", c.City)
	assert.Equal(t, "RJ", c.State)
}

func TestPostCustomer_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		wantCode string
	}{
		{"bad document", func(b map[string]any) { b["document"] = "123" }, "Validation.document"},
		{"bad zip", func(b map[string]any) { b["zip_code"] = "0100" }, "Validation.zip_code"},
		{"bad state", func(b map[string]any) { b["state"] = "São" }, "Validation.state"},
		{"bad email", func(b map[string]any) { b["email"] = "not-an-email" }, "Validation.email"},
		{"unknown type", func(b map[string]any) { b["customer_type"] = 3 }, "Validation.customer_type"},
		{"minor", func(b map[string]any) { b["birth_date"] = time.Now().AddDate(-10, 0, 0).UTC().Format(time.RFC3339) }, "Validation.birth_date"},
		{"individual without birth date", func(b map[string]any) { delete(b, "birth_date") }, "Validation.birth_date"},
		{"long phone", func(b map[string]any) { b["phone"] = strings.Repeat("1", 21) }, "Validation.phone"},
		{"missing phone", func(b map[string]any) { delete(b, "phone") }, "Validation.phone"},
		{"company without registration", func(b map[string]any) {
			b["customer_type"] = 2
			b["document"] = "11222333000181"
			delete(b, "birth_date")
		}, "Validation.state_registration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t)
			body := individual("11122233344", "a@x.com", "20000-000")
			tt.mutate(body)

			w := do(t, h, http.MethodPost, "/v1/customers", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			codes := []string{}
			for _, e := range decode[failureBody](t, w).Errors {
				codes = append(codes, e.Code)
			}
			assert.Contains(t, codes, tt.wantCode)
		})
	}
}

func TestPostCustomer_ExemptCompany(t *testing.T) {
	h := newRouter(t)
	body := individual("11.222.333/0001-81", "co@x.com", "20000-000")
	body["customer_type"] = 2
	body["state_registration_exempt"] = true
	delete(body, "birth_date")

	w := do(t, h, http.MethodPost, "/v1/customers", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestPostCustomer_InvalidJSON(t *testing.T) {
	h := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/customers", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostCustomer_DuplicateDocumentIs400(t *testing.T) {
	h := newRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/customers", individual("11122233344", "a@x.com", "20000-000")).Code)

	w := do(t, h, http.MethodPost, "/v1/customers", individual("11122233344", "b@x.com", "20000-000"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[failureBody](t, w)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Customer.DuplicateDocument", body.Errors[0].Code)
	assert.Equal(t, body.Errors[0].Message, body.Error)
}

func TestCustomerLifecycle(t *testing.T) {
	h := newRouter(t)

	w := do(t, h, http.MethodPost, "/v1/customers", individual("11122233344", "a@x.com", "20000-000"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[customerBody](t, w).ID
	path := "/v1/customers/" + id.String()

	w = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", decode[customerBody](t, w).Email)

	w = do(t, h, http.MethodPut, path, update("a2@x.com"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "a2@x.com", decode[customerBody](t, w).Email)

	w = do(t, h, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, path, update("a3@x.com")).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, path, nil).Code)

	w = do(t, h, http.MethodGet, path+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	evts := decode[[]eventBody](t, w)
	require.Len(t, evts, 3)
	assert.Equal(t, "CustomerCreated", evts[0].EventType)
	assert.Equal(t, "CustomerUpdated", evts[1].EventType)
	assert.Equal(t, "CustomerDeleted", evts[2].EventType)
}

func TestPutCustomer_IDMismatch(t *testing.T) {
	h := newRouter(t)
	w := do(t, h, http.MethodPost, "/v1/customers", individual("11122233344", "a@x.com", "20000-000"))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[customerBody](t, w).ID

	body := update("a@x.com")
	body["id"] = uuid.New().String()
	w = do(t, h, http.MethodPut, "/v1/customers/"+id.String(), body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Customer.IdMismatch", decode[failureBody](t, w).Errors[0].Code)

	body["id"] = id.String()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/v1/customers/"+id.String(), body).Code)
}

func TestCustomerRoutes_MalformedID(t *testing.T) {
	h := newRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/customers/nope"},
		{http.MethodDelete, "/v1/customers/nope"},
		{http.MethodGet, "/v1/customers/nope/events"},
	} {
		w := do(t, h, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestGetEvents_UnknownCustomerIsEmpty(t *testing.T) {
	h := newRouter(t)
	w := do(t, h, http.MethodGet, "/v1/customers/"+uuid.NewString()+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListCustomers(t *testing.T) {
	h := newRouter(t)
	for i, doc := range []string{"11111111111", "22222222222", "33333333333"} {
		email := string(rune('a'+i)) + "@x.com"
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/customers", individual(doc, email, "20000-000")).Code)
	}

	w := do(t, h, http.MethodGet, "/v1/customers?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items  []customerBody `json:"items"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	}](t, w)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "22222222222", page.Items[0].Document)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/customers?limit=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/customers?offset=x", nil).Code)
}
