package validator

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ghuser/crm/pkg/httpx"
	"github.com/ghuser/crm/pkg/result"
)

// ValidationCodePrefix prefixes the result.Error code of every field failure,
// e.g. "Validation.email".
const ValidationCodePrefix = "Validation."

// AdultAge is the minimum age accepted by the "adult" tag.
const AdultAge = 18

var validate *validator.Validate

var now = time.Now

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		// ignore unexported or explicitly ignored
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister("document", validateDocument)
	mustRegister("zipcode", validateZipCode)
	mustRegister("uf", validateUF)
	mustRegister("adult", validateAdult)
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: register %q: %v", tag, err))
	}
}

// RegisterStructValidation installs a struct-level rule for the given types.
// Call it from package init of the package that owns the request types.
func RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	validate.RegisterStructValidation(fn, types...)
}

// Validate runs struct-level validation using go-playground/validator tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validateDocument accepts a CPF (11 digits) or CNPJ (14 digits), ignoring
// punctuation.
func validateDocument(fl validator.FieldLevel) bool {
	n := len(Digits(fl.Field().String()))
	return n == 11 || n == 14
}

// validateZipCode accepts 8 digits with an optional hyphen ("01001-000").
func validateZipCode(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.Trim(s, "0123456789-") != "" {
		return false
	}
	return len(Digits(s)) == 8
}

func validateUF(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// validateAdult checks that a time.Time birth date is at least AdultAge years
// before today. Zero values pass; pair with "required" when mandatory.
func validateAdult(fl validator.FieldLevel) bool {
	birth, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	if birth.IsZero() {
		return true
	}
	return !birth.AddDate(AdultAge, 0, 0).After(now())
}

// FormatValidationErrors converts validator.ValidationErrors into a map of
// field name → human-readable message.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs
	}
	for _, e := range ve {
		errs[e.Field()] = formatFieldError(e)
	}
	return errs
}

// ResultErrors converts validation errors into result.Error values coded
// "Validation.<field>", in field declaration order.
func ResultErrors(err error) []result.Error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]result.Error, 0, len(ve))
	for _, e := range ve {
		out = append(out, result.NewError(ValidationCodePrefix+e.Field(), e.Field()+": "+formatFieldError(e)))
	}
	return out
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "len":
		return fmt.Sprintf("Length must be exactly %s", e.Param())
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	case "numeric":
		return "Must be a numeric value"
	case "alpha":
		return "Must contain only letters"
	case "alphanum":
		return "Must contain only letters and numbers"
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", e.Param())
	case "document":
		return "Must be a CPF (11 digits) or CNPJ (14 digits)"
	case "zipcode":
		return "Must be a postal code with 8 digits"
	case "uf":
		return "Must be a 2-letter state code"
	case "adult":
		return fmt.Sprintf("Customer must be at least %d years old", AdultAge)
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// ValidateRequest decodes the JSON request body into T, validates it, and
// writes an appropriate error response if either step fails.
// Returns (parsedStruct, true) on success or (nil, false) on failure.
//
// Validation failures are answered with 400 and both a flat "fields" map and
// an "errors" list of {code, message} in the same shape as business failures.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := httpx.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, httpx.ErrBodyTooLarge) {
			httpx.JSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		httpx.JSONError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if err := Validate(&req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"errors": ResultErrors(err),
			"fields": FormatValidationErrors(err),
		})
		return nil, false
	}
	return &req, true
}
