package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ghuser/crm/pkg/result"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []result.Error{ErrCustomerNotFound, ErrDuplicateDocument, ErrDuplicateEmail, ErrIDMismatch}
	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("%q and %q must not match each other", a.Code, b.Code)
			}
		}
	}
}

func TestSentinelErrors_WrappedMatch(t *testing.T) {
	wrapped := fmt.Errorf("insert customer: %w", ErrDuplicateEmail)
	if !errors.Is(wrapped, ErrDuplicateEmail) {
		t.Fatal("wrapped ErrDuplicateEmail should match with errors.Is")
	}
}

func TestNotFoundClassification(t *testing.T) {
	if !ErrCustomerNotFound.IsNotFound() {
		t.Error("ErrCustomerNotFound must classify as not found")
	}
	for _, e := range []result.Error{ErrDuplicateDocument, ErrDuplicateEmail, ErrIDMismatch, Invalid("x")} {
		if e.IsNotFound() {
			t.Errorf("%q must not classify as not found", e.Code)
		}
	}
}

func TestInvalid(t *testing.T) {
	e := Invalid("company needs a state registration")
	if e.Code != CodeInvalid || e.Message != "company needs a state registration" {
		t.Fatalf("unexpected error %+v", e)
	}
}
