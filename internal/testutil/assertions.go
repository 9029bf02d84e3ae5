package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertFieldError checks that err is a validation error with at least one
// message for field.
func AssertFieldError(t *testing.T, err error, field string) {
	t.Helper()

	AssertAppError(t, err, apperrors.ErrValidation.Code)

	var appErr *apperrors.AppError
	errors.As(err, &appErr)
	if len(appErr.Fields[field]) == 0 {
		t.Errorf("expected messages for field %q, got %v", field, appErr.Fields)
	}
}

// AssertDecimal checks got against a decimal literal such as "13.43".
func AssertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()

	w, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("invalid expected decimal %q: %v", want, err)
	}
	if !got.Equal(w) {
		t.Errorf("expected %s, got %s", w.String(), got.String())
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
