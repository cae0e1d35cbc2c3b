package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "budgeting/internal/errors"
)

// AssertAppError fails unless err is an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected AppError %q, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected *AppError %q, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected error code %q, got %q (message: %s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError stops the test on a non-nil err.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal compares got with the decimal literal want numerically, so
// "10" and "10.00" are equal.
func AssertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(Dec(t, want)) {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}
