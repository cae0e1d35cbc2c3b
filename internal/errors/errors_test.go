package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("linking wallet: %w", Wrap(ErrProviderUnavailable, cause))

	if !stderrors.Is(err, ErrProviderUnavailable) {
		t.Error("wrapped error should match its sentinel")
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should expose its cause")
	}
	if stderrors.Is(err, ErrInternalServer) {
		t.Error("wrapped error should not match another sentinel")
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) || appErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected a 502 AppError, got %v", appErr)
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "amount must not be negative")
	if err.Error() != "amount must not be negative" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code != ErrInvalidInput.Code || err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected INVALID_INPUT/400, got %s/%d", err.Code, err.StatusCode)
	}
	if ErrInvalidInput.Message != "Invalid input" {
		t.Error("WithMessage must not mutate the sentinel")
	}
}
