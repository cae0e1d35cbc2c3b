// Package errors provides custom error types for the budgeting API.
// All service-layer errors should use AppError so that responses carry a stable
// code and never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized        = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden           = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrSystemNotConfigured = &AppError{Code: "SYSTEM_NOT_CONFIGURED", Message: "System endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Category errors.
var (
	ErrCategoryNotFound          = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotOwned          = &AppError{Code: "CATEGORY_NOT_OWNED", Message: "Only your own categories can be changed", StatusCode: http.StatusForbidden}
	ErrCategoryDirectionMismatch = &AppError{Code: "CATEGORY_DIRECTION_MISMATCH", Message: "Category direction does not match transaction direction", StatusCode: http.StatusBadRequest}
	ErrDefaultCategoryMissing    = &AppError{Code: "DEFAULT_CATEGORY_MISSING", Message: "Default category is not configured", StatusCode: http.StatusInternalServerError}
	ErrCategoryGroupNotFound     = &AppError{Code: "CATEGORY_GROUP_NOT_FOUND", Message: "Category group not found", StatusCode: http.StatusNotFound}
)

// Wallet errors.
var (
	ErrWalletNotFound = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrInvalidPlaidID = &AppError{Code: "INVALID_PLAID_ID", Message: "Invalid plaid_id", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// External provider errors.
var (
	ErrProviderUnavailable     = &AppError{Code: "PROVIDER_UNAVAILABLE", Message: "External provider request failed", StatusCode: http.StatusBadGateway}
	ErrProviderAccountNotFound = &AppError{Code: "PROVIDER_ACCOUNT_NOT_FOUND", Message: "Linked account no longer exists", StatusCode: http.StatusNotFound}
)
