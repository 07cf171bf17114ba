// Package errors provides custom error types for the WealthWise API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional structured details,
// and optional internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrSubcategoryNotFound = &AppError{Code: "SUBCATEGORY_NOT_FOUND", Message: "Subcategory not found", StatusCode: http.StatusNotFound}
	ErrSubcategoryInUse    = &AppError{Code: "SUBCATEGORY_IN_USE", Message: "Subcategory is referenced by transactions or allocations", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Budget period errors.
var (
	ErrPeriodNotFound   = &AppError{Code: "BUDGET_PERIOD_NOT_FOUND", Message: "Budget period not found", StatusCode: http.StatusNotFound}
	ErrInvalidDateRange = &AppError{Code: "BUDGET_INVALID_DATE_RANGE", Message: "Start date must be before end date", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound       = &AppError{Code: "BUDGET_NOT_FOUND", Message: "No budget found for the active period", StatusCode: http.StatusNotFound}
	ErrIncomeSourceNotFound = &AppError{Code: "INCOME_SOURCE_NOT_FOUND", Message: "Income source not found", StatusCode: http.StatusNotFound}
)

// Recurring template errors.
var (
	ErrRecurringSourceNotFound     = &AppError{Code: "RECURRING_SOURCE_NOT_FOUND", Message: "Recurring income source not found", StatusCode: http.StatusNotFound}
	ErrRecurringAllocationNotFound = &AppError{Code: "RECURRING_ALLOCATION_NOT_FOUND", Message: "Recurring allocation not found", StatusCode: http.StatusNotFound}
)

// NewPeriodOverlapError builds the conflict error returned when a requested
// period's date range overlaps existing periods of the same owner and type.
// The names of every conflicting period are carried in the details.
func NewPeriodOverlapError(conflictingNames []string) *AppError {
	return &AppError{
		Code:       "BUDGET_PERIOD_OVERLAP",
		Message:    fmt.Sprintf("Date range overlaps existing period(s): %s", strings.Join(conflictingNames, ", ")),
		Details:    map[string]any{"conflicting_periods": conflictingNames},
		StatusCode: http.StatusConflict,
	}
}

// NewOverAllocationError builds the rejection returned when a bulk allocation
// replacement requests more than the budget's available funds. Amounts are
// minor units (cents).
func NewOverAllocationError(requested, available int64) *AppError {
	return &AppError{
		Code:       "BUDGET_OVER_ALLOCATION",
		Message:    "Total allocations exceed available funds",
		Details:    map[string]any{"requested": requested, "available": available},
		StatusCode: http.StatusBadRequest,
	}
}
