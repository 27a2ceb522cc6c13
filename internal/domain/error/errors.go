package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidAmount       = 4002
	CodeInvalidCurrency     = 4003
	CodeInvalidProvider     = 4004
	CodeInvalidReference    = 4005
	CodeDuplicateRequest    = 4009
	CodeInvalidSignature    = 4010
	CodeTransactionNotFound = 4040
	CodeStatusConflict      = 4090
	CodeAlreadyRefunded     = 4091

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeProviderSubmit     = 5020
	CodeProviderUnknown    = 5021
	CodeRateUnavailable    = 5030
	CodeDistributionFailed = 5040
)

// Base error types
var (
	// ErrInvalidAmount is returned when the requested amount format is invalid
	ErrInvalidAmount = errors.New("invalid amount format")

	// ErrNegativeAmount is returned when the requested amount is zero or negative
	ErrNegativeAmount = errors.New("amount must be positive")

	// ErrInvalidCurrency is returned when the currency code is not supported
	ErrInvalidCurrency = errors.New("unsupported currency code")

	// ErrInvalidProvider is returned when the payment provider is not one of the configured rails
	ErrInvalidProvider = errors.New("unsupported payment provider")

	// ErrInvalidReference is returned when the transaction reference is empty or malformed
	ErrInvalidReference = errors.New("invalid transaction reference")

	// ErrInvalidPayer is returned when the payer identifier is missing
	ErrInvalidPayer = errors.New("payer identifier cannot be empty")

	// ErrInvalidBooking is returned when the booking identifier is missing
	ErrInvalidBooking = errors.New("booking identifier cannot be empty")

	// ErrDuplicateReference is returned when a transaction with the same reference already exists
	ErrDuplicateReference = errors.New("transaction with this reference already exists")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrStatusConflict is returned when a transition is attempted from a terminal status.
	// Duplicate or out-of-order callbacks surface as this error and are treated as no-ops.
	ErrStatusConflict = errors.New("transaction is in a terminal status")

	// ErrInvalidTransition is returned when a status transition is not in the allowed graph
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrAlreadyRefunded is returned when a refund is requested for an already refunded transaction
	ErrAlreadyRefunded = errors.New("transaction has already been refunded")

	// ErrNotRefundable is returned when a refund is requested for a transaction that never completed
	ErrNotRefundable = errors.New("only completed transactions can be refunded")

	// ErrRateUnavailable is returned when no exchange rate within the staleness window
	// can be obtained; conversion fails closed rather than using a stale rate
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrAlreadyDistributed is returned when distribution is attempted twice for a transaction
	ErrAlreadyDistributed = errors.New("transaction proceeds already distributed")

	// ErrNotDistributable is returned when distribution is attempted before completion
	ErrNotDistributable = errors.New("transaction is not pending distribution")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInvalidSplitRule is returned when the configured split percentages don't sum to 100
	ErrInvalidSplitRule = errors.New("split percentages must sum to 100")

	// ErrInvalidSignature is returned when a webhook payload fails signature verification
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNegativeAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidCurrency):
		return CodeInvalidCurrency
	case errors.Is(err, ErrInvalidProvider):
		return CodeInvalidProvider
	case errors.Is(err, ErrInvalidReference), errors.Is(err, ErrInvalidPayer), errors.Is(err, ErrInvalidBooking):
		return CodeInvalidReference
	case errors.Is(err, ErrDuplicateReference):
		return CodeDuplicateRequest
	case errors.Is(err, ErrInvalidSignature):
		return CodeInvalidSignature
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrStatusConflict), errors.Is(err, ErrInvalidTransition):
		return CodeStatusConflict
	case errors.Is(err, ErrAlreadyRefunded), errors.Is(err, ErrNotRefundable):
		return CodeAlreadyRefunded
	case errors.Is(err, ErrRateUnavailable):
		return CodeRateUnavailable
	case errors.Is(err, ErrAlreadyDistributed), errors.Is(err, ErrNotDistributable):
		return CodeDistributionFailed
	default:
		return CodeInternalServer
	}
}

// SubmitError represents a definite submission rejection by a payment provider.
// The request never reached the provider's network, so the transaction stays
// CREATED and a fresh attempt needs a new reference.
type SubmitError struct {
	Provider  string
	Reference string
	Code      string
	Reason    string
	Err       error
}

// Error implements the error interface
func (e *SubmitError) Error() string {
	return fmt.Sprintf("provider %s rejected submission of %s (%s): %s",
		e.Provider, e.Reference, e.Code, e.Reason)
}

// Unwrap returns the underlying error
func (e *SubmitError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *SubmitError) LogFields() map[string]any {
	return map[string]any{
		"error_type":   "provider_submit",
		"provider":     e.Provider,
		"reference":    e.Reference,
		"failure_code": e.Code,
		"reason":       e.Reason,
		"error_code":   CodeProviderSubmit,
	}
}

// AmbiguousSubmitError represents a submission whose outcome is unknown: the request
// may or may not have reached the provider. The transaction enters PENDING_PROVIDER
// and is resolved by status polling, never by resubmission.
type AmbiguousSubmitError struct {
	Provider  string
	Reference string
	Err       error
}

// Error implements the error interface
func (e *AmbiguousSubmitError) Error() string {
	return fmt.Sprintf("submission of %s to provider %s is in an unknown state: %v",
		e.Reference, e.Provider, e.Err)
}

// Unwrap returns the underlying error
func (e *AmbiguousSubmitError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *AmbiguousSubmitError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "provider_unknown",
		"provider":   e.Provider,
		"reference":  e.Reference,
		"error":      e.Err.Error(),
		"error_code": CodeProviderUnknown,
	}
}

// ConflictError records a rejected transition attempt from a terminal status.
// It is logged and ignored, never surfaced to the caller as a failure.
type ConflictError struct {
	Reference     string
	CurrentStatus string
	AttemptedTo   string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction %s is %s; transition to %s rejected",
		e.Reference, e.CurrentStatus, e.AttemptedTo)
}

// Is checks if the target error is an ErrStatusConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrStatusConflict
}

// LogFields returns a map of fields for structured logging
func (e *ConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "status_conflict",
		"reference":      e.Reference,
		"current_status": e.CurrentStatus,
		"attempted_to":   e.AttemptedTo,
		"error_code":     CodeStatusConflict,
	}
}

// DistributionError represents a failed attempt to split a completed transaction's
// proceeds into wallet ledger entries
type DistributionError struct {
	Reference string
	Attempt   int
	Err       error
}

// Error implements the error interface
func (e *DistributionError) Error() string {
	return fmt.Sprintf("distribution attempt %d for transaction %s failed: %v",
		e.Attempt, e.Reference, e.Err)
}

// Unwrap returns the underlying error
func (e *DistributionError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *DistributionError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "distribution_failed",
		"reference":  e.Reference,
		"attempt":    e.Attempt,
		"error":      e.Err.Error(),
		"error_code": CodeDistributionFailed,
	}
}

// NewConflictError creates a conflict error for a rejected terminal-state transition
func NewConflictError(reference, current, attempted string) error {
	return &ConflictError{
		Reference:     reference,
		CurrentStatus: current,
		AttemptedTo:   attempted,
	}
}

// NewSubmitError creates a definite provider submission error
func NewSubmitError(provider, reference, code, reason string, err error) error {
	return &SubmitError{
		Provider:  provider,
		Reference: reference,
		Code:      code,
		Reason:    reason,
		Err:       err,
	}
}

// NewAmbiguousSubmitError creates an unknown-outcome submission error
func NewAmbiguousSubmitError(provider, reference string, err error) error {
	return &AmbiguousSubmitError{
		Provider:  provider,
		Reference: reference,
		Err:       err,
	}
}

// NewDistributionError creates a distribution failure error
func NewDistributionError(reference string, attempt int, err error) error {
	return &DistributionError{
		Reference: reference,
		Attempt:   attempt,
		Err:       err,
	}
}

// IsConflictError checks if the error is a terminal-state conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrStatusConflict)
}

// IsNotFoundError checks if the error is a "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}

// IsDuplicateReferenceError checks if the error is a duplicate reference error
func IsDuplicateReferenceError(err error) bool {
	return errors.Is(err, ErrDuplicateReference)
}

// IsSubmitError checks if the error is a definite provider rejection
func IsSubmitError(err error) bool {
	var se *SubmitError
	return errors.As(err, &se)
}

// IsAmbiguousSubmitError checks if the error is an unknown-outcome submission
func IsAmbiguousSubmitError(err error) bool {
	var ae *AmbiguousSubmitError
	return errors.As(err, &ae)
}

// IsValidationError checks if the error belongs to the request validation family
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidCurrency) ||
		errors.Is(err, ErrInvalidProvider) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrInvalidPayer) ||
		errors.Is(err, ErrInvalidBooking)
}
