package repository

import (
	"strings"
)

// ErrorType represents the type of database error that occurred
type ErrorType string

const (
	DuplicateKeyError ErrorType = "duplicate_key"
	TransientError    ErrorType = "transient"
	LockError         ErrorType = "lock"
	ConnectionError   ErrorType = "connection"
	ConstraintError   ErrorType = "constraint"
)

// ErrorClassifier classifies postgres errors surfaced through gorm's pgx
// driver. pgx renders server errors as "... (SQLSTATE xxxxx)", so matching on
// the SQLSTATE code is reliable; the plain-text fragments cover dial and
// network failures that never reach the server.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// Classify returns the type of error
func (c *ErrorClassifier) Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	if c.IsDuplicateKeyError(err) {
		return DuplicateKeyError
	}
	if c.IsLockError(err) {
		return LockError
	}
	if c.IsTransientError(err) {
		return TransientError
	}
	if c.IsConnectionError(err) {
		return ConnectionError
	}
	if c.IsConstraintError(err) {
		return ConstraintError
	}

	return ""
}

// IsDuplicateKeyError reports a unique-index violation. The transaction
// repository turns this into the duplicate-reference signal that makes the
// reference column an idempotency key.
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLSTATE 23505") ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// IsTransientError checks if an error is transient and can be retried
func (c *ErrorClassifier) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "unexpected EOF") ||
		strings.Contains(err.Error(), "SQLSTATE 57P01") // admin shutdown
}

// IsLockError checks if the error is due to locking
func (c *ErrorClassifier) IsLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "deadlock detected") ||
		strings.Contains(err.Error(), "could not serialize access") ||
		strings.Contains(err.Error(), "SQLSTATE 40P01") ||
		strings.Contains(err.Error(), "SQLSTATE 40001")
}

// IsConnectionError checks if the error is related to database connectivity
func (c *ErrorClassifier) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "failed to connect") ||
		strings.Contains(err.Error(), "dial tcp") ||
		strings.Contains(err.Error(), "conn closed") ||
		c.IsTransientError(err)
}

// IsConstraintError checks if the error is related to constraint violations
func (c *ErrorClassifier) IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "violates foreign key constraint") ||
		strings.Contains(err.Error(), "violates not-null constraint") ||
		strings.Contains(err.Error(), "violates check constraint") ||
		strings.Contains(err.Error(), "SQLSTATE 23502") ||
		strings.Contains(err.Error(), "SQLSTATE 23503") ||
		strings.Contains(err.Error(), "SQLSTATE 23514") ||
		c.IsDuplicateKeyError(err)
}
