package persistence

import (
	"context"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
)

// TransactionRepository defines essential methods to interact with transaction data
type TransactionRepository interface {
	// Create saves a new transaction
	//
	// Possible errors:
	// - ErrDuplicateReference: If a transaction with the same reference already exists
	// - ErrDatabaseConnection: If the database is unreachable
	Create(ctx context.Context, transaction *entity.Transaction) error

	// GetByReference retrieves a transaction by its externally visible reference
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no transaction carries the reference
	// - ErrDatabaseConnection: If the database is unreachable
	GetByReference(ctx context.Context, reference string) (*entity.Transaction, error)

	// UpdateStatusIf applies the transaction's current in-memory state as a
	// conditional write: the update succeeds only if the stored status still
	// equals expected. This linearizes racing callback and poll writers without
	// a global lock.
	//
	// Possible errors:
	// - ErrStatusConflict: If the stored status no longer matches expected
	// - ErrTransactionNotFound: If the transaction doesn't exist
	// - ErrDatabaseConnection: If the database is unreachable
	UpdateStatusIf(ctx context.Context, transaction *entity.Transaction, expected entity.TransactionStatus) error

	// RecordStatusCheck persists the poll counter and timestamp after a status sweep
	RecordStatusCheck(ctx context.Context, transaction *entity.Transaction) error

	// UpdateDistributionState persists distributionState, attempt count and last
	// error. Used outside the distribution commit boundary to record failures.
	UpdateDistributionState(ctx context.Context, transaction *entity.Transaction) error

	// MarkDistributed flips distributionState PENDING -> DISTRIBUTED as a
	// conditional write. Called inside the distribution unit of work; a zero-row
	// update surfaces as ErrAlreadyDistributed, which is what makes the fund
	// split exactly-once under concurrent sweeps.
	MarkDistributed(ctx context.Context, transaction *entity.Transaction) error

	// ListPendingProvider returns transactions awaiting provider resolution,
	// oldest first, bounded by limit
	ListPendingProvider(ctx context.Context, limit int) ([]*entity.Transaction, error)

	// ListPendingDistribution returns completed transactions whose proceeds have
	// not yet been distributed, below the attempt ceiling, oldest first
	ListPendingDistribution(ctx context.Context, maxAttempts, limit int) ([]*entity.Transaction, error)
}
