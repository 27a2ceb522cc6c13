package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/model"
)

// TransactionRepository implements the TransactionRepository port using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(txn *entity.Transaction) model.Transaction {
	m := model.Transaction{
		ID:                     txn.ID,
		Reference:              txn.Reference,
		Provider:               string(txn.Provider),
		ProviderTransactionRef: txn.ProviderTransactionRef,
		AmountRequested:        txn.AmountRequested.MinorUnits,
		RequestedCurrency:      txn.AmountRequested.Currency,
		AppliedSpreadBps:       txn.AppliedSpreadBps,
		Status:                 string(txn.Status),
		FailureCode:            txn.FailureCode,
		FailureReason:          txn.FailureReason,
		StatusCheckCount:       txn.StatusCheckCount,
		LastStatusCheckAt:      txn.LastStatusCheckAt,
		BookingID:              txn.BookingID,
		PayerID:                txn.PayerID,
		RecipientID:            txn.RecipientID,
		AgentID:                txn.AgentID,
		DistributionState:      string(txn.DistributionState),
		DistributionAttempts:   txn.DistributionAttempts,
		LastDistributionAt:     txn.LastDistributionAt,
		LastDistributionError:  txn.LastDistributionError,
		RefundOf:               txn.RefundOf,
		CreatedAt:              txn.CreatedAt,
		CompletedAt:            txn.CompletedAt,
	}
	if txn.AmountSettled != nil {
		settled := txn.AmountSettled.MinorUnits
		m.AmountSettled = &settled
		m.SettledCurrency = txn.AmountSettled.Currency
	}
	if txn.ExchangeRate != nil {
		m.ExchangeRate = txn.ExchangeRate.String()
	}
	return m
}

// modelToEntity converts a transaction model to an entity
func (r *TransactionRepository) modelToEntity(m *model.Transaction) *entity.Transaction {
	txn := &entity.Transaction{
		ID:                     m.ID,
		Reference:              m.Reference,
		Provider:               entity.Provider(m.Provider),
		ProviderTransactionRef: m.ProviderTransactionRef,
		AmountRequested: entity.Amount{
			MinorUnits: m.AmountRequested,
			Currency:   m.RequestedCurrency,
		},
		AppliedSpreadBps:      m.AppliedSpreadBps,
		Status:                entity.TransactionStatus(m.Status),
		FailureCode:           m.FailureCode,
		FailureReason:         m.FailureReason,
		StatusCheckCount:      m.StatusCheckCount,
		LastStatusCheckAt:     m.LastStatusCheckAt,
		BookingID:             m.BookingID,
		PayerID:               m.PayerID,
		RecipientID:           m.RecipientID,
		AgentID:               m.AgentID,
		DistributionState:     entity.DistributionState(m.DistributionState),
		DistributionAttempts:  m.DistributionAttempts,
		LastDistributionAt:    m.LastDistributionAt,
		LastDistributionError: m.LastDistributionError,
		RefundOf:              m.RefundOf,
		CreatedAt:             m.CreatedAt,
		CompletedAt:           m.CompletedAt,
	}
	if m.AmountSettled != nil {
		txn.AmountSettled = &entity.Amount{
			MinorUnits: *m.AmountSettled,
			Currency:   m.SettledCurrency,
		}
	}
	if m.ExchangeRate != "" {
		if rate, err := decimal.NewFromString(m.ExchangeRate); err == nil {
			txn.ExchangeRate = &rate
		}
	}
	return txn
}

// Create saves a new transaction. The unique index on reference is what makes
// the reference an idempotency key.
func (r *TransactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	r.logger.Debug("Creating transaction", map[string]any{
		"reference": txn.Reference,
		"provider":  txn.Provider,
	})

	transactionModel := r.entityToModel(txn)

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Duplicate transaction reference", map[string]any{
				"reference": txn.Reference,
			})
			return errs.ErrDuplicateReference
		}
		r.logger.Error("Failed to create transaction", map[string]any{
			"reference": txn.Reference,
			"error":     result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	txn.ID = transactionModel.ID
	return nil
}

// GetByReference retrieves a transaction by its external reference
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	var transactionModel model.Transaction
	result := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&transactionModel)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction", map[string]any{
			"reference": reference,
			"error":     result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&transactionModel), nil
}

// UpdateStatusIf writes the transaction's state only if the stored status still
// equals expected. A zero-row update means another writer got there first and
// surfaces as a ConflictError.
func (r *TransactionRepository) UpdateStatusIf(ctx context.Context, txn *entity.Transaction, expected entity.TransactionStatus) error {
	transactionModel := r.entityToModel(txn)

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("reference = ? AND status = ?", txn.Reference, string(expected)).
		Updates(map[string]interface{}{
			"status":                   transactionModel.Status,
			"provider_transaction_ref": transactionModel.ProviderTransactionRef,
			"amount_settled":           transactionModel.AmountSettled,
			"settled_currency":         transactionModel.SettledCurrency,
			"exchange_rate":            transactionModel.ExchangeRate,
			"applied_spread_bps":       transactionModel.AppliedSpreadBps,
			"failure_code":             transactionModel.FailureCode,
			"failure_reason":           transactionModel.FailureReason,
			"distribution_state":       transactionModel.DistributionState,
			"completed_at":             transactionModel.CompletedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction status", map[string]any{
			"reference": txn.Reference,
			"error":     result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		current, err := r.GetByReference(ctx, txn.Reference)
		if err != nil {
			return err
		}
		return errs.NewConflictError(txn.Reference, string(current.Status), string(txn.Status))
	}

	return nil
}

// RecordStatusCheck persists the poll counter and timestamp
func (r *TransactionRepository) RecordStatusCheck(ctx context.Context, txn *entity.Transaction) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("reference = ?", txn.Reference).
		Updates(map[string]interface{}{
			"status_check_count":   txn.StatusCheckCount,
			"last_status_check_at": txn.LastStatusCheckAt,
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// UpdateDistributionState persists the distribution bookkeeping outside the
// distribution commit boundary, used for recording failed attempts
func (r *TransactionRepository) UpdateDistributionState(ctx context.Context, txn *entity.Transaction) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("reference = ?", txn.Reference).
		Updates(map[string]interface{}{
			"distribution_state":      string(txn.DistributionState),
			"distribution_attempts":   txn.DistributionAttempts,
			"last_distribution_at":    txn.LastDistributionAt,
			"last_distribution_error": txn.LastDistributionError,
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

// MarkDistributed flips distribution state PENDING -> DISTRIBUTED conditionally.
// Zero rows affected means a concurrent worker already distributed; the caller
// treats that as ErrAlreadyDistributed and rolls back its own entries.
func (r *TransactionRepository) MarkDistributed(ctx context.Context, txn *entity.Transaction) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("reference = ? AND distribution_state = ?", txn.Reference, string(entity.DistributionPending)).
		Updates(map[string]interface{}{
			"distribution_state":      string(entity.DistributionDistributed),
			"distribution_attempts":   txn.DistributionAttempts,
			"last_distribution_at":    txn.LastDistributionAt,
			"last_distribution_error": "",
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark transaction distributed", map[string]any{
			"reference": txn.Reference,
			"error":     result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrAlreadyDistributed
	}
	return nil
}

// ListPendingProvider returns transactions awaiting provider resolution, oldest first
func (r *TransactionRepository) ListPendingProvider(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	var rows []model.Transaction
	result := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entity.StatusSubmitted),
			string(entity.StatusPendingProvider),
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	transactions := make([]*entity.Transaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, r.modelToEntity(&rows[i]))
	}
	return transactions, nil
}

// ListPendingDistribution returns settled transactions still owed a fund split,
// below the attempt ceiling, oldest first
func (r *TransactionRepository) ListPendingDistribution(ctx context.Context, maxAttempts, limit int) ([]*entity.Transaction, error) {
	var rows []model.Transaction
	result := r.db.WithContext(ctx).
		Where("status = ? AND distribution_state = ? AND distribution_attempts < ?",
			string(entity.StatusCompleted), string(entity.DistributionPending), maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	transactions := make([]*entity.Transaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, r.modelToEntity(&rows[i]))
	}
	return transactions, nil
}
