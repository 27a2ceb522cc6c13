package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/model"
)

// WalletRepository implements the WalletRepository port over the append-only
// ledger table
type WalletRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewWalletRepository creates a new WalletRepository instance
func NewWalletRepository(db *gorm.DB, logger coreport.Logger) *WalletRepository {
	return &WalletRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func entryToModel(entry entity.WalletLedgerEntry) model.WalletLedgerEntry {
	return model.WalletLedgerEntry{
		ID:            entry.ID,
		PartyID:       entry.PartyID,
		TransactionID: entry.TransactionID,
		Reference:     entry.Reference,
		Role:          string(entry.Role),
		AmountMinor:   entry.Amount.MinorUnits,
		Currency:      entry.Amount.Currency,
		CreatedAt:     entry.CreatedAt,
	}
}

func modelToEntry(m *model.WalletLedgerEntry) entity.WalletLedgerEntry {
	return entity.WalletLedgerEntry{
		ID:            m.ID,
		PartyID:       m.PartyID,
		TransactionID: m.TransactionID,
		Reference:     m.Reference,
		Role:          entity.SplitRole(m.Role),
		Amount: entity.Amount{
			MinorUnits: m.AmountMinor,
			Currency:   m.Currency,
		},
		CreatedAt: m.CreatedAt,
	}
}

// AppendEntries inserts ledger entries. There is no update path: the ledger
// only ever grows.
func (r *WalletRepository) AppendEntries(ctx context.Context, entries []entity.WalletLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]model.WalletLedgerEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entryToModel(entry))
	}

	result := r.db.WithContext(ctx).Create(&rows)
	if result.Error != nil {
		r.logger.Error("Failed to append ledger entries", map[string]any{
			"count": len(entries),
			"error": result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return nil
}

// BalanceOf derives a party's balance as the sum of its ledger entries in the
// given currency
func (r *WalletRepository) BalanceOf(ctx context.Context, partyID, currency string) (entity.Amount, error) {
	currency = strings.ToUpper(currency)
	if !entity.IsSupportedCurrency(currency) {
		return entity.Amount{}, fmt.Errorf("%w: %s", errs.ErrInvalidCurrency, currency)
	}

	var total struct {
		Sum int64
	}
	result := r.db.WithContext(ctx).Model(&model.WalletLedgerEntry{}).
		Select("COALESCE(SUM(amount_minor), 0) AS sum").
		Where("party_id = ? AND currency = ?", partyID, currency).
		Scan(&total)

	if result.Error != nil {
		r.logger.Error("Failed to derive balance", map[string]any{
			"party_id": partyID,
			"currency": currency,
			"error":    result.Error.Error(),
		})
		return entity.Amount{}, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return entity.Amount{MinorUnits: total.Sum, Currency: currency}, nil
}

// ListByTransaction returns every ledger entry caused by a transaction
func (r *WalletRepository) ListByTransaction(ctx context.Context, transactionID uint64) ([]entity.WalletLedgerEntry, error) {
	var rows []model.WalletLedgerEntry
	result := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&rows)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	entries := make([]entity.WalletLedgerEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, modelToEntry(&rows[i]))
	}
	return entries, nil
}

// ListByParty returns a party's entries, newest first
func (r *WalletRepository) ListByParty(ctx context.Context, partyID string, limit int) ([]entity.WalletLedgerEntry, error) {
	var rows []model.WalletLedgerEntry
	result := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	entries := make([]entity.WalletLedgerEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, modelToEntry(&rows[i]))
	}
	return entries, nil
}
