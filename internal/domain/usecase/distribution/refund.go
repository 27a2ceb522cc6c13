package distribution

import (
	"context"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
)

// Refund reverses a completed, distributed transaction. A new linked reverse
// transaction is created and each party's credit is clawed back with a REFUND
// ledger entry; the original is marked REFUNDED. All of it commits atomically
// or not at all, and the original transaction is never mutated backwards.
func (e *Engine) Refund(ctx context.Context, reference string) (*entity.Transaction, error) {
	original, err := e.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if original.Status == entity.StatusRefunded {
		return nil, errs.ErrAlreadyRefunded
	}
	if original.Status != entity.StatusCompleted || original.DistributionState != entity.DistributionDistributed {
		return nil, errs.ErrNotRefundable
	}

	txCtx, err := e.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}

	walletRepo := e.uow.GetWalletRepository(txCtx)
	originalEntries, err := walletRepo.ListByTransaction(txCtx, original.ID)
	if err != nil {
		_ = e.uow.Rollback(txCtx)
		return nil, err
	}

	reverse := entity.NewRefundTransaction(original, e.timeProvider)
	txRepo := e.uow.GetTransactionRepository(txCtx)
	if err := txRepo.Create(txCtx, reverse); err != nil {
		_ = e.uow.Rollback(txCtx)
		return nil, err
	}

	now := e.timeProvider.Now()
	reversals := make([]entity.WalletLedgerEntry, 0, len(originalEntries))
	for _, entry := range originalEntries {
		if entry.Role == entity.RoleRefund {
			continue
		}
		reversals = append(reversals, entity.NewLedgerEntry(
			entry.PartyID, reverse.ID, reverse.Reference, entity.RoleRefund, entry.Amount.Negate(), now))
	}
	if err := walletRepo.AppendEntries(txCtx, reversals); err != nil {
		_ = e.uow.Rollback(txCtx)
		return nil, err
	}

	expected := original.Status
	if err := original.MarkRefunded(); err != nil {
		_ = e.uow.Rollback(txCtx)
		return nil, err
	}
	if err := txRepo.UpdateStatusIf(txCtx, original, expected); err != nil {
		_ = e.uow.Rollback(txCtx)
		return nil, err
	}

	if err := e.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	e.logger.Info("Refund committed", map[string]any{
		"reference":        original.Reference,
		"refund_reference": reverse.Reference,
		"entries_reversed": len(reversals),
	})

	e.publish(ctx, notification.Event{
		Type:          notification.EventRefundIssued,
		RecipientID:   original.PayerID,
		TransactionID: reverse.Reference,
		Amounts: map[string]string{
			"refunded": original.AmountSettled.String(),
		},
	})

	return reverse, nil
}
