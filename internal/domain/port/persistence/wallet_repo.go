package persistence

import (
	"context"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
)

// WalletRepository manages the append-only wallet ledger. There is no update or
// delete: balances are derived by summation, never mutated in place.
type WalletRepository interface {
	// AppendEntries writes ledger entries. Inside a unit of work these commit or
	// roll back together with the transaction's distribution state, which is the
	// exactly-once boundary for fund splitting.
	AppendEntries(ctx context.Context, entries []entity.WalletLedgerEntry) error

	// BalanceOf derives a party's balance in the given currency as the sum of
	// its ledger entries
	BalanceOf(ctx context.Context, partyID, currency string) (entity.Amount, error)

	// ListByTransaction returns all entries caused by a transaction, for audit
	ListByTransaction(ctx context.Context, transactionID uint64) ([]entity.WalletLedgerEntry, error)

	// ListByParty returns a party's entries, newest first, bounded by limit
	ListByParty(ctx context.Context, partyID string, limit int) ([]entity.WalletLedgerEntry, error)
}
