package entity

import (
	"time"
)

// SplitRole tags a ledger entry with the reason a party's balance changed
type SplitRole string

// Split roles
const (
	RoleHostEarning     SplitRole = "HOST_EARNING"
	RoleAgentCommission SplitRole = "AGENT_COMMISSION"
	RolePlatformFee     SplitRole = "PLATFORM_FEE"
	RoleWithdrawal      SplitRole = "WITHDRAWAL"
	RoleRefund          SplitRole = "REFUND"
)

// WalletLedgerEntry is an immutable append-only credit or debit applied to a
// party's balance. Balances are never stored as mutable fields: a party's balance
// is the running sum of its entries, which removes lost-update races entirely.
type WalletLedgerEntry struct {
	ID            uint64
	PartyID       string
	TransactionID uint64 // Internal id of the transaction that caused this entry
	Reference     string // Transaction reference, kept for audit queries
	Role          SplitRole
	Amount        Amount // Negative minor units for debits
	CreatedAt     time.Time
}

// NewLedgerEntry creates a ledger entry tied to a transaction
func NewLedgerEntry(partyID string, txID uint64, reference string, role SplitRole, amount Amount, at time.Time) WalletLedgerEntry {
	return WalletLedgerEntry{
		PartyID:       partyID,
		TransactionID: txID,
		Reference:     reference,
		Role:          role,
		Amount:        amount,
		CreatedAt:     at,
	}
}

// IsCredit reports whether this entry increases the party's balance
func (e WalletLedgerEntry) IsCredit() bool {
	return e.Amount.MinorUnits > 0
}
