package model

import (
	"time"
)

// WalletLedgerEntry represents the database model for the append-only wallet
// ledger. Rows are only ever inserted; balances are sums over this table.
type WalletLedgerEntry struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	PartyID       string `gorm:"not null;size:64;index:idx_ledger_party_currency,priority:1"`
	TransactionID uint64 `gorm:"not null;index"`
	Reference     string `gorm:"not null;size:64;index"`
	Role          string `gorm:"not null;size:32"`
	AmountMinor   int64  `gorm:"not null"`
	Currency      string `gorm:"not null;size:3;index:idx_ledger_party_currency,priority:2"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName specifies the table name for WalletLedgerEntry
func (WalletLedgerEntry) TableName() string {
	return "wallet_ledger_entries"
}
