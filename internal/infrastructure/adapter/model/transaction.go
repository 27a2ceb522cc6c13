package model

import (
	"time"
)

// Transaction represents the database model for payment transactions
type Transaction struct {
	ID                     uint64 `gorm:"primaryKey;autoIncrement"`
	Reference              string `gorm:"uniqueIndex;not null;size:64"`
	Provider               string `gorm:"not null;size:32;index"`
	ProviderTransactionRef string `gorm:"size:128;index"`

	AmountRequested   int64  `gorm:"not null"`
	RequestedCurrency string `gorm:"not null;size:3"`
	AmountSettled     *int64
	SettledCurrency   string `gorm:"size:3"`
	ExchangeRate      string `gorm:"size:32"`
	AppliedSpreadBps  int64  `gorm:"not null;default:0"`

	Status            string `gorm:"not null;size:32;index:idx_transactions_status_created,priority:1"`
	FailureCode       string `gorm:"size:64"`
	FailureReason     string `gorm:"type:text"`
	StatusCheckCount  int    `gorm:"not null;default:0"`
	LastStatusCheckAt *time.Time

	BookingID   string `gorm:"not null;size:64;index"`
	PayerID     string `gorm:"not null;size:64"`
	RecipientID string `gorm:"size:64"`
	AgentID     string `gorm:"size:64"`

	DistributionState     string `gorm:"not null;size:32;index"`
	DistributionAttempts  int    `gorm:"not null;default:0"`
	LastDistributionAt    *time.Time
	LastDistributionError string `gorm:"type:text"`

	RefundOf string `gorm:"size:64;index"`

	CreatedAt   time.Time `gorm:"not null;index:idx_transactions_status_created,priority:2"`
	CompletedAt *time.Time
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
