package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	tport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
)

// Provider identifies one of the configured payment rails
type Provider string

// Supported payment rails
const (
	ProviderMobileMoney  Provider = "mobile_money"
	ProviderCard         Provider = "card"
	ProviderBankTransfer Provider = "bank_transfer"
)

// IsValidProvider validates if the provider is one of the configured rails
func IsValidProvider(provider string) bool {
	switch Provider(provider) {
	case ProviderMobileMoney, ProviderCard, ProviderBankTransfer:
		return true
	}
	return false
}

// TransactionStatus defines the lifecycle states of a payment attempt
type TransactionStatus string

// Transaction lifecycle states. Status only moves forward through the graph;
// REFUNDED is reached by creating a new reverse transaction, never by mutating
// the original backwards.
const (
	StatusCreated         TransactionStatus = "CREATED"
	StatusSubmitted       TransactionStatus = "SUBMITTED"
	StatusPendingProvider TransactionStatus = "PENDING_PROVIDER"
	StatusCompleted       TransactionStatus = "COMPLETED"
	StatusFailed          TransactionStatus = "FAILED"
	StatusExpired         TransactionStatus = "EXPIRED"
	StatusRefunded        TransactionStatus = "REFUNDED"
)

// statusGraph holds the allowed forward transitions
var statusGraph = map[TransactionStatus][]TransactionStatus{
	StatusCreated:         {StatusSubmitted, StatusPendingProvider, StatusFailed},
	StatusSubmitted:       {StatusPendingProvider, StatusCompleted, StatusFailed, StatusExpired},
	StatusPendingProvider: {StatusCompleted, StatusFailed, StatusExpired},
	StatusCompleted:       {StatusRefunded},
	StatusFailed:          {},
	StatusExpired:         {},
	StatusRefunded:        {},
}

// IsTerminalStatus reports whether a status admits no further provider-driven
// transitions. COMPLETED is terminal for reconciliation purposes; the only move
// out of it is an explicit refund.
func IsTerminalStatus(s TransactionStatus) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusRefunded:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is in the allowed status graph
func CanTransition(from, to TransactionStatus) bool {
	for _, allowed := range statusGraph[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// DistributionState tracks fund-splitting separately from payment status, so a
// confirmed settlement is never re-opened when distribution fails and retries.
type DistributionState string

// Distribution states
const (
	DistributionNotApplicable DistributionState = "NOT_APPLICABLE"
	DistributionPending       DistributionState = "PENDING"
	DistributionDistributed   DistributionState = "DISTRIBUTED"
	DistributionFailed        DistributionState = "FAILED"
)

// Transaction represents one payment attempt against a booking
type Transaction struct {
	ID        uint64 // Internal identifier, immutable
	Reference string // Externally visible idempotency key, unique

	Provider               Provider
	ProviderTransactionRef string // Empty until submission succeeds

	AmountRequested Amount           // In the payer-facing currency
	AmountSettled   *Amount          // In the provider's settlement currency, nil until known
	ExchangeRate    *decimal.Decimal // Nil until a conversion is applied
	AppliedSpreadBps int64

	Status            TransactionStatus
	FailureCode       string
	FailureReason     string
	StatusCheckCount  int
	LastStatusCheckAt *time.Time

	BookingID   string
	PayerID     string
	RecipientID string // Host party; empty for refund reversals
	AgentID     string // Empty when the booking has no agent

	DistributionState     DistributionState
	DistributionAttempts  int
	LastDistributionAt    *time.Time
	LastDistributionError string

	// RefundOf links a reverse transaction to the completed transaction it refunds
	RefundOf string

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NewTransaction creates a transaction in CREATED with a generated reference
func NewTransaction(
	provider string,
	amount Amount,
	bookingID, payerID, recipientID, agentID string,
	timeProvider tport.TimeProvider,
) (*Transaction, error) {
	if !IsValidProvider(provider) {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidProvider, provider)
	}
	if amount.MinorUnits <= 0 {
		return nil, errs.ErrNegativeAmount
	}
	if bookingID == "" {
		return nil, errs.ErrInvalidBooking
	}
	if payerID == "" {
		return nil, errs.ErrInvalidPayer
	}

	return &Transaction{
		Reference:         NewReference(),
		Provider:          Provider(provider),
		AmountRequested:   amount,
		Status:            StatusCreated,
		BookingID:         bookingID,
		PayerID:           payerID,
		RecipientID:       recipientID,
		AgentID:           agentID,
		DistributionState: DistributionNotApplicable,
		CreatedAt:         timeProvider.Now(),
	}, nil
}

// NewReference generates an externally visible transaction reference
func NewReference() string {
	return "TXN-" + uuid.NewString()
}

// NewRefundTransaction builds the reverse transaction for a completed, refunded
// payment. The reverse is born settled: it records money already clawed back,
// not a new provider submission.
func NewRefundTransaction(original *Transaction, timeProvider tport.TimeProvider) *Transaction {
	now := timeProvider.Now()
	settled := original.AmountSettled.Negate()
	return &Transaction{
		Reference:         "RFD-" + uuid.NewString(),
		Provider:          original.Provider,
		AmountRequested:   original.AmountRequested.Negate(),
		AmountSettled:     &settled,
		ExchangeRate:      original.ExchangeRate,
		AppliedSpreadBps:  original.AppliedSpreadBps,
		Status:            StatusCompleted,
		BookingID:         original.BookingID,
		PayerID:           original.PayerID,
		RecipientID:       original.RecipientID,
		AgentID:           original.AgentID,
		DistributionState: DistributionDistributed,
		RefundOf:          original.Reference,
		CreatedAt:         now,
		CompletedAt:       &now,
	}
}

// IsTerminal reports whether the transaction admits no further status transitions
func (t *Transaction) IsTerminal() bool {
	return IsTerminalStatus(t.Status)
}

// HasAgent reports whether the underlying booking involved an agent, which
// selects the applicable split rule at distribution time
func (t *Transaction) HasAgent() bool {
	return t.AgentID != ""
}

// transition applies a status change after checking the graph. Attempts out of a
// terminal status come back as a ConflictError so callers can log and drop them.
func (t *Transaction) transition(to TransactionStatus) error {
	if t.IsTerminal() {
		return errs.NewConflictError(t.Reference, string(t.Status), string(to))
	}
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, t.Status, to)
	}
	t.Status = to
	return nil
}

// MarkSubmitted records a successful adapter submission
func (t *Transaction) MarkSubmitted(providerRef string) error {
	if err := t.transition(StatusSubmitted); err != nil {
		return err
	}
	t.ProviderTransactionRef = providerRef
	return nil
}

// MarkPendingProvider records that the provider accepted the request but has not
// yet resolved it
func (t *Transaction) MarkPendingProvider() error {
	return t.transition(StatusPendingProvider)
}

// MarkCompleted records settlement. The settled amount and rate are nil-safe: a
// same-currency settlement carries no conversion.
func (t *Transaction) MarkCompleted(settled Amount, rate *decimal.Decimal, spreadBps int64, timeProvider tport.TimeProvider) error {
	if err := t.transition(StatusCompleted); err != nil {
		return err
	}
	now := timeProvider.Now()
	t.CompletedAt = &now
	t.AmountSettled = &settled
	t.ExchangeRate = rate
	t.AppliedSpreadBps = spreadBps
	t.DistributionState = DistributionPending
	return nil
}

// MarkFailed records a normalized terminal failure from the provider
func (t *Transaction) MarkFailed(code, reason string) error {
	if err := t.transition(StatusFailed); err != nil {
		return err
	}
	t.FailureCode = code
	t.FailureReason = reason
	return nil
}

// MarkExpired records that the transaction aged out of PENDING_PROVIDER without
// resolution. Expiry is decided by the scheduler, not the provider.
func (t *Transaction) MarkExpired() error {
	return t.transition(StatusExpired)
}

// MarkRefunded links the original completed transaction to its reverse
func (t *Transaction) MarkRefunded() error {
	if t.Status == StatusRefunded {
		return errs.ErrAlreadyRefunded
	}
	if t.Status != StatusCompleted {
		return errs.ErrNotRefundable
	}
	t.Status = StatusRefunded
	return nil
}

// RecordStatusCheck bumps the poll counter after a scheduler-driven status query
func (t *Transaction) RecordStatusCheck(timeProvider tport.TimeProvider) {
	now := timeProvider.Now()
	t.StatusCheckCount++
	t.LastStatusCheckAt = &now
}

// Age returns how long the transaction has existed
func (t *Transaction) Age(timeProvider tport.TimeProvider) time.Duration {
	return timeProvider.Now().Sub(t.CreatedAt)
}
