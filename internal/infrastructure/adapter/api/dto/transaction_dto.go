package dto

import (
	"time"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
)

// CreateTransactionRequest represents the API request to create and submit a payment.
// Reference is optional; supplying one makes the request idempotent, a retry with
// the same reference returns the original transaction.
type CreateTransactionRequest struct {
	Provider     string            `json:"provider" binding:"required,oneof=mobile_money card bank_transfer"`
	Amount       string            `json:"amount" binding:"required"`
	Currency     string            `json:"currency" binding:"required,len=3"`
	Reference    string            `json:"reference" binding:"omitempty,max=64"`
	BookingID    string            `json:"bookingId" binding:"required"`
	PayerID      string            `json:"payerId" binding:"required"`
	RecipientID  string            `json:"recipientId" binding:"required"`
	AgentID      string            `json:"agentId"`
	PayerDetails map[string]string `json:"payerDetails"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	Reference         string     `json:"reference"`
	Provider          string     `json:"provider"`
	ProviderRef       string     `json:"providerRef,omitempty"`
	Status            string     `json:"status"`
	AmountRequested   string     `json:"amountRequested"`
	RequestedCurrency string     `json:"requestedCurrency"`
	AmountSettled     string     `json:"amountSettled,omitempty"`
	SettledCurrency   string     `json:"settledCurrency,omitempty"`
	ExchangeRate      string     `json:"exchangeRate,omitempty"`
	FailureCode       string     `json:"failureCode,omitempty"`
	FailureReason     string     `json:"failureReason,omitempty"`
	DistributionState string     `json:"distributionState"`
	BookingID         string     `json:"bookingId"`
	RefundOf          string     `json:"refundOf,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

// FromTransaction maps a domain transaction to its API representation
func FromTransaction(txn *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Reference:         txn.Reference,
		Provider:          string(txn.Provider),
		ProviderRef:       txn.ProviderTransactionRef,
		Status:            string(txn.Status),
		AmountRequested:   txn.AmountRequested.String(),
		RequestedCurrency: txn.AmountRequested.Currency,
		FailureCode:       txn.FailureCode,
		FailureReason:     txn.FailureReason,
		DistributionState: string(txn.DistributionState),
		BookingID:         txn.BookingID,
		RefundOf:          txn.RefundOf,
		CreatedAt:         txn.CreatedAt,
		CompletedAt:       txn.CompletedAt,
	}
	if txn.AmountSettled != nil {
		resp.AmountSettled = txn.AmountSettled.String()
		resp.SettledCurrency = txn.AmountSettled.Currency
	}
	if txn.ExchangeRate != nil {
		resp.ExchangeRate = txn.ExchangeRate.String()
	}
	return resp
}
