package provider

import (
	"context"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
)

// Status is the normalized provider status vocabulary. Every adapter maps its
// network's native statuses onto these four values; the reconciliation layer
// never sees provider-specific schemas.
type Status string

// Normalized statuses
const (
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusUnknown    Status = "UNKNOWN"
)

// SubmitRequest carries everything an adapter needs to submit a payment
type SubmitRequest struct {
	Reference    string
	Amount       entity.Amount
	PayerID      string
	PayerDetails map[string]string
}

// SubmitResult is the adapter's answer to a successful submission
type SubmitResult struct {
	ProviderRef   string
	InitialStatus Status
}

// StatusResult is the adapter's answer to a status query. FailureCode and
// FailureReason are populated only on terminal failure, already normalized.
type StatusResult struct {
	Status        Status
	SettledAmount *entity.Amount // Non-nil when the provider settles in a different currency
	FailureCode   string
	FailureReason string
}

// CallbackEvent is a provider webhook payload normalized by the adapter
type CallbackEvent struct {
	Reference     string
	ProviderRef   string
	Status        Status
	SettledAmount *entity.Amount
	FailureCode   string
	FailureReason string
}

// Adapter is the contract each payment rail implementation must satisfy.
//
// Submit must be safe to call at most once per reference: an adapter must
// reject a duplicate submission attempt for an already-submitted reference
// rather than re-submit to the network. A definite rejection surfaces as a
// *SubmitError; an ambiguous outcome (the request may have reached the network)
// surfaces as an *AmbiguousSubmitError so the caller parks the transaction in
// PENDING_PROVIDER and lets polling resolve it.
//
// QueryStatus timing out must be reported as IN_PROGRESS by the caller: the
// absence of an answer is never success or failure.
type Adapter interface {
	// Name returns the rail this adapter serves
	Name() entity.Provider

	// Submit sends a payment request to the provider network
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)

	// QueryStatus fetches the current status for a previously submitted payment
	QueryStatus(ctx context.Context, providerRef string) (*StatusResult, error)

	// VerifySignature checks a webhook payload against the provider's shared secret
	VerifySignature(body []byte, signature string) bool

	// ParseCallback normalizes a verified webhook payload
	ParseCallback(body []byte) (*CallbackEvent, error)
}
