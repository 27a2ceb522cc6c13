package notification

import (
	"context"
)

// EventType identifies the kind of notification being emitted
type EventType string

// Notification event types
const (
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
	EventWalletCredited   EventType = "wallet.credited"
	EventRefundIssued     EventType = "refund.issued"
)

// Event is the message handed to the external notification service. Rendering
// and delivery guarantees are that service's concern, not ours.
type Event struct {
	Type          EventType         `json:"type"`
	RecipientID   string            `json:"recipientId"`
	TransactionID string            `json:"transactionId"`
	Amounts       map[string]string `json:"amounts,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// Publisher emits notification events to the notification service
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
