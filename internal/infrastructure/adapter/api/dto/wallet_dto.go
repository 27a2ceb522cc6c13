package dto

import (
	"time"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
)

// BalanceResponse represents a party's derived wallet balance
type BalanceResponse struct {
	PartyID  string `json:"partyId"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// LedgerEntryResponse represents one ledger entry in a statement
type LedgerEntryResponse struct {
	Reference string    `json:"reference"`
	Role      string    `json:"role"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatementResponse represents a party's recent ledger activity
type StatementResponse struct {
	PartyID string                `json:"partyId"`
	Entries []LedgerEntryResponse `json:"entries"`
}

// FromLedgerEntries maps domain ledger entries to their API representation
func FromLedgerEntries(partyID string, entries []entity.WalletLedgerEntry) StatementResponse {
	resp := StatementResponse{
		PartyID: partyID,
		Entries: make([]LedgerEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LedgerEntryResponse{
			Reference: e.Reference,
			Role:      string(e.Role),
			Amount:    e.Amount.String(),
			Currency:  e.Amount.Currency,
			CreatedAt: e.CreatedAt,
		})
	}
	return resp
}
