package wallet

import (
	"context"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/persistence"
)

// Service answers wallet balance and statement queries. Balances are always
// derived from the append-only ledger, never read from a mutable field.
type Service struct {
	repo   persistence.WalletRepository
	logger coreport.Logger
}

// NewService creates the wallet query service
func NewService(repo persistence.WalletRepository, logger coreport.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Balance derives a party's balance in the given currency
func (s *Service) Balance(ctx context.Context, partyID, currency string) (entity.Amount, error) {
	return s.repo.BalanceOf(ctx, partyID, currency)
}

// Statement returns a party's most recent ledger entries
func (s *Service) Statement(ctx context.Context, partyID string, limit int) ([]entity.WalletLedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListByParty(ctx, partyID, limit)
}

// AuditTrail returns every ledger entry caused by one transaction
func (s *Service) AuditTrail(ctx context.Context, transactionID uint64) ([]entity.WalletLedgerEntry, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}
