package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/persistence"
	pport "github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	transactionUseCase "github.com/amoria-global/faxon-sub002/internal/domain/usecase/transaction"
)

// SweeperConfig bounds the two background sweeps
type SweeperConfig struct {
	// PollBatchSize caps how many pending transactions one status sweep touches
	PollBatchSize int
	// QueryTimeout bounds each provider status query
	QueryTimeout time.Duration
	// MaxAge is how long a transaction may wait on a provider before expiry
	MaxAge time.Duration
	// DistributionBatchSize caps how many transactions one distribution sweep touches
	DistributionBatchSize int
	// MaxDistributionAttempts is the retry ceiling passed to the pending query
	MaxDistributionAttempts int
	// BackoffBase is the first retry delay; it doubles per recorded attempt
	BackoffBase time.Duration
	// Workers bounds sweep concurrency. Transactions are independent, so the
	// only mutual exclusion needed is per-reference, which the reconciler and
	// repository already provide.
	Workers int
}

// StatusApplier funnels poll results and expiry decisions into reconciliation
type StatusApplier interface {
	ApplyProviderStatus(ctx context.Context, reference string, update transactionUseCase.StatusUpdate) error
	Expire(ctx context.Context, reference string) error
}

// Sweeper runs the recovery loops that resolve transactions no webhook ever
// arrived for: polling provider status and retrying failed distributions.
type Sweeper struct {
	repo         persistence.TransactionRepository
	registry     *pport.Registry
	reconciler   StatusApplier
	distributor  transactionUseCase.Distributor
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	config       SweeperConfig
}

// NewSweeper creates the sweep job runner
func NewSweeper(
	repo persistence.TransactionRepository,
	registry *pport.Registry,
	reconciler StatusApplier,
	distributor transactionUseCase.Distributor,
	logger coreport.Logger,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	config SweeperConfig,
) *Sweeper {
	if config.Workers <= 0 {
		config.Workers = 8
	}
	return &Sweeper{
		repo:         repo,
		registry:     registry,
		reconciler:   reconciler,
		distributor:  distributor,
		logger:       logger,
		timeProvider: timeProvider,
		metrics:      metrics,
		config:       config,
	}
}

// SweepStatuses polls the provider for every transaction still waiting on an
// answer, expiring those past the age ceiling. Individual failures are logged
// and never abort the batch.
func (s *Sweeper) SweepStatuses(ctx context.Context) {
	s.metrics.IncSweepRun("status")

	pending, err := s.repo.ListPendingProvider(ctx, s.config.PollBatchSize)
	if err != nil {
		s.logger.Error("Status sweep could not list pending transactions", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if len(pending) == 0 {
		return
	}

	s.logger.Debug("Status sweep started", map[string]any{
		"batch_size": len(pending),
	})

	s.forEach(ctx, pending, s.pollOne)
}

// pollOne resolves the status of one pending transaction
func (s *Sweeper) pollOne(ctx context.Context, txn *entity.Transaction) {
	if s.timeProvider.Since(txn.CreatedAt) > s.config.MaxAge {
		if err := s.reconciler.Expire(ctx, txn.Reference); err != nil {
			s.logger.Error("Failed to expire stale transaction", map[string]any{
				"reference": txn.Reference,
				"error":     err.Error(),
			})
		}
		return
	}

	adapter, err := s.registry.Resolve(txn.Provider)
	if err != nil {
		s.logger.Error("Status sweep hit unknown provider", map[string]any{
			"reference": txn.Reference,
			"provider":  string(txn.Provider),
		})
		return
	}

	// An ambiguous submission has no provider reference yet; those networks
	// accept a lookup by our reference instead.
	providerRef := txn.ProviderTransactionRef
	if providerRef == "" {
		providerRef = txn.Reference
	}

	queryCtx, cancel := s.timeProvider.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	result, err := adapter.QueryStatus(queryCtx, providerRef)

	var update transactionUseCase.StatusUpdate
	switch {
	case err == nil:
		update = transactionUseCase.StatusUpdate{
			Status:        result.Status,
			ProviderRef:   txn.ProviderTransactionRef,
			SettledAmount: result.SettledAmount,
			FailureCode:   result.FailureCode,
			FailureReason: result.FailureReason,
		}
	case queryCtx.Err() != nil:
		// No answer is never success or failure
		update = transactionUseCase.StatusUpdate{Status: pport.StatusInProgress}
	default:
		s.logger.Warn("Status query failed, will retry next sweep", map[string]any{
			"reference": txn.Reference,
			"provider":  string(txn.Provider),
			"error":     err.Error(),
		})
		return
	}

	if err := s.reconciler.ApplyProviderStatus(ctx, txn.Reference, update); err != nil {
		s.logger.Error("Status sweep reconciliation failed", map[string]any{
			"reference": txn.Reference,
			"error":     err.Error(),
		})
	}
}

// SweepDistributions retries fund splits for completed transactions whose
// proceeds are still undistributed, honoring per-transaction backoff.
func (s *Sweeper) SweepDistributions(ctx context.Context) {
	s.metrics.IncSweepRun("distribution")

	pending, err := s.repo.ListPendingDistribution(ctx, s.config.MaxDistributionAttempts, s.config.DistributionBatchSize)
	if err != nil {
		s.logger.Error("Distribution sweep could not list pending transactions", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if len(pending) == 0 {
		return
	}

	s.logger.Debug("Distribution sweep started", map[string]any{
		"batch_size": len(pending),
	})

	s.forEach(ctx, pending, s.distributeOne)
}

// distributeOne retries one pending distribution unless it is still in backoff
func (s *Sweeper) distributeOne(ctx context.Context, txn *entity.Transaction) {
	if !s.backoffElapsed(txn) {
		return
	}

	if err := s.distributor.Distribute(ctx, txn.Reference); err != nil {
		s.logger.Warn("Distribution retry failed", map[string]any{
			"reference": txn.Reference,
			"attempts":  txn.DistributionAttempts,
			"error":     err.Error(),
		})
	}
}

// backoffElapsed reports whether enough time has passed since the last failed
// attempt. The delay doubles per attempt: base, 2*base, 4*base.
func (s *Sweeper) backoffElapsed(txn *entity.Transaction) bool {
	if txn.DistributionAttempts == 0 || txn.LastDistributionAt == nil {
		return true
	}
	delay := s.config.BackoffBase << (txn.DistributionAttempts - 1)
	return s.timeProvider.Since(*txn.LastDistributionAt) >= delay
}

// forEach fans a batch out over a bounded worker pool and waits for it to drain
func (s *Sweeper) forEach(ctx context.Context, batch []*entity.Transaction, fn func(context.Context, *entity.Transaction)) {
	sem := make(chan struct{}, s.config.Workers)
	var wg sync.WaitGroup

	for _, txn := range batch {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(txn *entity.Transaction) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, txn)
		}(txn)
	}

	wg.Wait()
}
