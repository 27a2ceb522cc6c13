package distribution

import (
	"context"
	"errors"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/persistence"
)

// Rules holds the two configured split tables. Agent-present bookings use
// WithAgent, the rest use WithoutAgent. The configured table is the single
// authoritative source for split percentages.
type Rules struct {
	WithAgent    entity.SplitRule
	WithoutAgent entity.SplitRule
}

// Config holds distribution engine settings
type Config struct {
	Rules             Rules
	PlatformAccountID string
	MaxAttempts       int
}

// Engine converts a completed transaction into wallet credits exactly once.
// Ledger entries and the distribution state flip are committed in a single
// database transaction; if any part fails, none of it is committed and the
// state stays PENDING for the sweep to retry.
type Engine struct {
	uow          persistence.UnitOfWork
	repo         persistence.TransactionRepository
	notifier     notification.Publisher
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	cfg          Config
}

// NewEngine creates the distribution engine
func NewEngine(
	uow persistence.UnitOfWork,
	repo persistence.TransactionRepository,
	notifier notification.Publisher,
	logger coreport.Logger,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	cfg Config,
) *Engine {
	return &Engine{
		uow:          uow,
		repo:         repo,
		notifier:     notifier,
		logger:       logger,
		timeProvider: timeProvider,
		metrics:      metrics,
		cfg:          cfg,
	}
}

// Distribute splits a completed transaction's settled amount into host, agent
// and platform wallet credits. Safe to call repeatedly: already-distributed
// transactions are a logged no-op.
func (e *Engine) Distribute(ctx context.Context, reference string) error {
	txn, err := e.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}

	switch txn.DistributionState {
	case entity.DistributionDistributed:
		e.logger.Debug("Distribution already applied", map[string]any{"reference": reference})
		return nil
	case entity.DistributionFailed:
		return errs.ErrNotDistributable
	case entity.DistributionPending:
		// proceed
	default:
		return errs.ErrNotDistributable
	}
	if txn.Status != entity.StatusCompleted || txn.AmountSettled == nil {
		return errs.ErrNotDistributable
	}

	entries := e.buildEntries(txn)

	if err := e.commit(ctx, txn, entries); err != nil {
		return e.recordFailure(ctx, txn, err)
	}

	e.metrics.IncDistributionCompleted()
	e.logger.Info("Distribution committed", map[string]any{
		"reference":      txn.Reference,
		"amount_settled": txn.AmountSettled.String(),
		"entries":        len(entries),
	})

	// Notifications go out only after the commit, so none are ever sent for
	// money that didn't move
	for _, entry := range entries {
		e.publish(ctx, notification.Event{
			Type:          notification.EventWalletCredited,
			RecipientID:   entry.PartyID,
			TransactionID: txn.Reference,
			Amounts: map[string]string{
				string(entry.Role): entry.Amount.String(),
			},
		})
	}
	return nil
}

// buildEntries computes the per-party ledger entries for a settled transaction
func (e *Engine) buildEntries(txn *entity.Transaction) []entity.WalletLedgerEntry {
	rule := e.cfg.Rules.WithoutAgent
	if txn.HasAgent() {
		rule = e.cfg.Rules.WithAgent
	}
	shares := rule.Split(*txn.AmountSettled)
	now := e.timeProvider.Now()

	entries := []entity.WalletLedgerEntry{
		entity.NewLedgerEntry(txn.RecipientID, txn.ID, txn.Reference, entity.RoleHostEarning, shares.Host, now),
	}
	if txn.HasAgent() && shares.Agent.MinorUnits > 0 {
		entries = append(entries,
			entity.NewLedgerEntry(txn.AgentID, txn.ID, txn.Reference, entity.RoleAgentCommission, shares.Agent, now))
	} else {
		// An agent-absent booking folds the agent share into the platform
		shares.Platform.MinorUnits += shares.Agent.MinorUnits
	}
	entries = append(entries,
		entity.NewLedgerEntry(e.cfg.PlatformAccountID, txn.ID, txn.Reference, entity.RolePlatformFee, shares.Platform, now))

	return entries
}

// commit writes the ledger entries and the state flip atomically
func (e *Engine) commit(ctx context.Context, txn *entity.Transaction, entries []entity.WalletLedgerEntry) error {
	txCtx, err := e.uow.Begin(ctx)
	if err != nil {
		return err
	}

	walletRepo := e.uow.GetWalletRepository(txCtx)
	if err := walletRepo.AppendEntries(txCtx, entries); err != nil {
		_ = e.uow.Rollback(txCtx)
		return err
	}

	now := e.timeProvider.Now()
	txn.DistributionState = entity.DistributionDistributed
	txn.DistributionAttempts++
	txn.LastDistributionAt = &now
	txn.LastDistributionError = ""

	txRepo := e.uow.GetTransactionRepository(txCtx)
	if err := txRepo.MarkDistributed(txCtx, txn); err != nil {
		_ = e.uow.Rollback(txCtx)
		return err
	}

	return e.uow.Commit(txCtx)
}

// recordFailure persists a failed attempt. Past the attempt ceiling the state
// moves to FAILED and an operator alert is raised; funds are never silently
// lost, the transaction stays queryable and resumable.
func (e *Engine) recordFailure(ctx context.Context, txn *entity.Transaction, cause error) error {
	if errs.IsConflictError(cause) || errors.Is(cause, errs.ErrAlreadyDistributed) {
		// Another worker won the conditional write; their commit stands
		e.logger.Debug("Distribution already applied by concurrent worker", map[string]any{
			"reference": txn.Reference,
		})
		return nil
	}

	now := e.timeProvider.Now()
	txn.DistributionState = entity.DistributionPending
	txn.DistributionAttempts++
	txn.LastDistributionAt = &now
	txn.LastDistributionError = cause.Error()

	distErr := errs.NewDistributionError(txn.Reference, txn.DistributionAttempts, cause)

	if txn.DistributionAttempts >= e.cfg.MaxAttempts {
		txn.DistributionState = entity.DistributionFailed
		e.metrics.IncDistributionFailed()
		e.logger.Error("Distribution exhausted retry budget, operator action required", map[string]any{
			"reference": txn.Reference,
			"attempts":  txn.DistributionAttempts,
			"error":     cause.Error(),
		})
	} else {
		e.logger.Warn("Distribution attempt failed, will retry", map[string]any{
			"reference": txn.Reference,
			"attempt":   txn.DistributionAttempts,
			"error":     cause.Error(),
		})
	}

	if err := e.repo.UpdateDistributionState(ctx, txn); err != nil {
		e.logger.Error("Failed to persist distribution failure", map[string]any{
			"reference": txn.Reference,
			"error":     err.Error(),
		})
	}

	return distErr
}

// publish emits a notification event, logging failures without propagating them
func (e *Engine) publish(ctx context.Context, event notification.Event) {
	if err := e.notifier.Publish(ctx, event); err != nil {
		e.logger.Error("Failed to publish notification event", map[string]any{
			"event_type": event.Type,
			"reference":  event.TransactionID,
			"error":      err.Error(),
		})
	}
}
