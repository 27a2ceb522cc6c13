package transaction

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/persistence"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	"github.com/amoria-global/faxon-sub002/internal/domain/usecase/currency"
)

// Distributor triggers fund splitting for a completed transaction
type Distributor interface {
	Distribute(ctx context.Context, reference string) error
}

// StatusUpdate carries a normalized provider status into reconciliation,
// whether it arrived by webhook or by poll
type StatusUpdate struct {
	Status        provider.Status
	ProviderRef   string
	SettledAmount *entity.Amount
	FailureCode   string
	FailureReason string
}

// Reconciler is the single writer of transaction status. Webhook callbacks and
// scheduled poll results both funnel through ApplyProviderStatus, so the state
// machine has one code path regardless of origin.
//
// Updates to one transaction are serialized two ways: a per-reference lock
// covers racing writers inside this process, and every status write is a
// conditional update keyed on the expected pre-state, which covers writers in
// other processes. A late poll result arriving after a callback has completed
// the transaction becomes a logged no-op.
type Reconciler struct {
	repo         persistence.TransactionRepository
	converter    *currency.Converter
	distributor  Distributor
	notifier     notification.Publisher
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics

	// Currency the platform settles into when the provider reports no
	// settlement amount of its own
	settlementCurrency string

	// Per-reference mutexes, evicted once the transaction turns terminal so the
	// map doesn't grow with the lifetime of the process. A writer that raced the
	// eviction just re-reads a terminal record and no-ops; the conditional
	// update is what guarantees correctness.
	refLocks sync.Map // map[string]*sync.Mutex
}

// NewReconciler creates the reconciliation service
func NewReconciler(
	repo persistence.TransactionRepository,
	converter *currency.Converter,
	distributor Distributor,
	notifier notification.Publisher,
	logger coreport.Logger,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	settlementCurrency string,
) *Reconciler {
	return &Reconciler{
		repo:               repo,
		converter:          converter,
		distributor:        distributor,
		notifier:           notifier,
		logger:             logger,
		timeProvider:       timeProvider,
		metrics:            metrics,
		settlementCurrency: settlementCurrency,
	}
}

// lockRef returns the mutex serializing updates for one reference
func (r *Reconciler) lockRef(reference string) *sync.Mutex {
	mu, _ := r.refLocks.LoadOrStore(reference, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ApplyProviderStatus advances a transaction's state from a normalized provider
// status. Terminal transactions turn the update into a logged no-op; that is
// the core defense against duplicate webhook delivery and poll/callback races.
func (r *Reconciler) ApplyProviderStatus(ctx context.Context, reference string, update StatusUpdate) error {
	mu := r.lockRef(reference)
	mu.Lock()
	defer mu.Unlock()

	txn, err := r.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}

	if txn.IsTerminal() {
		r.logConflict(txn, update)
		r.refLocks.Delete(reference)
		return nil
	}

	var applyErr error
	switch update.Status {
	case provider.StatusSucceeded:
		applyErr = r.complete(ctx, txn, update)
	case provider.StatusFailed:
		applyErr = r.fail(ctx, txn, update)
	case provider.StatusInProgress:
		applyErr = r.markInProgress(ctx, txn)
	default:
		// UNKNOWN: no answer is neither success nor failure; just record the check
		txn.RecordStatusCheck(r.timeProvider)
		applyErr = r.repo.RecordStatusCheck(ctx, txn)
	}

	if applyErr == nil && txn.IsTerminal() {
		r.refLocks.Delete(reference)
	}
	return applyErr
}

// Expire moves an unresolved transaction past the age ceiling to EXPIRED.
// Called by the scheduler, never by a provider.
func (r *Reconciler) Expire(ctx context.Context, reference string) error {
	mu := r.lockRef(reference)
	mu.Lock()
	defer mu.Unlock()

	txn, err := r.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if txn.IsTerminal() {
		r.refLocks.Delete(reference)
		return nil
	}

	expected := txn.Status
	if err := txn.MarkExpired(); err != nil {
		return err
	}
	if err := r.repo.UpdateStatusIf(ctx, txn, expected); err != nil {
		if errs.IsConflictError(err) {
			return nil
		}
		return err
	}
	r.refLocks.Delete(reference)

	r.metrics.IncTransactionExpired()
	r.logger.Warn("Transaction expired without provider resolution", map[string]any{
		"reference":          txn.Reference,
		"provider":           txn.Provider,
		"status_check_count": txn.StatusCheckCount,
	})
	return nil
}

// complete settles the transaction and hands it to the distribution engine
func (r *Reconciler) complete(ctx context.Context, txn *entity.Transaction, update StatusUpdate) error {
	settled, rate, err := r.resolveSettlement(ctx, txn, update)
	if err != nil {
		return err
	}

	expected := txn.Status
	if update.ProviderRef != "" && txn.ProviderTransactionRef == "" {
		txn.ProviderTransactionRef = update.ProviderRef
	}
	if err := txn.MarkCompleted(settled, rate, r.converter.SpreadBps(), r.timeProvider); err != nil {
		if errs.IsConflictError(err) {
			r.logConflict(txn, update)
			return nil
		}
		return err
	}
	if err := r.repo.UpdateStatusIf(ctx, txn, expected); err != nil {
		if errs.IsConflictError(err) {
			// Another writer terminated the transaction between our read and
			// write; their outcome stands.
			r.logConflict(txn, update)
			return nil
		}
		return err
	}

	r.metrics.IncTransactionCompleted(string(txn.Provider))
	r.logger.Info("Transaction completed", map[string]any{
		"reference":      txn.Reference,
		"provider":       txn.Provider,
		"amount_settled": settled.String(),
	})

	if err := r.distributor.Distribute(ctx, txn.Reference); err != nil {
		// Distribution failures are retried by the sweep; settlement stands
		r.logger.Error("Distribution deferred to sweep", map[string]any{
			"reference": txn.Reference,
			"error":     err.Error(),
		})
	}
	return nil
}

// fail records a normalized terminal failure and notifies the payer. Failed
// payments are never retried automatically; a fresh attempt needs a new
// user-initiated transaction.
func (r *Reconciler) fail(ctx context.Context, txn *entity.Transaction, update StatusUpdate) error {
	expected := txn.Status
	if err := txn.MarkFailed(update.FailureCode, update.FailureReason); err != nil {
		if errs.IsConflictError(err) {
			r.logConflict(txn, update)
			return nil
		}
		return err
	}
	if err := r.repo.UpdateStatusIf(ctx, txn, expected); err != nil {
		if errs.IsConflictError(err) {
			r.logConflict(txn, update)
			return nil
		}
		return err
	}

	r.metrics.IncTransactionFailed(string(txn.Provider))
	r.logger.Info("Transaction failed", map[string]any{
		"reference":    txn.Reference,
		"provider":     txn.Provider,
		"failure_code": update.FailureCode,
	})

	r.publish(ctx, notification.Event{
		Type:          notification.EventPaymentFailed,
		RecipientID:   txn.PayerID,
		TransactionID: txn.Reference,
		Reason:        update.FailureReason,
	})
	return nil
}

// markInProgress moves a freshly submitted transaction into PENDING_PROVIDER
// and records the status check
func (r *Reconciler) markInProgress(ctx context.Context, txn *entity.Transaction) error {
	if txn.Status == entity.StatusSubmitted || txn.Status == entity.StatusCreated {
		expected := txn.Status
		if err := txn.MarkPendingProvider(); err == nil {
			if err := r.repo.UpdateStatusIf(ctx, txn, expected); err != nil && !errs.IsConflictError(err) {
				return err
			}
		}
	}
	txn.RecordStatusCheck(r.timeProvider)
	return r.repo.RecordStatusCheck(ctx, txn)
}

// resolveSettlement determines the settled amount and the applied rate.
// Preference order: the provider's reported settlement, then a conversion into
// the platform settlement currency, then the requested amount as-is.
func (r *Reconciler) resolveSettlement(ctx context.Context, txn *entity.Transaction, update StatusUpdate) (entity.Amount, *decimal.Decimal, error) {
	if update.SettledAmount != nil {
		settled := *update.SettledAmount
		if settled.Currency == txn.AmountRequested.Currency {
			return settled, nil, nil
		}
		rate, err := r.converter.EffectiveRate(ctx, txn.AmountRequested.Currency, settled.Currency, currency.DirectionDeposit)
		if err != nil {
			// The provider already settled; record the amount even when the
			// reference rate is unavailable
			r.logger.Warn("Recording provider settlement without reference rate", map[string]any{
				"reference": txn.Reference,
				"error":     err.Error(),
			})
			return settled, nil, nil
		}
		return settled, &rate, nil
	}

	if r.settlementCurrency != "" && r.settlementCurrency != txn.AmountRequested.Currency {
		converted, err := r.converter.Convert(ctx, txn.AmountRequested, r.settlementCurrency, currency.DirectionDeposit)
		if err != nil {
			return entity.Amount{}, nil, err
		}
		return converted.Amount, &converted.Rate, nil
	}

	return txn.AmountRequested, nil, nil
}

// logConflict records a duplicate or out-of-order update dropped as a no-op
func (r *Reconciler) logConflict(txn *entity.Transaction, update StatusUpdate) {
	r.metrics.IncStatusConflict()
	conflict := errs.NewConflictError(txn.Reference, string(txn.Status), string(update.Status))
	var ce *errs.ConflictError
	fields := map[string]any{"reference": txn.Reference}
	if errors.As(conflict, &ce) {
		fields = ce.LogFields()
	}
	r.logger.Warn("Dropping status update for terminal transaction", fields)
}

// publish emits a notification event, logging failures without propagating them
func (r *Reconciler) publish(ctx context.Context, event notification.Event) {
	if err := r.notifier.Publish(ctx, event); err != nil {
		r.logger.Error("Failed to publish notification event", map[string]any{
			"event_type": event.Type,
			"reference":  event.TransactionID,
			"error":      err.Error(),
		})
	}
}
