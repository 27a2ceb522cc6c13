package transaction

import (
	"context"
	"time"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/persistence"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
)

// Service owns transaction creation and submission. Status mutation after
// submission belongs to the Reconciler alone.
type Service struct {
	repo          persistence.TransactionRepository
	registry      *provider.Registry
	validator     *Validator
	reconciler    *Reconciler
	logger        coreport.Logger
	timeProvider  coreport.TimeProvider
	submitTimeout time.Duration
}

// NewService creates the transaction service
func NewService(
	repo persistence.TransactionRepository,
	registry *provider.Registry,
	reconciler *Reconciler,
	logger coreport.Logger,
	timeProvider coreport.TimeProvider,
	submitTimeout time.Duration,
) *Service {
	return &Service{
		repo:          repo,
		registry:      registry,
		validator:     NewValidator(),
		reconciler:    reconciler,
		logger:        logger,
		timeProvider:  timeProvider,
		submitTimeout: submitTimeout,
	}
}

// Create validates a payment request, persists the transaction and submits it
// to the provider network. The returned transaction is in SUBMITTED or
// PENDING_PROVIDER on success, or CREATED when the provider definitely rejected
// the submission (safe to retry with a new reference).
//
// A client-supplied reference makes the call idempotent: retrying a timed-out
// request with the same reference returns the transaction the first attempt
// created instead of charging the payer twice.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*entity.Transaction, error) {
	amount, err := s.validator.Validate(req)
	if err != nil {
		return nil, err
	}

	txn, err := entity.NewTransaction(req.Provider, amount, req.BookingID, req.PayerID, req.RecipientID, req.AgentID, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if req.Reference != "" {
		txn.Reference = req.Reference
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		if req.Reference != "" && errs.IsDuplicateReferenceError(err) {
			return s.replay(ctx, req.Reference, err)
		}
		return nil, err
	}

	adapter, err := s.registry.Resolve(txn.Provider)
	if err != nil {
		return nil, err
	}

	submitCtx, cancel := s.timeProvider.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	result, err := adapter.Submit(submitCtx, provider.SubmitRequest{
		Reference:    txn.Reference,
		Amount:       txn.AmountRequested,
		PayerID:      txn.PayerID,
		PayerDetails: req.PayerDetails,
	})

	switch {
	case err == nil:
		return s.recordSubmission(ctx, txn, result)
	case errs.IsAmbiguousSubmitError(err):
		// The request may have reached the network. Park the transaction in
		// PENDING_PROVIDER and let polling resolve it; never resubmit.
		s.logger.Warn("Submission outcome unknown, deferring to status polling", map[string]any{
			"reference": txn.Reference,
			"provider":  txn.Provider,
			"error":     err.Error(),
		})
		expected := txn.Status
		if merr := txn.MarkPendingProvider(); merr != nil {
			return nil, merr
		}
		if uerr := s.repo.UpdateStatusIf(ctx, txn, expected); uerr != nil {
			return nil, uerr
		}
		return txn, nil
	default:
		// Definite rejection: the transaction stays CREATED and the error
		// surfaces synchronously to the caller
		s.logger.Error("Provider rejected submission", map[string]any{
			"reference": txn.Reference,
			"provider":  txn.Provider,
			"error":     err.Error(),
		})
		return txn, err
	}
}

// replay resolves a create retry for a reference that already exists. The
// reference is the client's idempotency key, so the existing transaction is
// handed back as-is; no second submission ever reaches the provider.
func (s *Service) replay(ctx context.Context, reference string, createErr error) (*entity.Transaction, error) {
	existing, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, createErr
	}
	s.logger.Info("Create replayed for existing reference", map[string]any{
		"reference": reference,
		"status":    existing.Status,
	})
	return existing, nil
}

// recordSubmission persists the provider reference and routes any immediately
// terminal initial status through the reconciler's single code path
func (s *Service) recordSubmission(ctx context.Context, txn *entity.Transaction, result *provider.SubmitResult) (*entity.Transaction, error) {
	expected := txn.Status
	if err := txn.MarkSubmitted(result.ProviderRef); err != nil {
		return nil, err
	}
	if result.InitialStatus == provider.StatusInProgress || result.InitialStatus == provider.StatusUnknown {
		if err := txn.MarkPendingProvider(); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateStatusIf(ctx, txn, expected); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction submitted", map[string]any{
		"reference":    txn.Reference,
		"provider":     txn.Provider,
		"provider_ref": result.ProviderRef,
		"status":       txn.Status,
	})

	// Some rails resolve synchronously at submission time
	if result.InitialStatus == provider.StatusSucceeded || result.InitialStatus == provider.StatusFailed {
		if err := s.reconciler.ApplyProviderStatus(ctx, txn.Reference, StatusUpdate{
			Status:      result.InitialStatus,
			ProviderRef: result.ProviderRef,
		}); err != nil {
			return nil, err
		}
		return s.repo.GetByReference(ctx, txn.Reference)
	}

	return txn, nil
}

// GetByReference looks a transaction up by its externally visible reference
func (s *Service) GetByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	if reference == "" {
		return nil, errs.ErrInvalidReference
	}
	return s.repo.GetByReference(ctx, reference)
}
