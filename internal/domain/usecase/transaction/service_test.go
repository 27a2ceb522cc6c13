package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	"github.com/amoria-global/faxon-sub002/internal/domain/usecase/currency"
)

type serviceFixture struct {
	service *Service
	repo    *mockTransactionRepo
	adapter *mockAdapter
	tp      *stubTime
	metrics *countingMetrics
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := &mockTransactionRepo{}
	adapter := &mockAdapter{name: entity.ProviderMobileMoney}
	tp := &stubTime{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	metrics := newCountingMetrics()

	converter := currency.NewConverter(&mockRateSource{}, tp, noopLogger{}, currency.Config{
		SpreadBps: 150,
		CacheTTL:  time.Hour,
	})
	reconciler := NewReconciler(repo, converter, &mockDistributor{}, &mockPublisher{}, noopLogger{}, tp, metrics, "USD")
	registry := provider.NewRegistry(adapter)
	service := NewService(repo, registry, reconciler, noopLogger{}, tp, 10*time.Second)

	return &serviceFixture{service: service, repo: repo, adapter: adapter, tp: tp, metrics: metrics}
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		Provider:    "mobile_money",
		Amount:      "250.00",
		Currency:    "USD",
		BookingID:   "booking-9",
		PayerID:     "payer-9",
		RecipientID: "host-9",
		PayerDetails: map[string]string{
			"msisdn": "250788000111",
		},
	}
}

func TestCreateSubmitsToProvider(t *testing.T) {
	f := newServiceFixture(t)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("UpdateStatusIf", mock.Anything, mock.Anything, entity.StatusCreated).Return(nil)
	f.adapter.On("Submit", mock.Anything, mock.MatchedBy(func(req provider.SubmitRequest) bool {
		return req.Amount.MinorUnits == 25000 && req.PayerID == "payer-9"
	})).Return(&provider.SubmitResult{
		ProviderRef:   "MM-REF-1",
		InitialStatus: provider.StatusInProgress,
	}, nil)

	txn, err := f.service.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingProvider, txn.Status)
	assert.Equal(t, "MM-REF-1", txn.ProviderTransactionRef)
	assert.NotEmpty(t, txn.Reference)
}

func TestCreateSynchronousSuccess(t *testing.T) {
	// Some rails confirm at submission time; the terminal initial status goes
	// through the reconciler like any other provider update
	f := newServiceFixture(t)

	f.repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created := args.Get(1).(*entity.Transaction)
		f.repo.On("GetByReference", mock.Anything, created.Reference).Return(created, nil)
	}).Return(nil)
	f.repo.On("UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.adapter.On("Submit", mock.Anything, mock.Anything).Return(&provider.SubmitResult{
		ProviderRef:   "MM-REF-2",
		InitialStatus: provider.StatusSucceeded,
	}, nil)

	txn, err := f.service.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, txn.Status)
	assert.Equal(t, 1, f.metrics.completed)
}

func TestCreateDefiniteRejectionStaysCreated(t *testing.T) {
	f := newServiceFixture(t)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	submitErr := errs.NewSubmitError("mobile_money", "", "INVALID_MSISDN", "invalid msisdn", nil)
	f.adapter.On("Submit", mock.Anything, mock.Anything).Return(nil, submitErr)

	txn, err := f.service.Create(context.Background(), validCreateRequest())

	require.Error(t, err)
	assert.True(t, errs.IsSubmitError(err))
	require.NotNil(t, txn)
	assert.Equal(t, entity.StatusCreated, txn.Status, "definite rejection never advances the transaction")
	f.repo.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAmbiguousFailureParksPending(t *testing.T) {
	// A timeout mid-submission may have reached the network. The transaction
	// parks in PENDING_PROVIDER for polling; no error surfaces to the caller.
	f := newServiceFixture(t)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("UpdateStatusIf", mock.Anything, mock.Anything, entity.StatusCreated).Return(nil)
	ambiguous := errs.NewAmbiguousSubmitError("mobile_money", "", context.DeadlineExceeded)
	f.adapter.On("Submit", mock.Anything, mock.Anything).Return(nil, ambiguous)

	txn, err := f.service.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingProvider, txn.Status)
	assert.Empty(t, txn.ProviderTransactionRef, "no provider reference exists until the poll resolves")
}

func TestCreateHonorsClientReference(t *testing.T) {
	f := newServiceFixture(t)

	req := validCreateRequest()
	req.Reference = "BOOKING-9.PAY-1"

	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
		return txn.Reference == "BOOKING-9.PAY-1"
	})).Return(nil)
	f.repo.On("UpdateStatusIf", mock.Anything, mock.Anything, entity.StatusCreated).Return(nil)
	f.adapter.On("Submit", mock.Anything, mock.MatchedBy(func(sr provider.SubmitRequest) bool {
		return sr.Reference == "BOOKING-9.PAY-1"
	})).Return(&provider.SubmitResult{
		ProviderRef:   "MM-REF-3",
		InitialStatus: provider.StatusInProgress,
	}, nil)

	txn, err := f.service.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "BOOKING-9.PAY-1", txn.Reference)
}

func TestCreateReplaysDuplicateClientReference(t *testing.T) {
	// A client retry of a timed-out create with the same reference must get the
	// original transaction back, never a second charge
	f := newServiceFixture(t)

	req := validCreateRequest()
	req.Reference = "BOOKING-9.PAY-2"

	f.repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		first := args.Get(1).(*entity.Transaction)
		f.repo.On("GetByReference", mock.Anything, first.Reference).Return(first, nil)
	}).Return(nil).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errs.ErrDuplicateReference)
	f.repo.On("UpdateStatusIf", mock.Anything, mock.Anything, entity.StatusCreated).Return(nil)
	f.adapter.On("Submit", mock.Anything, mock.Anything).Return(&provider.SubmitResult{
		ProviderRef:   "MM-REF-4",
		InitialStatus: provider.StatusInProgress,
	}, nil)

	created, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	replayed, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, created.Reference, replayed.Reference)
	assert.Equal(t, created.Status, replayed.Status)
	f.adapter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestCreateGeneratedDuplicateSurfaces(t *testing.T) {
	// Without a client reference there is nothing to replay; the collision
	// propagates instead of silently returning someone else's transaction
	f := newServiceFixture(t)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(errs.ErrDuplicateReference)

	_, err := f.service.Create(context.Background(), validCreateRequest())

	require.Error(t, err)
	assert.True(t, errs.IsDuplicateReferenceError(err))
	f.repo.AssertNotCalled(t, "GetByReference", mock.Anything, mock.Anything)
	f.adapter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCreateValidationShortCircuits(t *testing.T) {
	f := newServiceFixture(t)

	req := validCreateRequest()
	req.Amount = "-5.00"

	txn, err := f.service.Create(context.Background(), req)

	require.Error(t, err)
	assert.Nil(t, txn)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.adapter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCreateUnknownProviderRejected(t *testing.T) {
	f := newServiceFixture(t)

	req := validCreateRequest()
	req.Provider = "crypto"

	_, err := f.service.Create(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidProvider))
}

func TestGetByReference(t *testing.T) {
	f := newServiceFixture(t)

	t.Run("Empty reference rejected", func(t *testing.T) {
		_, err := f.service.GetByReference(context.Background(), "")
		assert.ErrorIs(t, err, errs.ErrInvalidReference)
	})

	t.Run("Unknown reference propagates not-found", func(t *testing.T) {
		f.repo.On("GetByReference", mock.Anything, "TXN-missing").Return(nil, errs.ErrTransactionNotFound)
		_, err := f.service.GetByReference(context.Background(), "TXN-missing")
		assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
	})
}
