package distribution

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/persistence"
)

// mockTransactionRepo is a testify mock for the TransactionRepository port
type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, txn *entity.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockTransactionRepo) GetByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) UpdateStatusIf(ctx context.Context, txn *entity.Transaction, expected entity.TransactionStatus) error {
	return m.Called(ctx, txn, expected).Error(0)
}

func (m *mockTransactionRepo) RecordStatusCheck(ctx context.Context, txn *entity.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockTransactionRepo) UpdateDistributionState(ctx context.Context, txn *entity.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockTransactionRepo) MarkDistributed(ctx context.Context, txn *entity.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockTransactionRepo) ListPendingProvider(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListPendingDistribution(ctx context.Context, maxAttempts, limit int) ([]*entity.Transaction, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Transaction), args.Error(1)
}

// mockWalletRepo is a testify mock for the WalletRepository port
type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) AppendEntries(ctx context.Context, entries []entity.WalletLedgerEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *mockWalletRepo) BalanceOf(ctx context.Context, partyID, currency string) (entity.Amount, error) {
	args := m.Called(ctx, partyID, currency)
	return args.Get(0).(entity.Amount), args.Error(1)
}

func (m *mockWalletRepo) ListByTransaction(ctx context.Context, transactionID uint64) ([]entity.WalletLedgerEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WalletLedgerEntry), args.Error(1)
}

func (m *mockWalletRepo) ListByParty(ctx context.Context, partyID string, limit int) ([]entity.WalletLedgerEntry, error) {
	args := m.Called(ctx, partyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WalletLedgerEntry), args.Error(1)
}

// fakeUnitOfWork hands back the test's repos and counts commits and rollbacks
type fakeUnitOfWork struct {
	txRepo     persistence.TransactionRepository
	walletRepo persistence.WalletRepository
	beginErr   error
	commitErr  error
	commits    int
	rollbacks  int
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return ctx, nil
}

func (f *fakeUnitOfWork) Commit(context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	return nil
}

func (f *fakeUnitOfWork) Rollback(context.Context) error {
	f.rollbacks++
	return nil
}

func (f *fakeUnitOfWork) GetTransactionRepository(context.Context) persistence.TransactionRepository {
	return f.txRepo
}

func (f *fakeUnitOfWork) GetWalletRepository(context.Context) persistence.WalletRepository {
	return f.walletRepo
}

// mockPublisher is a testify mock for the notification Publisher port
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event notification.Event) error {
	return m.Called(ctx, event).Error(0)
}

// stubTime is a controllable TimeProvider
type stubTime struct {
	now time.Time
}

func (s *stubTime) Now() time.Time                  { return s.now }
func (s *stubTime) Since(t time.Time) time.Duration { return s.now.Sub(t) }
func (s *stubTime) Sleep(time.Duration)             {}
func (s *stubTime) WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// noopLogger satisfies the Logger port without output
type noopLogger struct{}

func (noopLogger) SetLevel(coreport.LogLevel)   {}
func (noopLogger) Debug(string, map[string]any) {}
func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}
func (noopLogger) Flush() error                 { return nil }

// countingMetrics records counter increments for assertions
type countingMetrics struct {
	completed   int
	failed      int
	expired     int
	conflicts   int
	distributed int
	distFailed  int
	sweeps      map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{sweeps: make(map[string]int)}
}

func (c *countingMetrics) IncTransactionCompleted(string) { c.completed++ }
func (c *countingMetrics) IncTransactionFailed(string)    { c.failed++ }
func (c *countingMetrics) IncTransactionExpired()         { c.expired++ }
func (c *countingMetrics) IncStatusConflict()             { c.conflicts++ }
func (c *countingMetrics) IncDistributionCompleted()      { c.distributed++ }
func (c *countingMetrics) IncDistributionFailed()         { c.distFailed++ }
func (c *countingMetrics) IncSweepRun(s string)           { c.sweeps[s]++ }
