package transaction

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/rates"
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

// mockDistributor is a testify mock for the Distributor dependency
type mockDistributor struct {
	mock.Mock
}

func (m *mockDistributor) Distribute(ctx context.Context, reference string) error {
	return m.Called(ctx, reference).Error(0)
}

// mockPublisher is a testify mock for the notification Publisher port
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event notification.Event) error {
	return m.Called(ctx, event).Error(0)
}

// mockAdapter is a testify mock for the provider Adapter port
type mockAdapter struct {
	mock.Mock
	name entity.Provider
}

func (m *mockAdapter) Name() entity.Provider {
	return m.name
}

func (m *mockAdapter) Submit(ctx context.Context, req provider.SubmitRequest) (*provider.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SubmitResult), args.Error(1)
}

func (m *mockAdapter) QueryStatus(ctx context.Context, providerRef string) (*provider.StatusResult, error) {
	args := m.Called(ctx, providerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.StatusResult), args.Error(1)
}

func (m *mockAdapter) VerifySignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

func (m *mockAdapter) ParseCallback(body []byte) (*provider.CallbackEvent, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CallbackEvent), args.Error(1)
}

// mockRateSource is a testify mock for the RateSource port
type mockRateSource struct {
	mock.Mock
}

func (m *mockRateSource) GetRate(ctx context.Context, base, target string) (*rates.Rate, error) {
	args := m.Called(ctx, base, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rates.Rate), args.Error(1)
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
