package distribution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
)

func distributedTransaction(t *testing.T, f *engineFixture) (*entity.Transaction, []entity.WalletLedgerEntry) {
	t.Helper()
	txn := completedTransaction(t, f.tp, "agent-1")
	txn.DistributionState = entity.DistributionDistributed

	now := f.tp.Now()
	entries := []entity.WalletLedgerEntry{
		entity.NewLedgerEntry("host-1", txn.ID, txn.Reference, entity.RoleHostEarning,
			entity.Amount{MinorUnits: 7895, Currency: "USD"}, now),
		entity.NewLedgerEntry("agent-1", txn.ID, txn.Reference, entity.RoleAgentCommission,
			entity.Amount{MinorUnits: 438, Currency: "USD"}, now),
		entity.NewLedgerEntry("platform", txn.ID, txn.Reference, entity.RolePlatformFee,
			entity.Amount{MinorUnits: 1667, Currency: "USD"}, now),
	}
	return txn, entries
}

func TestRefund(t *testing.T) {
	f := newEngineFixture(t, 3)
	txn, originalEntries := distributedTransaction(t, f)

	var reversals []entity.WalletLedgerEntry
	f.repo.On("GetByReference", mock.Anything, txn.Reference).Return(txn, nil)
	f.walletRepo.On("ListByTransaction", mock.Anything, txn.ID).Return(originalEntries, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.walletRepo.On("AppendEntries", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		reversals = args.Get(1).([]entity.WalletLedgerEntry)
	}).Return(nil)
	f.repo.On("UpdateStatusIf", mock.Anything, txn, entity.StatusCompleted).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e notification.Event) bool {
		return e.Type == notification.EventRefundIssued && e.RecipientID == txn.PayerID
	})).Return(nil)

	reverse, err := f.engine.Refund(context.Background(), txn.Reference)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusRefunded, txn.Status)
	assert.Equal(t, 1, f.uow.commits)

	require.NotNil(t, reverse)
	assert.Equal(t, txn.Reference, reverse.RefundOf)
	assert.Equal(t, entity.StatusCompleted, reverse.Status)
	assert.Equal(t, entity.DistributionDistributed, reverse.DistributionState,
		"the reverse transaction never enters the distribution queue")
	assert.Equal(t, int64(-10000), reverse.AmountSettled.MinorUnits)

	require.Len(t, reversals, 3)
	var sum int64
	for _, entry := range reversals {
		assert.Equal(t, entity.RoleRefund, entry.Role)
		assert.Equal(t, reverse.Reference, entry.Reference)
		assert.True(t, entry.Amount.MinorUnits < 0, "reversals debit each party")
		sum += entry.Amount.MinorUnits
	}
	assert.Equal(t, int64(-10000), sum, "clawback equals the amount distributed")

	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRefundSkipsPriorReversals(t *testing.T) {
	// If the transaction's ledger already carries REFUND entries they are not
	// reversed again
	f := newEngineFixture(t, 3)
	txn, originalEntries := distributedTransaction(t, f)
	originalEntries = append(originalEntries, entity.NewLedgerEntry(
		"host-1", txn.ID, txn.Reference, entity.RoleRefund,
		entity.Amount{MinorUnits: -7895, Currency: "USD"}, f.tp.Now()))

	var reversals []entity.WalletLedgerEntry
	f.repo.On("GetByReference", mock.Anything, txn.Reference).Return(txn, nil)
	f.walletRepo.On("ListByTransaction", mock.Anything, txn.ID).Return(originalEntries, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.walletRepo.On("AppendEntries", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		reversals = args.Get(1).([]entity.WalletLedgerEntry)
	}).Return(nil)
	f.repo.On("UpdateStatusIf", mock.Anything, txn, entity.StatusCompleted).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.engine.Refund(context.Background(), txn.Reference)

	require.NoError(t, err)
	assert.Len(t, reversals, 3)
}

func TestRefundGuards(t *testing.T) {
	t.Run("Already refunded", func(t *testing.T) {
		f := newEngineFixture(t, 3)
		txn, _ := distributedTransaction(t, f)
		require.NoError(t, txn.MarkRefunded())

		f.repo.On("GetByReference", mock.Anything, txn.Reference).Return(txn, nil)

		_, err := f.engine.Refund(context.Background(), txn.Reference)
		assert.ErrorIs(t, err, errs.ErrAlreadyRefunded)
		assert.Equal(t, 0, f.uow.commits)
	})

	t.Run("Not yet distributed", func(t *testing.T) {
		f := newEngineFixture(t, 3)
		txn := completedTransaction(t, f.tp, "agent-1")

		f.repo.On("GetByReference", mock.Anything, txn.Reference).Return(txn, nil)

		_, err := f.engine.Refund(context.Background(), txn.Reference)
		assert.ErrorIs(t, err, errs.ErrNotRefundable)
	})

	t.Run("Failed transaction", func(t *testing.T) {
		f := newEngineFixture(t, 3)
		txn, err := entity.NewTransaction("card",
			entity.Amount{MinorUnits: 5000, Currency: "USD"},
			"booking-2", "payer-2", "host-2", "", f.tp)
		require.NoError(t, err)
		require.NoError(t, txn.MarkSubmitted("C-1"))
		require.NoError(t, txn.MarkFailed("DECLINED", "declined"))

		f.repo.On("GetByReference", mock.Anything, txn.Reference).Return(txn, nil)

		_, refundErr := f.engine.Refund(context.Background(), txn.Reference)
		assert.ErrorIs(t, refundErr, errs.ErrNotRefundable)
	})
}

func TestRefundRollsBackOnWriteFailure(t *testing.T) {
	f := newEngineFixture(t, 3)
	txn, originalEntries := distributedTransaction(t, f)

	f.repo.On("GetByReference", mock.Anything, txn.Reference).Return(txn, nil)
	f.walletRepo.On("ListByTransaction", mock.Anything, txn.ID).Return(originalEntries, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errs.ErrDatabaseConnection)

	_, err := f.engine.Refund(context.Background(), txn.Reference)

	require.Error(t, err)
	assert.Equal(t, 1, f.uow.rollbacks)
	assert.Equal(t, 0, f.uow.commits)
	assert.Equal(t, entity.StatusCompleted, txn.Status, "original is untouched on rollback")
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
