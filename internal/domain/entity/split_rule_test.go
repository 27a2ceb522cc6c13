package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
)

func TestNewSplitRule(t *testing.T) {
	t.Run("Valid rules", func(t *testing.T) {
		testCases := []struct {
			name                string
			host, agent, platform float64
		}{
			{"Configured agent split", 78.95, 4.38, 16.67},
			{"Even split", 80, 10, 10},
			{"No agent", 90, 0, 10},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				rule, err := NewSplitRule(tc.host, tc.agent, tc.platform)
				assert.NoError(t, err)
				assert.Equal(t, int64(10000), rule.HostBps+rule.AgentBps+rule.PlatformBps)
			})
		}
	})

	t.Run("Percentages not summing to 100 rejected", func(t *testing.T) {
		_, err := NewSplitRule(80, 10, 15)
		assert.ErrorIs(t, err, errs.ErrInvalidSplitRule)

		_, err = NewSplitRule(50, 10, 10)
		assert.ErrorIs(t, err, errs.ErrInvalidSplitRule)
	})
}

func TestSplitShares(t *testing.T) {
	t.Run("Platform absorbs rounding remainder", func(t *testing.T) {
		// 100.00 USD split 78.95 / 4.38 / 16.67
		rule, err := NewSplitRule(78.95, 4.38, 16.67)
		require.NoError(t, err)

		shares := rule.Split(Amount{MinorUnits: 10000, Currency: "USD"})

		assert.Equal(t, int64(7895), shares.Host.MinorUnits)
		assert.Equal(t, int64(438), shares.Agent.MinorUnits)
		assert.Equal(t, int64(1667), shares.Platform.MinorUnits)
		assert.Equal(t, int64(10000), shares.Total())
	})

	t.Run("Shares always sum to the settled amount", func(t *testing.T) {
		rule, err := NewSplitRule(78.95, 4.38, 16.67)
		require.NoError(t, err)

		// Awkward amounts where floor division leaves a remainder
		for _, minor := range []int64{1, 3, 99, 101, 9999, 10001, 123457, 7} {
			shares := rule.Split(Amount{MinorUnits: minor, Currency: "RWF"})
			assert.Equal(t, minor, shares.Total(), "leakage at %d minor units", minor)
			assert.GreaterOrEqual(t, shares.Platform.MinorUnits, int64(0))
		}
	})

	t.Run("Agent-absent rule gives agent nothing", func(t *testing.T) {
		rule, err := NewSplitRule(90, 0, 10)
		require.NoError(t, err)

		shares := rule.Split(Amount{MinorUnits: 25000, Currency: "RWF"})
		assert.Equal(t, int64(22500), shares.Host.MinorUnits)
		assert.Equal(t, int64(0), shares.Agent.MinorUnits)
		assert.Equal(t, int64(2500), shares.Platform.MinorUnits)
	})

	t.Run("Currency carried through", func(t *testing.T) {
		rule, err := NewSplitRule(80, 10, 10)
		require.NoError(t, err)

		shares := rule.Split(Amount{MinorUnits: 1000, Currency: "USD"})
		assert.Equal(t, "USD", shares.Host.Currency)
		assert.Equal(t, "USD", shares.Agent.Currency)
		assert.Equal(t, "USD", shares.Platform.Currency)
	})
}
