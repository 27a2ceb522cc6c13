package entity

import (
	"fmt"
	"math"

	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
)

// splitToleranceBps is the rounding tolerance when validating that configured
// percentages sum to 100 (one basis point)
const splitToleranceBps = 1

// SplitRule describes how a settled amount is divided between the host, the
// agent and the platform. Percentages are held in basis points so share math
// stays in integers.
type SplitRule struct {
	HostBps     int64
	AgentBps    int64
	PlatformBps int64
}

// SplitShares holds the per-party amounts computed from a settled amount
type SplitShares struct {
	Host     Amount
	Agent    Amount
	Platform Amount
}

// NewSplitRule builds a rule from configured percentages (e.g. 78.95) and
// validates that they sum to 100 within rounding tolerance
func NewSplitRule(hostPct, agentPct, platformPct float64) (SplitRule, error) {
	rule := SplitRule{
		HostBps:     pctToBps(hostPct),
		AgentBps:    pctToBps(agentPct),
		PlatformBps: pctToBps(platformPct),
	}

	total := rule.HostBps + rule.AgentBps + rule.PlatformBps
	if total < 10000-splitToleranceBps || total > 10000+splitToleranceBps {
		return SplitRule{}, fmt.Errorf("%w: got %.2f%%",
			errs.ErrInvalidSplitRule, float64(total)/100)
	}
	return rule, nil
}

func pctToBps(pct float64) int64 {
	return int64(math.Round(pct * 100))
}

// Split divides a settled amount into host, agent and platform shares. Host and
// agent shares are floored; the platform absorbs the rounding remainder so the
// three shares always sum exactly to the settled amount.
func (r SplitRule) Split(settled Amount) SplitShares {
	host := settled.MinorUnits * r.HostBps / 10000
	agent := settled.MinorUnits * r.AgentBps / 10000
	platform := settled.MinorUnits - host - agent

	return SplitShares{
		Host:     Amount{MinorUnits: host, Currency: settled.Currency},
		Agent:    Amount{MinorUnits: agent, Currency: settled.Currency},
		Platform: Amount{MinorUnits: platform, Currency: settled.Currency},
	}
}

// Total returns the sum of the three shares; always equals the settled amount
func (s SplitShares) Total() int64 {
	return s.Host.MinorUnits + s.Agent.MinorUnits + s.Platform.MinorUnits
}
