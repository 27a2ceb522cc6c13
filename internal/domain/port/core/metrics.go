package core

// Metrics records operational counters. The infrastructure layer backs this
// with Prometheus; tests use a no-op.
type Metrics interface {
	// IncTransactionCompleted counts settlements confirmed per provider
	IncTransactionCompleted(provider string)
	// IncTransactionFailed counts terminal provider failures per provider
	IncTransactionFailed(provider string)
	// IncTransactionExpired counts transactions aged out of PENDING_PROVIDER
	IncTransactionExpired()
	// IncStatusConflict counts duplicate or out-of-order updates dropped as no-ops
	IncStatusConflict()
	// IncDistributionCompleted counts successful fund splits
	IncDistributionCompleted()
	// IncDistributionFailed counts fund splits that exhausted their retry budget.
	// This is the operator-visible alert for stuck money.
	IncDistributionFailed()
	// IncSweepRun counts scheduler sweep executions by sweep name
	IncSweepRun(sweep string)
}
