package health

import "context"

// IHealthMonitor defines the interface for the worker health monitor
type IHealthMonitor interface {
	// Start launches one probe loop per worker; loops stop when ctx is
	// cancelled
	Start(ctx context.Context)
}

// ProbeSink receives probe outcomes. Implemented by the dispatcher, which
// runs the health state machine under its own lock.
type ProbeSink interface {
	ReportProbe(ctx context.Context, workerID int, healthy bool)
}
