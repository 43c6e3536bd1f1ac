package jobs

import "time"

// ExecutionStatus is the lifecycle state of one job run
type ExecutionStatus string

const (
	StatusPending ExecutionStatus = "pending"
	StatusRunning ExecutionStatus = "running"
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
)

// Well-known metric names. Jobs may record arbitrary additional metrics;
// these three are also stored in dedicated columns for cheap querying.
const (
	MetricRecordsCreated  = "records_created"
	MetricRecordsUpdated  = "records_updated"
	MetricAPIRequestsMade = "api_requests_made"
)

// Metrics is a named-counter map accumulated over one execution
type Metrics map[string]int

// Clone returns an independent copy
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Execution is one recorded run of a job, terminal or otherwise.
// A terminal record (success or failed) always carries completed_at,
// final metrics, and the captured log buffer.
type Execution struct {
	ID           string
	JobConfigID  string
	JobType      JobType
	Status       ExecutionStatus
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage *string
	Metrics      Metrics
	Logs         []LogEntry
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Duration returns the wall-clock run time, or zero when not yet terminal
func (e *Execution) Duration() time.Duration {
	if e.StartedAt == nil || e.CompletedAt == nil {
		return 0
	}
	return e.CompletedAt.Sub(*e.StartedAt)
}

// IsTerminal reports whether the execution reached a final state
func (e *Execution) IsTerminal() bool {
	return e.Status == StatusSuccess || e.Status == StatusFailed
}
