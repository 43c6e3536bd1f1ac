package jobs

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/riot"
	"github.com/riftwatch/riftwatch/store"
)

// Runner is implemented by every concrete job type. Execute does one full
// run; it must honor ctx cancellation at its iteration boundaries.
type Runner interface {
	Type() JobType
	Execute(ctx context.Context) error
}

// Deps are the shared collaborators handed to every job at construction
type Deps struct {
	Players *store.Players
	Riot    riot.Client
	Logger  *zap.SugaredLogger
}

// BaseJob carries the per-run bookkeeping every job type shares: the
// execution record, the metric counters, and the captured log buffer.
// Concrete jobs embed it and report through its methods.
type BaseJob struct {
	jobType    JobType
	configID   string
	executions *ExecutionStore
	capture    *LogCapture
	logger     *zap.SugaredLogger

	mu        sync.Mutex
	metrics   Metrics
	execution *Execution
}

func NewBaseJob(jobType JobType, configID string, executions *ExecutionStore, logger *zap.SugaredLogger) *BaseJob {
	return &BaseJob{
		jobType:    jobType,
		configID:   configID,
		executions: executions,
		capture:    NewLogCapture(),
		logger:     logger.Named(string(jobType)),
		metrics:    Metrics{},
	}
}

func (b *BaseJob) Type() JobType { return b.jobType }

// Execution returns the current execution record, nil before LogStart
func (b *BaseJob) Execution() *Execution {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.execution
}

// IncrementMetric adds delta to a named counter. Safe for concurrent use.
func (b *BaseJob) IncrementMetric(name string, delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics[name] += delta
}

// MetricsSnapshot returns a copy of the counters accumulated so far
func (b *BaseJob) MetricsSnapshot() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics.Clone()
}

// AddLogEntry captures one structured log line for the execution record
// and mirrors it to the process logger. Capture failures never propagate
// to the job being observed.
func (b *BaseJob) AddLogEntry(level, message string, context map[string]interface{}) {
	b.capture.Emit(level, message, context)

	fields := make([]interface{}, 0, len(context)*2)
	for k, v := range context {
		fields = append(fields, k, v)
	}
	switch level {
	case "error":
		b.logger.Errorw(message, fields...)
	case "warn":
		b.logger.Warnw(message, fields...)
	default:
		b.logger.Infow(message, fields...)
	}
}

// LogStart creates the execution record and transitions it to running.
// Every run gets a record, even one that fails immediately afterward.
func (b *BaseJob) LogStart() (*Execution, error) {
	exec, err := b.executions.CreatePending(b.configID, b.jobType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to record job start")
	}
	if err := b.executions.MarkRunning(exec); err != nil {
		return nil, errors.Wrap(err, "failed to mark job running")
	}

	b.mu.Lock()
	b.execution = exec
	b.mu.Unlock()

	b.logger.Infow("job started", "execution_id", exec.ID)
	return exec, nil
}

// LogCompletion finalizes the execution record in one commit: terminal
// status, completed_at, the full metric set, and the captured logs. On
// failure the metrics gathered before the error are preserved as-is.
func (b *BaseJob) LogCompletion(success bool, errorMessage string) error {
	b.mu.Lock()
	exec := b.execution
	metrics := b.metrics.Clone()
	b.mu.Unlock()

	if exec == nil {
		return errors.New("job has no execution record")
	}

	logs := b.capture.Entries()
	var err error
	if success {
		err = b.executions.MarkSuccess(exec, metrics, logs)
	} else {
		err = b.executions.MarkFailed(exec, errorMessage, metrics, logs)
	}
	if err != nil {
		return errors.Wrap(err, "failed to record job completion")
	}

	summary := b.capture.Summary()
	b.logger.Infow("job finished",
		"execution_id", exec.ID,
		"status", exec.Status,
		"duration", exec.Duration().String(),
		"records_created", metrics[MetricRecordsCreated],
		"records_updated", metrics[MetricRecordsUpdated],
		"api_requests_made", metrics[MetricAPIRequestsMade],
		"log_counts", summary.CountsByLevel,
		"logs_dropped", summary.Dropped)
	return nil
}
