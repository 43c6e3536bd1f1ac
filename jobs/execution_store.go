package jobs

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/riftwatch/riftwatch/errors"
)

// recoveryMessage is written to executions found still running at startup
const recoveryMessage = "interrupted by restart"

// ExecutionStore persists job execution records
type ExecutionStore struct {
	db *sql.DB
}

func NewExecutionStore(db *sql.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

const executionColumns = `id, job_config_id, job_type, status, started_at, completed_at,
	error_message, records_created, records_updated, api_requests_made, metrics, logs,
	created_at, updated_at`

// CreatePending inserts a new execution record in the pending state
func (s *ExecutionStore) CreatePending(configID string, jobType JobType) (*Execution, error) {
	exec := &Execution{
		ID:          uuid.NewString(),
		JobConfigID: configID,
		JobType:     jobType,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	exec.UpdatedAt = exec.CreatedAt

	_, err := s.db.Exec(`
		INSERT INTO job_executions (id, job_config_id, job_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.JobConfigID, exec.JobType, exec.Status,
		formatTime(exec.CreatedAt), formatTime(exec.UpdatedAt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create execution record")
	}
	return exec, nil
}

// MarkRunning transitions a pending execution to running and stamps started_at
func (s *ExecutionStore) MarkRunning(exec *Execution) error {
	now := time.Now().UTC()
	result, err := s.db.Exec(`
		UPDATE job_executions
		SET status = ?, started_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		StatusRunning, formatTime(now), formatTime(now), exec.ID, StatusPending)
	if err != nil {
		return errors.Wrapf(err, "failed to mark execution %s running", exec.ID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if affected == 0 {
		return errors.Newf("execution %s is not pending", exec.ID)
	}
	exec.Status = StatusRunning
	exec.StartedAt = &now
	exec.UpdatedAt = now
	return nil
}

// MarkSuccess finalizes an execution as successful, writing completed_at,
// final metrics, and the captured logs in a single statement
func (s *ExecutionStore) MarkSuccess(exec *Execution, metrics Metrics, logs []LogEntry) error {
	return s.finalize(exec, StatusSuccess, nil, metrics, logs)
}

// MarkFailed finalizes an execution as failed with the given error message.
// Partial metrics and logs accumulated before the failure are preserved.
func (s *ExecutionStore) MarkFailed(exec *Execution, errorMessage string, metrics Metrics, logs []LogEntry) error {
	return s.finalize(exec, StatusFailed, &errorMessage, metrics, logs)
}

func (s *ExecutionStore) finalize(exec *Execution, status ExecutionStatus, errorMessage *string, metrics Metrics, logs []LogEntry) error {
	now := time.Now().UTC()
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return errors.Wrap(err, "failed to marshal execution metrics")
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return errors.Wrap(err, "failed to marshal execution logs")
	}

	_, err = s.db.Exec(`
		UPDATE job_executions
		SET status = ?, completed_at = ?, error_message = ?,
			records_created = ?, records_updated = ?, api_requests_made = ?,
			metrics = ?, logs = ?, updated_at = ?
		WHERE id = ?`,
		status, formatTime(now), errorMessage,
		metrics[MetricRecordsCreated], metrics[MetricRecordsUpdated], metrics[MetricAPIRequestsMade],
		string(metricsJSON), string(logsJSON), formatTime(now), exec.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to finalize execution %s", exec.ID)
	}

	exec.Status = status
	exec.CompletedAt = &now
	exec.ErrorMessage = errorMessage
	exec.Metrics = metrics.Clone()
	exec.Logs = logs
	exec.UpdatedAt = now
	return nil
}

// GetExecution returns a single execution by ID
func (s *ExecutionStore) GetExecution(id string) (*Execution, error) {
	row := s.db.QueryRow(`
		SELECT `+executionColumns+`
		FROM job_executions
		WHERE id = ?`, id)

	exec, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("execution %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get execution %s", id)
	}
	return exec, nil
}

// ListExecutions returns executions for one configuration, newest first,
// optionally filtered by status. The second return value is the total count
// matching the filter, independent of limit and offset.
func (s *ExecutionStore) ListExecutions(configID string, status ExecutionStatus, limit, offset int) ([]*Execution, int, error) {
	if limit <= 0 {
		limit = 50
	}

	where := `WHERE job_config_id = ?`
	args := []interface{}{configID}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, status)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM job_executions `+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count executions")
	}

	rows, err := s.db.Query(`
		SELECT `+executionColumns+`
		FROM job_executions `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to query executions")
	}
	defer rows.Close()

	execs, err := scanExecutions(rows)
	if err != nil {
		return nil, 0, err
	}
	return execs, total, nil
}

// ListRecent returns the most recent executions across all configurations
func (s *ExecutionStore) ListRecent(limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT `+executionColumns+`
		FROM job_executions
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent executions")
	}
	defer rows.Close()
	return scanExecutions(rows)
}

// RecoverInterrupted marks every execution still in the running or pending
// state as failed. Called once at startup, before any job is scheduled, so
// records orphaned by a crash or unclean shutdown never linger as running.
// Returns the number of executions recovered.
func (s *ExecutionStore) RecoverInterrupted() (int, error) {
	now := formatTime(time.Now().UTC())
	result, err := s.db.Exec(`
		UPDATE job_executions
		SET status = ?, completed_at = ?, error_message = ?, updated_at = ?
		WHERE status IN (?, ?)`,
		StatusFailed, now, recoveryMessage, now, StatusRunning, StatusPending)
	if err != nil {
		return 0, errors.Wrap(err, "failed to recover interrupted executions")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to check rows affected")
	}
	return int(affected), nil
}

// CleanupOldExecutions deletes terminal executions older than the retention
// window. Returns the number of rows deleted.
func (s *ExecutionStore) CleanupOldExecutions(retention time.Duration) (int, error) {
	cutoff := formatTime(time.Now().UTC().Add(-retention))
	result, err := s.db.Exec(`
		DELETE FROM job_executions
		WHERE status IN (?, ?) AND created_at < ?`,
		StatusSuccess, StatusFailed, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up old executions")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to check rows affected")
	}
	return int(affected), nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func scanExecution(row rowScanner) (*Execution, error) {
	var exec Execution
	var jobType, createdAt, updatedAt string
	var startedAt, completedAt, errorMessage, metricsJSON, logsJSON sql.NullString
	var recordsCreated, recordsUpdated, apiRequests int

	err := row.Scan(&exec.ID, &exec.JobConfigID, &jobType, &exec.Status,
		&startedAt, &completedAt, &errorMessage,
		&recordsCreated, &recordsUpdated, &apiRequests,
		&metricsJSON, &logsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	exec.JobType = JobType(jobType)
	exec.CreatedAt = parseTime(createdAt)
	exec.UpdatedAt = parseTime(updatedAt)
	if startedAt.Valid {
		t := parseTime(startedAt.String)
		exec.StartedAt = &t
	}
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		exec.CompletedAt = &t
	}
	if errorMessage.Valid {
		exec.ErrorMessage = &errorMessage.String
	}

	exec.Metrics = Metrics{
		MetricRecordsCreated:  recordsCreated,
		MetricRecordsUpdated:  recordsUpdated,
		MetricAPIRequestsMade: apiRequests,
	}
	if metricsJSON.Valid && metricsJSON.String != "" {
		if err := json.Unmarshal([]byte(metricsJSON.String), &exec.Metrics); err != nil {
			return nil, errors.Wrapf(err, "failed to decode metrics for execution %s", exec.ID)
		}
	}
	if logsJSON.Valid && logsJSON.String != "" {
		if err := json.Unmarshal([]byte(logsJSON.String), &exec.Logs); err != nil {
			return nil, errors.Wrapf(err, "failed to decode logs for execution %s", exec.ID)
		}
	}
	return &exec, nil
}

func scanExecutions(rows *sql.Rows) ([]*Execution, error) {
	var execs []*Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan execution")
		}
		execs = append(execs, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate executions")
	}
	return execs, nil
}
