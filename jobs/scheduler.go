package jobs

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/riftwatch/riftwatch/errors"
)

// timeoutMessage is recorded on executions killed by their deadline
const timeoutMessage = "execution timed out"

// SchedulerOptions tune retention housekeeping
type SchedulerOptions struct {
	ExecutionRetention time.Duration
	CleanupInterval    time.Duration
}

func (o *SchedulerOptions) defaults() {
	if o.ExecutionRetention <= 0 {
		o.ExecutionRetention = 90 * 24 * time.Hour
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 24 * time.Hour
	}
}

// Scheduler drives the configured jobs on their cron or interval schedules.
// At most one execution per job type is in flight at any time; a trigger
// that fires while the previous run is still active is skipped and logged.
type Scheduler struct {
	configs    *ConfigStore
	executions *ExecutionStore
	registry   *Registry
	deps       Deps
	opts       SchedulerOptions
	logger     *zap.SugaredLogger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inFlight map[JobType]bool
	started  bool
}

func NewScheduler(db *sql.DB, registry *Registry, deps Deps, opts SchedulerOptions, logger *zap.SugaredLogger) *Scheduler {
	opts.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		configs:    NewConfigStore(db),
		executions: NewExecutionStore(db),
		registry:   registry,
		deps:       deps,
		opts:       opts,
		logger:     logger.Named("scheduler"),
		cron:       cron.New(),
		ctx:        ctx,
		cancel:     cancel,
		inFlight:   make(map[JobType]bool),
	}
}

// Start recovers orphaned executions, schedules every active configuration,
// and begins ticking. Configurations that fail validation or carry an
// unparsable schedule are logged and excluded; the rest run normally.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.started = true
	s.mu.Unlock()

	recovered, err := s.executions.RecoverInterrupted()
	if err != nil {
		return errors.Wrap(err, "startup recovery failed")
	}
	if recovered > 0 {
		s.logger.Warnw("recovered interrupted executions", "count", recovered)
	}

	configs, err := s.configs.GetActiveConfigs()
	if err != nil {
		return errors.Wrap(err, "failed to load job configurations")
	}

	scheduled := 0
	for _, cfg := range configs {
		if err := s.schedule(cfg); err != nil {
			s.logger.Errorw("excluding job from schedule",
				"job", cfg.Name, "error", err)
			continue
		}
		scheduled++
	}

	s.cron.Start()
	s.wg.Add(2)
	go s.telemetryLoop()
	go s.cleanupLoop()

	setDefault(s)
	s.logger.Infow("scheduler started", "jobs", scheduled, "excluded", len(configs)-scheduled)
	return nil
}

func (s *Scheduler) schedule(cfg *JobConfiguration) error {
	if _, err := ParseConfig(cfg.Type, cfg.Config); err != nil {
		return err
	}
	sched, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}

	name := cfg.Name
	s.cron.Schedule(sched, cron.FuncJob(func() { s.runJob(name) }))
	s.logger.Infow("job scheduled", "job", name, "type", cfg.Type, "schedule", cfg.Schedule)
	return nil
}

// runJob performs one triggered execution of the named job. The
// configuration is re-read on every trigger so edits and deactivation take
// effect on the next tick without a restart.
func (s *Scheduler) runJob(name string) {
	s.wg.Add(1)
	defer s.wg.Done()

	cfg, err := s.configs.GetByName(name)
	if err != nil {
		s.logger.Errorw("skipping run, config unavailable", "job", name, "error", err)
		return
	}
	if !cfg.IsActive {
		s.logger.Infow("skipping run, job deactivated", "job", name)
		return
	}
	typed, err := ParseConfig(cfg.Type, cfg.Config)
	if err != nil {
		s.logger.Errorw("skipping run, config invalid", "job", name, "error", err)
		return
	}

	if !s.tryAcquire(cfg.Type) {
		s.logger.Infow("skipped - previous run still active", "job", name, "type", cfg.Type)
		return
	}

	base := NewBaseJob(cfg.Type, cfg.ID, s.executions, s.logger)
	runner, err := s.registry.New(cfg.Type, base, typed, s.deps)
	if err != nil {
		s.release(cfg.Type)
		s.logger.Errorw("failed to construct job", "job", name, "error", err)
		return
	}

	if _, err := base.LogStart(); err != nil {
		s.release(cfg.Type)
		s.logger.Errorw("failed to start execution", "job", name, "error", err)
		return
	}

	// the deadline is the job's own, detached from scheduler shutdown so a
	// clean shutdown can wait for in-flight work instead of cancelling it
	ctx, cancel := context.WithTimeout(context.Background(), typed.Timeout())

	done := make(chan error, 1)
	go func() {
		defer cancel()
		err := s.executeSafely(ctx, runner)
		// release before signaling so a completed run can never be seen as
		// still in flight by the next trigger
		s.release(cfg.Type)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			s.completeJob(base, name, false, err.Error())
		} else {
			s.completeJob(base, name, true, "")
		}
	case <-ctx.Done():
		// the runner keeps the in-flight slot until it actually returns,
		// so a slow cancel can never overlap with the next trigger
		s.completeJob(base, name, false, timeoutMessage)
	}
}

func (s *Scheduler) executeSafely(ctx context.Context, runner Runner) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("job panicked: %v", r)
		}
	}()
	return runner.Execute(ctx)
}

func (s *Scheduler) completeJob(base *BaseJob, name string, success bool, message string) {
	if err := base.LogCompletion(success, message); err != nil {
		s.logger.Errorw("failed to record completion", "job", name, "error", err)
	}
}

func (s *Scheduler) tryAcquire(jobType JobType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[jobType] {
		return false
	}
	s.inFlight[jobType] = true
	return true
}

func (s *Scheduler) release(jobType JobType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, jobType)
}

// InFlight returns the job types currently executing
func (s *Scheduler) InFlight() []JobType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]JobType, 0, len(s.inFlight))
	for t := range s.inFlight {
		types = append(types, t)
	}
	return types
}

func (s *Scheduler) cleanupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.executions.CleanupOldExecutions(s.opts.ExecutionRetention)
			if err != nil {
				s.logger.Errorw("execution cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.Infow("cleaned up old executions", "deleted", deleted)
			}
		}
	}
}

// Shutdown stops triggering new runs. With wait set it blocks until
// in-flight executions finish, bounded by each job's own timeout.
func (s *Scheduler) Shutdown(wait bool) {
	cronCtx := s.cron.Stop()
	s.cancel()
	if wait {
		<-cronCtx.Done()
		s.wg.Wait()
	}
	clearDefault(s)
	s.logger.Infow("scheduler stopped")
}

// ParseSchedule resolves a schedule string into a cron schedule. The form
// "interval:<seconds>" runs at a fixed period; anything else is parsed as a
// standard 5-field cron expression.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	if rest, ok := strings.CutPrefix(schedule, "interval:"); ok {
		seconds, err := strconv.Atoi(rest)
		if err != nil || seconds <= 0 {
			return nil, errors.NewConfigValidationError("invalid interval schedule %q", schedule)
		}
		return cron.Every(time.Duration(seconds) * time.Second), nil
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigValidation, "invalid cron schedule %q: %v", schedule, err)
	}
	return sched, nil
}

var (
	defaultMu        sync.Mutex
	defaultScheduler *Scheduler
)

// Default returns the running scheduler, or nil when none has started
func Default() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultScheduler
}

func setDefault(s *Scheduler) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultScheduler = s
}

func clearDefault(s *Scheduler) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultScheduler == s {
		defaultScheduler = nil
	}
}
