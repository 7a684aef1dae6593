// Package scheduler は robfig/cron を使ってバックグラウンドジョブを定期実行します。
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job は定期実行されるジョブです。
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc は関数をJobとして登録するためのアダプターです。
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

// Scheduler manages background jobs.
// 同じジョブの実行が重なった場合、後続の実行はスキップされます。
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// New creates a new scheduler. timeout bounds each job run (0 = unbounded).
func New(timeout time.Duration) *Scheduler {
	logger := cronLogger{log: slog.With("component", "scheduler")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// AddJob registers a job with a cron schedule.
// Schedule examples:
//   - "*/5 * * * *" - Every 5 minutes
//   - "@every 30s"  - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			slog.Error("job failed", "job", job.Name(), "error", err)
		}
	})
	if err != nil {
		return err
	}
	slog.Info("job registered", "job", job.Name(), "schedule", schedule)
	return nil
}

// RunNow executes a job immediately (outside schedule).
func (s *Scheduler) RunNow(job Job) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Debug("running job", "job", job.Name())
	err := job.Run(ctx)
	slog.Debug("job finished", "job", job.Name(), "duration", time.Since(start), "error", err)
	return err
}

// cronLogger は cron.Logger を slog に橋渡しします。
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
