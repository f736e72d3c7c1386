package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser accepts six-field specs (with seconds) and descriptors like "@every 10m"
var Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is one scheduled run. ctx is cancelled when the watcher stops.
type Job func(ctx context.Context)

// Watcher runs a job on a cron schedule until its context is cancelled.
// A run still in progress when the next tick fires causes that tick to be skipped.
type Watcher struct {
	spec     string
	schedule cron.Schedule
	job      Job
	logger   *slog.Logger
}

// New validates spec and creates a watcher
func New(spec string, job Job, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schedule, err := Parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return &Watcher{spec: spec, schedule: schedule, job: job, logger: logger}, nil
}

// Next returns the first scheduled time after ref
func (w *Watcher) Next(ref time.Time) time.Time {
	return w.schedule.Next(ref)
}

// Run blocks until ctx is cancelled, running the job on schedule. When
// immediate is set the job also runs once right away. Run waits for an
// in-flight job before returning.
func (w *Watcher) Run(ctx context.Context, immediate bool) error {
	clog := cronLogger{w.logger}
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	id := c.Schedule(w.schedule, cron.FuncJob(func() { w.job(ctx) }))

	w.logger.Info("watch started", "schedule", w.spec, "next", w.Next(time.Now()))
	c.Start()

	var wg sync.WaitGroup
	if immediate {
		// Route through the chain so the first tick cannot overlap it
		job := c.Entry(id).WrappedJob
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()
	<-c.Stop().Done()
	wg.Wait()
	w.logger.Info("watch stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
