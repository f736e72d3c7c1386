package download

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/flatsync/internal/domain"
)

const (
	// DefaultConcurrency is the number of downloads allowed in flight
	DefaultConcurrency = 5

	// DefaultTimeout bounds each individual download
	DefaultTimeout = 30 * time.Second
)

// Fetcher caches a single image. domain.ImageCache satisfies it.
type Fetcher interface {
	EnsureCached(ctx context.Context, url string) domain.ImageResult
}

// Options configures the scheduler.
type Options struct {
	// Concurrency is the maximum number of downloads in flight (default: 5).
	Concurrency int

	// Timeout bounds each download (default: 30s).
	Timeout time.Duration

	Logger *slog.Logger
}

// Scheduler runs image downloads with a fixed concurrency ceiling.
type Scheduler struct {
	fetcher     Fetcher
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewScheduler creates a scheduler that downloads through fetcher.
func NewScheduler(fetcher Fetcher, opts Options) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{
		fetcher:     fetcher,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}
}

// Concurrency returns the configured ceiling
func (s *Scheduler) Concurrency() int {
	return s.concurrency
}

// Start downloads every url and returns a channel carrying exactly one result
// per submitted url. The channel is closed once all of them have resolved.
//
// URLs are started in input order; at most Concurrency run at once. Duplicates
// are allowed, the fetcher's existence check makes repeats cheap. A failed or
// timed-out download never stops the batch.
func (s *Scheduler) Start(ctx context.Context, urls []string) <-chan domain.ImageResult {
	results := make(chan domain.ImageResult, len(urls))

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(s.concurrency)

		for _, u := range urls {
			if ctx.Err() != nil {
				// Cancelled: resolve the rest without starting them
				results <- domain.ImageResult{URL: u, Outcome: domain.ImageFailed, Err: ctx.Err()}
				continue
			}
			g.Go(func() error {
				results <- s.fetchOne(ctx, u)
				return nil
			})
		}

		g.Wait()
	}()

	return results
}

// fetchOne runs a single download bounded by the per-download timeout. The
// slot is released at the deadline even if the fetcher ignores its context.
func (s *Scheduler) fetchOne(ctx context.Context, url string) domain.ImageResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan domain.ImageResult, 1)
	go func() {
		done <- s.fetcher.EnsureCached(ctx, url)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("image download timed out", "url", url, "timeout", s.timeout)
		}
		return domain.ImageResult{URL: url, Outcome: domain.ImageFailed, Err: ctx.Err()}
	}
}

// Summary tallies a drained result stream
type Summary struct {
	Total      int
	Cached     int
	Downloaded int
	Failed     int
}

// Add counts one result
func (s *Summary) Add(res domain.ImageResult) {
	s.Total++
	switch res.Outcome {
	case domain.ImageCached:
		s.Cached++
	case domain.ImageDownloaded:
		s.Downloaded++
	default:
		s.Failed++
	}
}

// Drain reads results until the channel closes and returns the tally
func Drain(results <-chan domain.ImageResult) Summary {
	var sum Summary
	for res := range results {
		sum.Add(res)
	}
	return sum
}
