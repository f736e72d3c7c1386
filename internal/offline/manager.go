package offline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/flatsync/internal/domain"
	"github.com/mmcdole/flatsync/internal/download"
)

const (
	// DefaultIdleDelay is how long "completed" stays visible before idle
	DefaultIdleDelay = 3 * time.Second

	processingMessage = "updating problems"
	cancelledMessage  = "sync cancelled"
)

// Options wires the manager's collaborators.
type Options struct {
	Client    domain.ProblemClient
	Snapshots domain.SnapshotStore
	Images    domain.ImageCache

	// Scheduler runs the image downloads. Default: 5 in flight, 30s each.
	Scheduler *download.Scheduler

	// Reports records each finished run (optional).
	Reports domain.ReportStore

	// IdleDelay is the completed → idle delay (default: 3s).
	IdleDelay time.Duration

	Logger *slog.Logger
}

// Manager orchestrates offline sync: it refreshes problem snapshots, prefetches
// missing images and publishes a single status stream for the whole run.
//
// Counters and status are only mutated under mu by the run's coordinator
// goroutine (and the idle timer). Workers hand results back via per-index
// slots and the scheduler's result channel.
type Manager struct {
	client    domain.ProblemClient
	snapshots domain.SnapshotStore
	images    domain.ImageCache
	scheduler *download.Scheduler
	reports   domain.ReportStore
	idleDelay time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	status    domain.SyncStatus
	syncing   bool
	processed int
	total     int
	runGen    uint64
	idleTimer *time.Timer
	closed    bool
	done      chan struct{} // Closed when the latest run finishes
	observers map[int]domain.SyncObserver
	nextObsID int

	ctx    context.Context // Cancelled by Close
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager in the idle state.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IdleDelay <= 0 {
		opts.IdleDelay = DefaultIdleDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = download.NewScheduler(opts.Images, download.Options{Logger: opts.Logger})
	}

	done := make(chan struct{})
	close(done)

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		client:    opts.Client,
		snapshots: opts.Snapshots,
		images:    opts.Images,
		scheduler: opts.Scheduler,
		reports:   opts.Reports,
		idleDelay: opts.IdleDelay,
		logger:    opts.Logger,
		status:    domain.StatusIdle(),
		observers: make(map[int]domain.SyncObserver),
		done:      done,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Status returns the current status
func (m *Manager) Status() domain.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Progress returns processed/total of the current run (0 when total is 0)
func (m *Manager) Progress() float64 {
	return m.Status().Progress()
}

// Syncing reports whether a run is in progress
func (m *Manager) Syncing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncing
}

// Subscribe registers obs for every status published from now on. The current
// status is delivered immediately. obs is called with the manager's lock held:
// it must not block or call back into the manager.
func (m *Manager) Subscribe(obs domain.SyncObserver) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = obs
	obs.OnStatus(m.status)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// SyncAll starts a background sync of every homework's problems and images.
// It returns false without doing anything if a sync is already running or the
// manager is closed. Cancelling ctx (or closing the manager) stops the run.
func (m *Manager) SyncAll(ctx context.Context, token string, homeworks []domain.Homework) bool {
	m.mu.Lock()
	if m.closed || m.syncing {
		m.mu.Unlock()
		m.logger.Debug("sync already in progress, dropping request")
		return false
	}
	m.syncing = true
	m.runGen++
	gen := m.runGen
	m.processed, m.total = 0, 0
	m.stopIdleTimerLocked()
	m.publishLocked(domain.StatusProcessing(processingMessage))
	done := make(chan struct{})
	m.done = done
	m.wg.Add(1)
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)

	go func() {
		defer m.wg.Done()
		defer close(done)
		defer stop()
		defer cancel()
		m.run(runCtx, gen, token, homeworks)
	}()

	return true
}

// Wait blocks until the latest sync, if any, has finished. It may be called
// from any goroutine, concurrently with SyncAll.
func (m *Manager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	<-done
}

// Close cancels any running sync, stops the idle timer and waits for the run
// to wind down. SyncAll is a no-op afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.stopIdleTimerLocked()
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	return nil
}

func (m *Manager) run(ctx context.Context, gen uint64, token string, homeworks []domain.Homework) {
	report := domain.SyncReport{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := m.logger.With("runID", report.RunID)
	logger.Info("sync started", "homeworks", len(homeworks))

	missing, attempted, failed := m.refreshProblems(ctx, logger, token, homeworks)
	report.Assignments = attempted
	report.FailedAssignments = failed
	report.MissingImages = len(missing)

	if ctx.Err() != nil {
		m.finishWithError(logger, gen, cancelledMessage, &report)
		return
	}
	if attempted > 0 && len(failed) == attempted {
		m.finishWithError(logger, gen, domain.ErrAllFetchesFailed.Error(), &report)
		return
	}

	if len(missing) > 0 {
		m.downloadImages(ctx, missing, &report)
		if ctx.Err() != nil {
			m.finishWithError(logger, gen, cancelledMessage, &report)
			return
		}
	}

	m.finishCompleted(logger, gen, &report)
}

// refreshProblems fetches every assignment in parallel, saves the snapshots
// and returns the union of images not yet cached (first-seen order), plus how
// many assignments were attempted and which ones failed.
func (m *Manager) refreshProblems(
	ctx context.Context,
	logger *slog.Logger,
	token string,
	homeworks []domain.Homework,
) (missing []string, attempted int, failed []string) {
	type assignmentResult struct {
		id      string
		missing []string
		err     error
	}

	ids := make([]string, 0, len(homeworks))
	seenIDs := make(map[string]bool, len(homeworks))
	for _, hw := range homeworks {
		id, ok := hw.AssignmentID()
		if !ok {
			logger.Debug("skipping homework without assignment id", "homeworkID", hw.ID, "title", hw.Title)
			continue
		}
		if seenIDs[id] {
			continue
		}
		seenIDs[id] = true
		ids = append(ids, id)
	}

	results := make([]assignmentResult, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			urls, err := m.refreshAssignment(ctx, logger, token, id)
			results[i] = assignmentResult{id: id, missing: urls, err: err}
			return nil
		})
	}
	g.Wait()

	seen := make(map[string]bool)
	for _, res := range results {
		if res.err != nil {
			failed = append(failed, res.id)
			continue
		}
		for _, u := range res.missing {
			if !seen[u] {
				seen[u] = true
				missing = append(missing, u)
			}
		}
	}

	logger.Debug("problems refreshed", "assignments", len(ids), "failed", len(failed), "missingImages", len(missing))
	return missing, len(ids), failed
}

// refreshAssignment fetches and snapshots one assignment's problems and
// returns its image URLs that are not cached yet.
func (m *Manager) refreshAssignment(ctx context.Context, logger *slog.Logger, token, assignmentID string) ([]string, error) {
	items, err := m.client.FetchProblemList(ctx, token, assignmentID)
	if err != nil {
		logger.Warn("failed to fetch problems", "assignmentID", assignmentID, "error", err)
		return nil, err
	}

	if err := m.snapshots.SaveProblems(assignmentID, items); err != nil {
		logger.Error("failed to save problems", "assignmentID", assignmentID, "error", err)
	}

	var missing []string
	for _, item := range items {
		for _, u := range item.ImageURLs() {
			if _, ok := m.images.LocalPath(u); !ok {
				missing = append(missing, u)
			}
		}
	}
	return missing, nil
}

// downloadImages drives the scheduler and folds each resolved URL into the
// published progress.
func (m *Manager) downloadImages(ctx context.Context, urls []string, report *domain.SyncReport) {
	m.mu.Lock()
	m.total = len(urls)
	m.processed = 0
	m.publishLocked(domain.StatusDownloading(0, m.total))
	m.mu.Unlock()

	var sum download.Summary
	for res := range m.scheduler.Start(ctx, urls) {
		sum.Add(res)

		m.mu.Lock()
		m.processed++
		m.publishLocked(domain.StatusDownloading(m.processed, m.total))
		m.mu.Unlock()
	}

	report.Downloaded = sum.Downloaded + sum.Cached
	report.FailedImages = sum.Failed
}

func (m *Manager) finishCompleted(logger *slog.Logger, gen uint64, report *domain.SyncReport) {
	m.mu.Lock()
	m.publishLocked(domain.StatusCompleted())
	m.idleTimer = time.AfterFunc(m.idleDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.runGen == gen && m.status.Phase == domain.PhaseCompleted {
			m.publishLocked(domain.StatusIdle())
		}
	})
	// Guard is cleared only once the idle reset is scheduled
	m.syncing = false
	m.mu.Unlock()

	report.Phase = domain.PhaseCompleted
	m.record(logger, report)
}

func (m *Manager) finishWithError(logger *slog.Logger, gen uint64, msg string, report *domain.SyncReport) {
	m.mu.Lock()
	if m.runGen == gen {
		m.publishLocked(domain.StatusError(msg))
	}
	m.syncing = false
	m.mu.Unlock()

	report.Phase = domain.PhaseError
	report.Message = msg
	m.record(logger, report)
}

func (m *Manager) record(logger *slog.Logger, report *domain.SyncReport) {
	report.FinishedAt = time.Now()
	logger.Info("sync finished",
		"phase", report.Phase.String(),
		"assignments", report.Assignments,
		"failedAssignments", len(report.FailedAssignments),
		"missingImages", report.MissingImages,
		"downloaded", report.Downloaded,
		"failedImages", report.FailedImages,
		"duration", report.Duration(),
	)

	if m.reports == nil {
		return
	}
	if err := m.reports.SaveReport(*report); err != nil {
		logger.Error("failed to save sync report", "error", err)
	}
}

// publishLocked sets the status and fans it out. Caller holds mu.
func (m *Manager) publishLocked(status domain.SyncStatus) {
	m.status = status
	for _, obs := range m.observers {
		obs.OnStatus(status)
	}
}

func (m *Manager) stopIdleTimerLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}
