package homework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/flatsync/internal/domain"
)

const (
	// DefaultWindowDays is how far back the homework list reaches
	DefaultWindowDays = 28

	// KeypadDecimal is the keypad type of auto-scored problems
	KeypadDecimal = "DECIMAL"
)

// ErrNoPendingAnswers is returned by SubmitPending when there is nothing to send
var ErrNoPendingAnswers = errors.New("no pending answers")

// Options wires the service's collaborators.
type Options struct {
	Client     domain.Client
	Snapshots  domain.SnapshotStore
	Answers    domain.AnswerRepository
	RelationID string
	WindowDays int
	Logger     *slog.Logger

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Service combines the remote API with the local cache: fresh data is
// snapshotted on every successful fetch, cached data is served on failure.
type Service struct {
	client     domain.Client
	snapshots  domain.SnapshotStore
	answers    domain.AnswerRepository
	relationID string
	windowDays int
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new homework service.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		client:     opts.Client,
		snapshots:  opts.Snapshots,
		answers:    opts.Answers,
		relationID: opts.RelationID,
		windowDays: opts.WindowDays,
		now:        opts.Now,
		logger:     opts.Logger,
	}
}

// Window returns the date range the homework list is fetched for
func (s *Service) Window() (from, to time.Time) {
	to = s.now()
	return to.AddDate(0, 0, -s.windowDays), to
}

// Homeworks fetches the homework list and snapshots it. When the fetch fails
// the cached list is returned instead and fromCache is true. The fetch error
// is returned only when there is no cached list either.
func (s *Service) Homeworks(ctx context.Context, token string) (list []domain.Homework, fromCache bool, err error) {
	from, to := s.Window()
	list, err = s.client.FetchHomeworkList(ctx, token, s.relationID, from, to)
	if err == nil {
		if err := s.snapshots.SaveHomeworks(list); err != nil {
			s.logger.Error("failed to save homeworks", "error", err)
		}
		s.logger.Debug("fetched homeworks", "count", len(list))
		return list, false, nil
	}

	s.logger.Warn("failed to fetch homeworks, trying cache", "error", err)
	if cached, ok := s.snapshots.LoadHomeworks(); ok {
		return cached, true, nil
	}
	return nil, false, fmt.Errorf("fetch homeworks: %w", err)
}

// Problems fetches one assignment's problems with the same cache fallback as Homeworks
func (s *Service) Problems(ctx context.Context, token, assignmentID string) (items []domain.ProblemItem, fromCache bool, err error) {
	items, err = s.client.FetchProblemList(ctx, token, assignmentID)
	if err == nil {
		if err := s.snapshots.SaveProblems(assignmentID, items); err != nil {
			s.logger.Error("failed to save problems", "error", err, "assignmentID", assignmentID)
		}
		return items, false, nil
	}

	s.logger.Warn("failed to fetch problems, trying cache", "error", err, "assignmentID", assignmentID)
	if cached, ok := s.snapshots.LoadProblems(assignmentID); ok {
		return cached, true, nil
	}
	return nil, false, fmt.Errorf("fetch problems for %s: %w", assignmentID, err)
}

// RecordAnswer stores the student's answer for one problem locally.
// Recording again replaces the previous answer and clears its submitted flag.
func (s *Service) RecordAnswer(assignmentID string, problemIndex int, answer string, unknown bool) error {
	if assignmentID == "" {
		return domain.ErrMissingAssignmentID
	}
	if problemIndex < 0 {
		return fmt.Errorf("invalid problem index %d", problemIndex)
	}
	return s.answers.SaveAnswer(assignmentID, domain.SavedAnswer{
		ProblemIndex: problemIndex,
		Answer:       answer,
		Unknown:      unknown,
	})
}

// Answers returns the locally recorded answers of an assignment
func (s *Service) Answers(assignmentID string) []domain.SavedAnswer {
	answers, _ := s.answers.Answers(assignmentID)
	return answers
}

// SubmitPending sends every unsubmitted, non-empty answer to a decimal-keypad
// problem in one request and marks them submitted. Answers to other problem
// types stay pending. Returns how many were sent.
func (s *Service) SubmitPending(ctx context.Context, token, assignmentID string) (int, error) {
	answers, _ := s.answers.Answers(assignmentID)

	var pending []domain.SavedAnswer
	for _, a := range answers {
		if !a.Submitted && a.Answer != "" {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return 0, ErrNoPendingAnswers
	}

	// Problem indexes map to worksheet problem ids through the page order
	items, fromCache, err := s.Problems(ctx, token, assignmentID)
	if err != nil {
		return 0, err
	}
	if fromCache {
		s.logger.Debug("mapping answers with cached problems", "assignmentID", assignmentID)
	}

	subs := make([]domain.Submission, 0, len(pending))
	indexes := make([]int, 0, len(pending))
	for _, a := range pending {
		if a.ProblemIndex >= len(items) {
			s.logger.Warn("answer for unknown problem", "assignmentID", assignmentID, "problemIndex", a.ProblemIndex)
			continue
		}
		if !autoScored(items[a.ProblemIndex]) {
			s.logger.Debug("skipping answer for non-decimal problem", "assignmentID", assignmentID, "problemIndex", a.ProblemIndex)
			continue
		}
		subs = append(subs, domain.Submission{
			WorksheetProblemID: items[a.ProblemIndex].WorksheetProblemID,
			Unknown:            a.Unknown,
			UserAnswer:         LatexFraction(a.Answer),
		})
		indexes = append(indexes, a.ProblemIndex)
	}
	if len(subs) == 0 {
		return 0, ErrNoPendingAnswers
	}

	if err := s.client.SubmitProblems(ctx, token, assignmentID, subs); err != nil {
		return 0, fmt.Errorf("submit answers for %s: %w", assignmentID, err)
	}

	if err := s.answers.MarkSubmitted(assignmentID, indexes); err != nil {
		s.logger.Error("failed to mark answers submitted", "error", err, "assignmentID", assignmentID)
	}

	s.logger.Info("submitted answers", "assignmentID", assignmentID, "count", len(subs))
	return len(subs), nil
}

// autoScored reports whether the scoring endpoint grades item's typed answer.
// Only problems answered on the decimal keypad alone qualify.
func autoScored(item domain.ProblemItem) bool {
	if item.Problem == nil {
		return false
	}
	kt := item.Problem.KeypadTypes
	return len(kt) == 1 && kt[0] == KeypadDecimal
}
