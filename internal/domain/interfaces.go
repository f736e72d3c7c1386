package domain

import (
	"context"
	"time"
)

// ProblemClient fetches the problem list of one assignment
type ProblemClient interface {
	FetchProblemList(ctx context.Context, token, assignmentID string) ([]ProblemItem, error)
}

// HomeworkClient fetches the student's homework list for a date window
type HomeworkClient interface {
	FetchHomeworkList(ctx context.Context, token, relationID string, from, to time.Time) ([]Homework, error)
}

// SubmitClient sends answers for automatic scoring
type SubmitClient interface {
	SubmitProblems(ctx context.Context, token, assignmentID string, subs []Submission) error
}

// Client is the full remote API surface used by the application
type Client interface {
	ProblemClient
	HomeworkClient
	SubmitClient
}

// ImageCache resolves and populates the content-addressed image cache
type ImageCache interface {
	// LocalPath returns the cached file for url, if present on disk
	LocalPath(url string) (string, bool)

	// EnsureCached downloads url unless it is already cached. Never fails loudly:
	// the outcome is carried in the result.
	EnsureCached(ctx context.Context, url string) ImageResult
}

// ImageOutcome describes how an EnsureCached call resolved
type ImageOutcome int

const (
	ImageCached     ImageOutcome = iota // Already on disk, no I/O
	ImageDownloaded                     // Fetched and persisted
	ImageFailed                         // Left uncached; retried on a later sync
)

func (o ImageOutcome) String() string {
	switch o {
	case ImageCached:
		return "cached"
	case ImageDownloaded:
		return "downloaded"
	default:
		return "failed"
	}
}

// ImageResult is the typed result of one image cache attempt
type ImageResult struct {
	URL     string
	Path    string // Local path; empty when Outcome is ImageFailed
	Outcome ImageOutcome
	Err     error // Set only when Outcome is ImageFailed
}
