package domain

import (
	"fmt"
	"time"
)

// SyncPhase is the state of the offline sync state machine
type SyncPhase int

const (
	PhaseIdle SyncPhase = iota
	PhaseProcessing
	PhaseDownloading
	PhaseCompleted
	PhaseError
)

func (p SyncPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseProcessing:
		return "processing"
	case PhaseDownloading:
		return "downloading"
	case PhaseCompleted:
		return "completed"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SyncStatus is one published value of the sync status stream.
// Message is set for processing and error; Current/Total for downloading.
type SyncStatus struct {
	Phase   SyncPhase
	Message string
	Current int
	Total   int
}

// Convenience constructors, one per phase.
func StatusIdle() SyncStatus { return SyncStatus{Phase: PhaseIdle} }

func StatusProcessing(msg string) SyncStatus {
	return SyncStatus{Phase: PhaseProcessing, Message: msg}
}

func StatusDownloading(current, total int) SyncStatus {
	return SyncStatus{Phase: PhaseDownloading, Current: current, Total: total}
}

func StatusCompleted() SyncStatus { return SyncStatus{Phase: PhaseCompleted} }

func StatusError(msg string) SyncStatus {
	return SyncStatus{Phase: PhaseError, Message: msg}
}

// Progress returns Current/Total in [0,1], or 0 when Total is 0
func (s SyncStatus) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	p := float64(s.Current) / float64(s.Total)
	if p > 1 {
		return 1
	}
	return p
}

// Active reports whether a sync is running in this state
func (s SyncStatus) Active() bool {
	return s.Phase == PhaseProcessing || s.Phase == PhaseDownloading
}

func (s SyncStatus) String() string {
	switch s.Phase {
	case PhaseProcessing:
		return fmt.Sprintf("processing(%s)", s.Message)
	case PhaseDownloading:
		return fmt.Sprintf("downloading(%d/%d)", s.Current, s.Total)
	case PhaseError:
		return fmt.Sprintf("error(%s)", s.Message)
	default:
		return s.Phase.String()
	}
}

// SyncObserver receives every status the sync publishes.
// OnStatus is called from the sync coordinator and must not block.
type SyncObserver interface {
	OnStatus(status SyncStatus)
}

// ObserverFunc adapts a function to SyncObserver
type ObserverFunc func(SyncStatus)

func (f ObserverFunc) OnStatus(s SyncStatus) { f(s) }

// SyncReport summarizes one finished sync run
type SyncReport struct {
	RunID             string    `json:"runId"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	Assignments       int       `json:"assignments"`       // Assignments with an id that were fetched
	FailedAssignments []string  `json:"failedAssignments"` // Ids whose fetch failed
	MissingImages     int       `json:"missingImages"`     // Size of the deduplicated download set
	Downloaded        int       `json:"downloaded"`
	FailedImages      int       `json:"failedImages"`
	Phase             SyncPhase `json:"phase"` // Terminal phase: completed or error
	Message           string    `json:"message,omitempty"`
}

// Duration returns how long the run took
func (r SyncReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
