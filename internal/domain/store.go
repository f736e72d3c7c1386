package domain

// SnapshotStore persists whole-list JSON snapshots.
// Readers use it directly as the offline fallback source.
type SnapshotStore interface {
	// === Homework list (singleton) ===
	LoadHomeworks() ([]Homework, bool)
	SaveHomeworks(list []Homework) error

	// === Problem lists (keyed by assignment id) ===
	LoadProblems(assignmentID string) ([]ProblemItem, bool)
	SaveProblems(assignmentID string, items []ProblemItem) error
}

// AnswerRepository stores answers the student recorded locally
type AnswerRepository interface {
	Answers(assignmentID string) ([]SavedAnswer, bool)
	SaveAnswer(assignmentID string, answer SavedAnswer) error
	MarkSubmitted(assignmentID string, problemIndexes []int) error
}

// ReportStore keeps the outcome of sync runs
type ReportStore interface {
	SaveReport(report SyncReport) error
	LastReport() (SyncReport, bool)
}
