package domain

import (
	"fmt"
	"strconv"
)

// HomeworkStatus is the completion state of an assignment as reported by the server
type HomeworkStatus string

const (
	HomeworkNotStarted HomeworkStatus = "NOT_STARTED"
	HomeworkInProgress HomeworkStatus = "IN_PROGRESS"
	HomeworkComplete   HomeworkStatus = "COMPLETE"
)

// Label returns a short display label for the status
func (s HomeworkStatus) Label() string {
	switch s {
	case HomeworkNotStarted:
		return "not started"
	case HomeworkInProgress:
		return "in progress"
	case HomeworkComplete:
		return "complete"
	default:
		if s == "" {
			return "unknown"
		}
		return string(s)
	}
}

// ProblemResult is the grading result of a single problem
type ProblemResult string

const (
	ResultNone    ProblemResult = "NONE"
	ResultCorrect ProblemResult = "CORRECT"
	ResultWrong   ProblemResult = "WRONG"
)

// Homework is one assignment from the student's homework list
type Homework struct {
	ID             int64          `json:"id"`
	StudentBookID  int64          `json:"studentBookId"` // Key for the problem list; 0 when the server omitted it
	Title          string         `json:"title"`
	BookType       string         `json:"bookType,omitempty"`
	Type           string         `json:"type,omitempty"`
	Revision       string         `json:"revision,omitempty"`
	SchoolType     string         `json:"schoolType,omitempty"`
	Grade          string         `json:"grade,omitempty"`
	Semester       string         `json:"semester,omitempty"`
	AutoScorable   bool           `json:"autoScorable"`
	Status         HomeworkStatus `json:"status"`
	TotalCount     int            `json:"totalCount"`
	AssignedCount  int            `json:"assignedCount"`
	SolvedCount    int            `json:"solvedCount"`
	Score          int            `json:"score"`
	UpdateDateTime string         `json:"updateDateTime,omitempty"`
	OpenDateTime   string         `json:"openDatetime,omitempty"`
	ScoreDateTime  string         `json:"scoreDatetime,omitempty"`
}

// AssignmentID returns the key used for the assignment's problem list.
// The second return is false when the homework carries no student book id.
func (h Homework) AssignmentID() (string, bool) {
	if h.StudentBookID == 0 {
		return "", false
	}
	return strconv.FormatInt(h.StudentBookID, 10), true
}

// Progress returns "solved/assigned" for display
func (h Homework) Progress() string {
	return fmt.Sprintf("%d/%d", h.SolvedCount, h.AssignedCount)
}

// ProblemItem is one page of an assignment: the problem plus the student's state
type ProblemItem struct {
	WorksheetProblemID int64         `json:"worksheetProblemId"`
	Result             ProblemResult `json:"result"`
	UserAnswer         string        `json:"userAnswer,omitempty"`
	Problem            *Problem      `json:"problem,omitempty"`
	HandwrittenNoteURL string        `json:"handwrittenNoteUrl,omitempty"`
	ConceptHidden      bool          `json:"conceptHidden"`
}

// ImageURLs returns every image the item references, skipping empty ones.
// Order is prompt, solution, answer.
func (p ProblemItem) ImageURLs() []string {
	if p.Problem == nil {
		return nil
	}
	var urls []string
	for _, u := range []string{p.Problem.ProblemImageURL, p.Problem.SolutionImageURL, p.Problem.AnswerImageURL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Problem is the problem definition embedded in a ProblemItem
type Problem struct {
	ID                 int64           `json:"id"`
	ConceptID          int64           `json:"conceptId"`
	ConceptName        string          `json:"conceptName,omitempty"`
	GroupCode          int64           `json:"groupCode"`
	TopicID            int64           `json:"topicId"`
	SubTopicID         int64           `json:"subTopicId"`
	GroupCase          string          `json:"groupCase,omitempty"`
	Type               string          `json:"type,omitempty"`
	OptionCount        int             `json:"optionCount"`
	Level              int             `json:"level"`
	LevelOfConceptChip string          `json:"levelOfConceptChip,omitempty"`
	ProblemImageURL    string          `json:"problemImageUrl,omitempty"`
	AnswerImageURL     string          `json:"answerImageUrl,omitempty"`
	SolutionImageURL   string          `json:"solutionImageUrl,omitempty"`
	Answer             string          `json:"answer,omitempty"`
	AnswerUnits        []AnswerUnit    `json:"answerUnits,omitempty"`
	AutoScoredType     string          `json:"autoScoredType,omitempty"`
	AutoScored         bool            `json:"autoScored"`
	KeypadTypes        []string        `json:"keypadTypes,omitempty"`
	Hidden             bool            `json:"hidden"`
	Trendy             bool            `json:"trendy"`
	Sample             bool            `json:"sample"`
	Summary            *ProblemSummary `json:"problemSummary,omitempty"`
	Video              *Video          `json:"video,omitempty"`
	Index              int             `json:"index"`
	Favorite           bool            `json:"favorite"`
	TagTop             string          `json:"tagTop,omitempty"`
}

// AnswerUnit is a unit label shown next to an answer box
type AnswerUnit struct {
	Unit  string `json:"unit"`
	Index int    `json:"index"`
}

// ProblemSummary holds per-problem usage statistics
type ProblemSummary struct {
	ProblemID    int64 `json:"problemId"`
	TotalUsed    int   `json:"totalUsed"`
	CorrectTimes int   `json:"correctTimes"`
	WrongTimes   int   `json:"wrongTimes"`
	AnswerRate   int   `json:"answerRate"`
}

// Video is an explanation video attached to a problem
type Video struct {
	ID           int64  `json:"id"`
	Title        string `json:"title,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	VideoURL     string `json:"videoUrl,omitempty"`
	SubtitleURL  string `json:"subtitleUrl,omitempty"`
}

// SavedAnswer is a locally recorded answer for one problem of an assignment
type SavedAnswer struct {
	ProblemIndex int    `json:"problemIndex"`
	Answer       string `json:"answer"`
	Unknown      bool   `json:"unknown"` // Student marked "I don't know"
	Submitted    bool   `json:"submitted"`
}

// Submission is one scored answer sent to the server
type Submission struct {
	WorksheetProblemID int64  `json:"worksheetProblemId"`
	Unknown            bool   `json:"unknown"`
	UserAnswer         string `json:"userAnswer"`
}
