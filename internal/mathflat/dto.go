package mathflat

// envelope is the wrapper around every mathflat response body
type envelope[T any] struct {
	Data    *T     `json:"data"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HomeworkListData is the payload of the homework list endpoint
type HomeworkListData struct {
	Items                       []HomeworkDTO `json:"items"`
	WorkbookProblemCount        int           `json:"workbookProblemCount,omitempty"`
	WorkbookProblemSolvedCount  int           `json:"workbookProblemSolvedCount,omitempty"`
	WorksheetProblemCount       int           `json:"worksheetProblemCount,omitempty"`
	WorksheetProblemSolvedCount int           `json:"worksheetProblemSolvedCount,omitempty"`
}

// HomeworkDTO is one homework as the server sends it. Every field is optional.
type HomeworkDTO struct {
	ID                      *int64 `json:"id"`
	BookType                string `json:"bookType,omitempty"`
	Type                    string `json:"type,omitempty"`
	StudentBookID           *int64 `json:"studentBookId"`
	Title                   string `json:"title,omitempty"`
	Revision                string `json:"revision,omitempty"`
	SchoolType              string `json:"schoolType,omitempty"`
	Grade                   string `json:"grade,omitempty"`
	Semester                string `json:"semester,omitempty"`
	AutoScorable            bool   `json:"autoScorable,omitempty"`
	AccessModifierToStudent string `json:"accessModifierToStudent,omitempty"`
	Status                  string `json:"status,omitempty"`
	TotalCount              int    `json:"totalCount,omitempty"`
	AssignedCount           int    `json:"assignedCount,omitempty"`
	SolvedCount             int    `json:"solvedCount,omitempty"`
	Score                   int    `json:"score,omitempty"`
	UpdateDateTime          string `json:"updateDateTime,omitempty"`
	OpenDatetime            string `json:"openDatetime,omitempty"`
	ScoreDatetime           string `json:"scoreDatetime,omitempty"`
}

// ProblemPage is the (spring-style) page returned by the problem endpoint
type ProblemPage struct {
	Content          []ProblemItemDTO `json:"content"`
	First            bool             `json:"first,omitempty"`
	Last             bool             `json:"last,omitempty"`
	NumberOfElements int              `json:"numberOfElements,omitempty"`
	Size             int              `json:"size,omitempty"`
	Number           int              `json:"number,omitempty"`
	Empty            bool             `json:"empty,omitempty"`
}

// ProblemItemDTO is one worksheet problem as the server sends it
type ProblemItemDTO struct {
	WorksheetProblemID int64       `json:"worksheetProblemId"`
	Result             string      `json:"result,omitempty"`
	UserAnswer         string      `json:"userAnswer,omitempty"`
	Problem            *ProblemDTO `json:"problem,omitempty"`
	HandwrittenNoteURL string      `json:"handwrittenNoteUrl,omitempty"`
	ConceptHidden      bool        `json:"conceptHidden,omitempty"`
}

// ProblemDTO is the problem definition inside a ProblemItemDTO
type ProblemDTO struct {
	ID                 int64  `json:"id"`
	ConceptID          int64  `json:"conceptId,omitempty"`
	ConceptName        string `json:"conceptName,omitempty"`
	GroupCode          int64  `json:"groupCode,omitempty"`
	TopicID            int64  `json:"topicId,omitempty"`
	SubTopicID         int64  `json:"subTopicId,omitempty"`
	GroupCase          string `json:"groupCase,omitempty"`
	Type               string `json:"type,omitempty"`
	OptionCount        int    `json:"optionCount,omitempty"`
	Level              int    `json:"level,omitempty"`
	LevelOfConceptChip string `json:"levelOfConceptChip,omitempty"`
	ProblemImageURL    string `json:"problemImageUrl,omitempty"`
	AnswerImageURL     string `json:"answerImageUrl,omitempty"`
	SolutionImageURL   string `json:"solutionImageUrl,omitempty"`
	Answer             string `json:"answer,omitempty"`
	AnswerUnits        []struct {
		Unit  string `json:"unit"`
		Index int    `json:"index"`
	} `json:"answerUnits,omitempty"`
	AutoScoredType string   `json:"autoScoredType,omitempty"`
	AutoScored     bool     `json:"autoScored,omitempty"`
	KeypadTypes    []string `json:"keypadTypes,omitempty"`
	Hidden         bool     `json:"hidden,omitempty"`
	Trendy         bool     `json:"trendy,omitempty"`
	Sample         bool     `json:"sample,omitempty"`
	ProblemSummary *struct {
		ProblemID    int64 `json:"problemId"`
		TotalUsed    int   `json:"totalUsed"`
		CorrectTimes int   `json:"correctTimes"`
		WrongTimes   int   `json:"wrongTimes"`
		AnswerRate   int   `json:"answerRate"`
	} `json:"problemSummary,omitempty"`
	Video *struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnailUrl"`
		VideoURL     string `json:"videoUrl"`
		SubtitleURL  string `json:"subtitleUrl"`
	} `json:"video,omitempty"`
	Index    int    `json:"index,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
	TagTop   string `json:"tagTop,omitempty"`
}

// SubmitProblemDTO is one element of the auto-scoring request body
type SubmitProblemDTO struct {
	WorksheetProblemID int64  `json:"worksheetProblemId"`
	Unknown            bool   `json:"unknown"`
	UserAnswer         string `json:"userAnswer"`
}
