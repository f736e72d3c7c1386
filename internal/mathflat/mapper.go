package mathflat

import "github.com/mmcdole/flatsync/internal/domain"

// MapHomeworks converts server homeworks to domain homeworks.
// Entries without an id are dropped.
func MapHomeworks(items []HomeworkDTO) []domain.Homework {
	list := make([]domain.Homework, 0, len(items))
	for _, h := range items {
		if h.ID == nil {
			continue
		}
		list = append(list, mapHomework(h))
	}
	return list
}

func mapHomework(h HomeworkDTO) domain.Homework {
	hw := domain.Homework{
		ID:             *h.ID,
		Title:          h.Title,
		BookType:       h.BookType,
		Type:           h.Type,
		Revision:       h.Revision,
		SchoolType:     h.SchoolType,
		Grade:          h.Grade,
		Semester:       h.Semester,
		AutoScorable:   h.AutoScorable,
		Status:         domain.HomeworkStatus(h.Status),
		TotalCount:     h.TotalCount,
		AssignedCount:  h.AssignedCount,
		SolvedCount:    h.SolvedCount,
		Score:          h.Score,
		UpdateDateTime: h.UpdateDateTime,
		OpenDateTime:   h.OpenDatetime,
		ScoreDateTime:  h.ScoreDatetime,
	}
	if h.StudentBookID != nil {
		hw.StudentBookID = *h.StudentBookID
	}
	return hw
}

// MapProblemItems converts a problem page to domain items, keeping page order
func MapProblemItems(items []ProblemItemDTO) []domain.ProblemItem {
	out := make([]domain.ProblemItem, 0, len(items))
	for _, it := range items {
		item := domain.ProblemItem{
			WorksheetProblemID: it.WorksheetProblemID,
			Result:             domain.ProblemResult(it.Result),
			UserAnswer:         it.UserAnswer,
			HandwrittenNoteURL: it.HandwrittenNoteURL,
			ConceptHidden:      it.ConceptHidden,
		}
		if item.Result == "" {
			item.Result = domain.ResultNone
		}
		if it.Problem != nil {
			item.Problem = mapProblem(it.Problem)
		}
		out = append(out, item)
	}
	return out
}

func mapProblem(p *ProblemDTO) *domain.Problem {
	problem := &domain.Problem{
		ID:                 p.ID,
		ConceptID:          p.ConceptID,
		ConceptName:        p.ConceptName,
		GroupCode:          p.GroupCode,
		TopicID:            p.TopicID,
		SubTopicID:         p.SubTopicID,
		GroupCase:          p.GroupCase,
		Type:               p.Type,
		OptionCount:        p.OptionCount,
		Level:              p.Level,
		LevelOfConceptChip: p.LevelOfConceptChip,
		ProblemImageURL:    p.ProblemImageURL,
		AnswerImageURL:     p.AnswerImageURL,
		SolutionImageURL:   p.SolutionImageURL,
		Answer:             p.Answer,
		AutoScoredType:     p.AutoScoredType,
		AutoScored:         p.AutoScored,
		KeypadTypes:        p.KeypadTypes,
		Hidden:             p.Hidden,
		Trendy:             p.Trendy,
		Sample:             p.Sample,
		Index:              p.Index,
		Favorite:           p.Favorite,
		TagTop:             p.TagTop,
	}

	for _, u := range p.AnswerUnits {
		problem.AnswerUnits = append(problem.AnswerUnits, domain.AnswerUnit{Unit: u.Unit, Index: u.Index})
	}

	if s := p.ProblemSummary; s != nil {
		problem.Summary = &domain.ProblemSummary{
			ProblemID:    s.ProblemID,
			TotalUsed:    s.TotalUsed,
			CorrectTimes: s.CorrectTimes,
			WrongTimes:   s.WrongTimes,
			AnswerRate:   s.AnswerRate,
		}
	}

	if v := p.Video; v != nil {
		problem.Video = &domain.Video{
			ID:           v.ID,
			Title:        v.Title,
			ThumbnailURL: v.ThumbnailURL,
			VideoURL:     v.VideoURL,
			SubtitleURL:  v.SubtitleURL,
		}
	}

	return problem
}

// MapSubmissions converts domain submissions to the request body
func MapSubmissions(subs []domain.Submission) []SubmitProblemDTO {
	out := make([]SubmitProblemDTO, len(subs))
	for i, s := range subs {
		out[i] = SubmitProblemDTO{
			WorksheetProblemID: s.WorksheetProblemID,
			Unknown:            s.Unknown,
			UserAnswer:         s.UserAnswer,
		}
	}
	return out
}
