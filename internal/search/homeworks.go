package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/flatsync/internal/domain"
)

// HomeworkMatch is one homework matching a filter query
type HomeworkMatch struct {
	Homework       domain.Homework
	MatchedIndexes []int // Rune positions in the title that matched (for highlighting)
	Score          int   // Higher is better
}

// homeworkIndex implements fuzzy.Source over lowercased titles
type homeworkIndex struct {
	items       []domain.Homework
	lowerTitles []string
}

func (idx *homeworkIndex) String(i int) string { return idx.lowerTitles[i] }

func (idx *homeworkIndex) Len() int { return len(idx.items) }

// FilterHomeworks narrows a homework list to the titles fuzzily matching query,
// best match first. An empty query keeps every homework in list order.
func FilterHomeworks(list []domain.Homework, query string) []HomeworkMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]HomeworkMatch, len(list))
		for i, hw := range list {
			out[i] = HomeworkMatch{Homework: hw}
		}
		return out
	}

	idx := &homeworkIndex{items: list, lowerTitles: make([]string, len(list))}
	for i, hw := range list {
		idx.lowerTitles[i] = strings.ToLower(hw.Title)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	out := make([]HomeworkMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, HomeworkMatch{
			Homework:       list[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}
	return out
}
