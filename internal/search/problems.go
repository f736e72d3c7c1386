package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/flatsync/internal/domain"
)

// ProblemSource is the cached problem data search reads from.
// store.SnapshotStore satisfies it.
type ProblemSource interface {
	AssignmentIDs() []string
	LoadProblems(assignmentID string) ([]domain.ProblemItem, bool)
}

// ProblemHit is one cached problem whose concept matches a query
type ProblemHit struct {
	AssignmentID string
	Index        int // Page index within the assignment
	Item         domain.ProblemItem
	Concept      string
	Distance     int // Lower is better
}

// FindProblems searches concept names across every cached problem list.
// Works fully offline. Results are ordered by match distance, then by
// assignment and page.
func FindProblems(src ProblemSource, query string) []ProblemHit {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var hits []ProblemHit
	for _, id := range src.AssignmentIDs() {
		items, ok := src.LoadProblems(id)
		if !ok {
			continue
		}

		concepts := make([]string, 0, len(items))
		positions := make([]int, 0, len(items))
		for i, item := range items {
			if item.Problem == nil || item.Problem.ConceptName == "" {
				continue
			}
			concepts = append(concepts, item.Problem.ConceptName)
			positions = append(positions, i)
		}

		for _, rank := range fuzzy.RankFindFold(query, concepts) {
			i := positions[rank.OriginalIndex]
			hits = append(hits, ProblemHit{
				AssignmentID: id,
				Index:        i,
				Item:         items[i],
				Concept:      rank.Target,
				Distance:     rank.Distance,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.AssignmentID != b.AssignmentID {
			return a.AssignmentID < b.AssignmentID
		}
		return a.Index < b.Index
	})
	return hits
}
