package search

import (
	"testing"

	"github.com/mmcdole/flatsync/internal/domain"
	"github.com/mmcdole/flatsync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterHomeworks(t *testing.T) {
	list := []domain.Homework{
		{ID: 1, Title: "Quadratic Equations"},
		{ID: 2, Title: "Linear Functions"},
		{ID: 3, Title: "Quadratic Functions"},
	}

	t.Run("empty query keeps order", func(t *testing.T) {
		got := FilterHomeworks(list, "  ")
		require.Len(t, got, 3)
		for i, m := range got {
			assert.Equal(t, list[i].ID, m.Homework.ID)
		}
	})

	t.Run("case insensitive subsequence", func(t *testing.T) {
		got := FilterHomeworks(list, "QUAD")
		require.Len(t, got, 2)
		ids := []int64{got[0].Homework.ID, got[1].Homework.ID}
		assert.ElementsMatch(t, []int64{1, 3}, ids)
		assert.Equal(t, []int{0, 1, 2, 3}, got[0].MatchedIndexes)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, FilterHomeworks(list, "zzz"))
	})
}

func TestFindProblems(t *testing.T) {
	snapshots, err := store.NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	withConcept := func(id int64, concept string) domain.ProblemItem {
		return domain.ProblemItem{WorksheetProblemID: id, Problem: &domain.Problem{ID: id, ConceptName: concept}}
	}
	require.NoError(t, snapshots.SaveProblems("20", []domain.ProblemItem{
		withConcept(1, "Factoring polynomials"),
		{WorksheetProblemID: 2},
		withConcept(3, "Factor"),
	}))
	require.NoError(t, snapshots.SaveProblems("10", []domain.ProblemItem{
		withConcept(4, "Linear equations"),
		withConcept(5, "factor theorem"),
	}))

	hits := FindProblems(snapshots, "factor")
	require.Len(t, hits, 3)

	assert.Equal(t, "Factor", hits[0].Concept)
	assert.Equal(t, "20", hits[0].AssignmentID)
	assert.Equal(t, 2, hits[0].Index)
	assert.Equal(t, "factor theorem", hits[1].Concept)

	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}

	assert.Empty(t, FindProblems(snapshots, ""))
	assert.Empty(t, FindProblems(snapshots, "geometry"))
}
