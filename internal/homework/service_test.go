package homework

import (
	"context"
	"testing"
	"time"

	"github.com/mmcdole/flatsync/internal/domain"
	"github.com/mmcdole/flatsync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	homeworks []domain.Homework
	problems  map[string][]domain.ProblemItem
	err       error

	from, to  time.Time
	submitted map[string][]domain.Submission
	submitErr error
}

func (c *fakeClient) FetchHomeworkList(ctx context.Context, token, relationID string, from, to time.Time) ([]domain.Homework, error) {
	c.from, c.to = from, to
	if c.err != nil {
		return nil, c.err
	}
	return c.homeworks, nil
}

func (c *fakeClient) FetchProblemList(ctx context.Context, token, assignmentID string) ([]domain.ProblemItem, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.problems[assignmentID], nil
}

func (c *fakeClient) SubmitProblems(ctx context.Context, token, assignmentID string, subs []domain.Submission) error {
	if c.submitErr != nil {
		return c.submitErr
	}
	if c.submitted == nil {
		c.submitted = make(map[string][]domain.Submission)
	}
	c.submitted[assignmentID] = append(c.submitted[assignmentID], subs...)
	return nil
}

func newService(t *testing.T, client *fakeClient) (*Service, *store.SnapshotStore, *store.AnswerStore) {
	t.Helper()
	snapshots, err := store.NewSnapshotStore("")
	require.NoError(t, err)
	answers, err := store.NewAnswerStore("")
	require.NoError(t, err)

	now := time.Date(2025, 2, 25, 12, 0, 0, 0, time.UTC)
	svc := NewService(Options{
		Client:     client,
		Snapshots:  snapshots,
		Answers:    answers,
		RelationID: "rel",
		Now:        func() time.Time { return now },
	})
	return svc, snapshots, answers
}

func TestService_Homeworks_FreshThenCached(t *testing.T) {
	client := &fakeClient{homeworks: []domain.Homework{{ID: 1, StudentBookID: 10, Title: "A"}}}
	svc, snapshots, _ := newService(t, client)

	list, fromCache, err := svc.Homeworks(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, client.homeworks, list)
	assert.Equal(t, "2025-01-28", client.from.Format("2006-01-02"))
	assert.Equal(t, "2025-02-25", client.to.Format("2006-01-02"))

	cached, ok := snapshots.LoadHomeworks()
	require.True(t, ok)
	assert.Equal(t, client.homeworks, cached)

	client.err = domain.ErrServerOffline
	list, fromCache, err = svc.Homeworks(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, cached, list)
}

func TestService_Homeworks_NoCache(t *testing.T) {
	svc, _, _ := newService(t, &fakeClient{err: domain.ErrServerOffline})

	_, _, err := svc.Homeworks(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestService_Problems_FallsBackToCache(t *testing.T) {
	items := []domain.ProblemItem{{WorksheetProblemID: 5}, {WorksheetProblemID: 3}}
	client := &fakeClient{err: domain.ErrAuthFailed}
	svc, snapshots, _ := newService(t, client)
	require.NoError(t, snapshots.SaveProblems("10", items))

	got, fromCache, err := svc.Problems(context.Background(), "tok", "10")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, items, got)

	_, _, err = svc.Problems(context.Background(), "tok", "11")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func decimal(worksheetProblemID int) domain.ProblemItem {
	return domain.ProblemItem{
		WorksheetProblemID: worksheetProblemID,
		Problem:            &domain.Problem{KeypadTypes: []string{KeypadDecimal}},
	}
}

func TestService_SubmitPending(t *testing.T) {
	client := &fakeClient{problems: map[string][]domain.ProblemItem{
		"10": {decimal(100), decimal(101), decimal(102)},
	}}
	svc, _, answers := newService(t, client)

	require.NoError(t, svc.RecordAnswer("10", 0, "-3/4", false))
	require.NoError(t, svc.RecordAnswer("10", 1, "", true))
	require.NoError(t, svc.RecordAnswer("10", 2, "12", false))
	require.NoError(t, svc.RecordAnswer("10", 7, "1", false))

	n, err := svc.SubmitPending(context.Background(), "tok", "10")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []domain.Submission{
		{WorksheetProblemID: 100, UserAnswer: `-\\frac{3}{4}`},
		{WorksheetProblemID: 102, UserAnswer: "12"},
	}, client.submitted["10"])

	saved, ok := answers.Answers("10")
	require.True(t, ok)
	submitted := map[int]bool{}
	for _, a := range saved {
		submitted[a.ProblemIndex] = a.Submitted
	}
	assert.Equal(t, map[int]bool{0: true, 1: false, 2: true, 7: false}, submitted)

	_, err = svc.SubmitPending(context.Background(), "tok", "10")
	assert.ErrorIs(t, err, ErrNoPendingAnswers)
}

func TestService_SubmitPending_FailureKeepsAnswersPending(t *testing.T) {
	client := &fakeClient{
		problems:  map[string][]domain.ProblemItem{"10": {decimal(100)}},
		submitErr: domain.ErrServerOffline,
	}
	svc, _, _ := newService(t, client)
	require.NoError(t, svc.RecordAnswer("10", 0, "5", false))

	_, err := svc.SubmitPending(context.Background(), "tok", "10")
	assert.ErrorIs(t, err, domain.ErrServerOffline)

	saved := svc.Answers("10")
	require.Len(t, saved, 1)
	assert.False(t, saved[0].Submitted)
}

func TestService_SubmitPending_OnlyDecimalKeypad(t *testing.T) {
	client := &fakeClient{problems: map[string][]domain.ProblemItem{
		"10": {
			decimal(100),
			{WorksheetProblemID: 101, Problem: &domain.Problem{KeypadTypes: []string{"SINGLE_CHOICE"}}},
			{WorksheetProblemID: 102, Problem: &domain.Problem{KeypadTypes: []string{KeypadDecimal, "FRACTION"}}},
			{WorksheetProblemID: 103},
		},
	}}
	svc, _, _ := newService(t, client)
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordAnswer("10", i, "1/2", false))
	}

	n, err := svc.SubmitPending(context.Background(), "tok", "10")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []domain.Submission{{WorksheetProblemID: 100, UserAnswer: `\\frac{1}{2}`}}, client.submitted["10"])

	pending := map[int]bool{}
	for _, a := range svc.Answers("10") {
		pending[a.ProblemIndex] = !a.Submitted
	}
	assert.Equal(t, map[int]bool{0: false, 1: true, 2: true, 3: true}, pending)

	_, err = svc.SubmitPending(context.Background(), "tok", "10")
	assert.ErrorIs(t, err, ErrNoPendingAnswers)
}

func TestService_RecordAnswer_Validation(t *testing.T) {
	svc, _, _ := newService(t, &fakeClient{})

	assert.ErrorIs(t, svc.RecordAnswer("", 0, "1", false), domain.ErrMissingAssignmentID)
	assert.Error(t, svc.RecordAnswer("10", -1, "1", false))
}

func TestLatexFraction(t *testing.T) {
	tests := map[string]string{
		"3/4":        `\\frac{3}{4}`,
		"-3/4":       `-\\frac{3}{4}`,
		"x=1/2, y=5": `x=\\frac{1}{2}, y=5`,
		"42":         "42",
		"":           "",
		"1/2+-7/8":   `\\frac{1}{2}+-\\frac{7}{8}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, LatexFraction(in), in)
	}
}
