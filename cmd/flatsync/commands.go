package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/mmcdole/flatsync/internal/domain"
	"github.com/mmcdole/flatsync/internal/homework"
	"github.com/mmcdole/flatsync/internal/offline"
	"github.com/mmcdole/flatsync/internal/search"
	"github.com/mmcdole/flatsync/internal/tui"
	"github.com/mmcdole/flatsync/internal/tui/styles"
	"github.com/mmcdole/flatsync/internal/watch"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DimStyle).
		Headers(headers...)
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// === sync / watch ===

func (a *app) runSync(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	plain := fs.Bool("plain", false, "print status lines instead of the progress view")
	fs.Parse(args)

	if err := a.requireConfigured(); err != nil {
		return err
	}

	report, err := a.syncOnce(ctx, !*plain && interactive())
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

// syncOnce refreshes the homework list, then runs one offline sync to the end
func (a *app) syncOnce(ctx context.Context, useTUI bool) (domain.SyncReport, error) {
	list, fromCache, err := a.homework.Homeworks(ctx, a.cfg.API.Token)
	if err != nil {
		return domain.SyncReport{}, err
	}
	if fromCache {
		fmt.Println(styles.ErrorStyle.Render("server unreachable, syncing from the cached homework list"))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	obs := offline.NewChannelObserver(16)
	unsubscribe := a.manager.Subscribe(obs)
	defer unsubscribe()

	if !a.manager.SyncAll(runCtx, a.cfg.API.Token, list) {
		return domain.SyncReport{}, errors.New("a sync is already running")
	}

	if useTUI {
		p := tea.NewProgram(tui.NewSyncModel(obs.C()), tea.WithContext(ctx))
		final, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			a.logger.Error("TUI error", "error", err)
		}
		if m, ok := final.(tui.SyncModel); ok && m.Aborted() {
			cancel()
		}
		a.manager.Wait()
	} else {
		done := make(chan struct{})
		go func() {
			a.manager.Wait()
			close(done)
		}()
		printStatuses(obs.C(), done)
	}

	status := a.manager.Status()
	report, _ := a.answers.LastReport()
	if status.Phase == domain.PhaseError {
		return report, fmt.Errorf("sync failed: %s", status.Message)
	}
	return report, nil
}

// printStatuses prints each new status until done is closed, then flushes
// whatever is still buffered.
func printStatuses(ch <-chan domain.SyncStatus, done <-chan struct{}) {
	var last domain.SyncStatus
	show := func(s domain.SyncStatus) {
		if s.Phase == domain.PhaseIdle || s == last {
			return
		}
		last = s
		fmt.Println(s.String())
	}

	for {
		select {
		case s := <-ch:
			show(s)
		case <-done:
			for {
				select {
				case s := <-ch:
					show(s)
				default:
					return
				}
			}
		}
	}
}

func (a *app) runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	schedule := fs.String("schedule", a.cfg.Sync.Schedule, "cron schedule (with seconds)")
	now := fs.Bool("now", true, "run once immediately")
	fs.Parse(args)

	if err := a.requireConfigured(); err != nil {
		return err
	}

	w, err := watch.New(*schedule, func(ctx context.Context) {
		report, err := a.syncOnce(ctx, false)
		if err != nil {
			a.logger.Error("scheduled sync failed", "error", err)
			fmt.Println(styles.ErrorStyle.Render(err.Error()))
			return
		}
		printReport(report)
	}, a.logger)
	if err != nil {
		return err
	}

	fmt.Printf("watching (%s), next run %s\n", *schedule, w.Next(time.Now()).Format(time.DateTime))
	return w.Run(ctx, *now)
}

// === homework browsing ===

func (a *app) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("q", "", "fuzzy filter on titles")
	fs.Parse(args)

	list, fromCache, err := a.homework.Homeworks(ctx, a.cfg.API.Token)
	if err != nil {
		return err
	}

	t := newTable("ASSIGNMENT", "STATUS", "SOLVED", "OFFLINE", "TITLE")
	for _, m := range search.FilterHomeworks(list, *query) {
		hw := m.Homework
		id, ok := hw.AssignmentID()
		avail := "-"
		if ok {
			if _, cached := a.snapshots.LoadProblems(id); cached {
				avail = styles.CompletedChar
			}
		} else {
			id = "-"
		}
		t.Row(id, hw.Status.Label(), hw.Progress(), avail, hw.Title)
	}

	fmt.Println(t.String())
	if fromCache {
		fmt.Println(styles.DimStyle.Render("(server unreachable, showing cached list)"))
	}
	return nil
}

func (a *app) runProblems(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("problems", flag.ExitOnError)
	assignmentID := fs.String("a", "", "assignment id")
	fs.Parse(args)

	if *assignmentID == "" {
		return domain.ErrMissingAssignmentID
	}

	items, fromCache, err := a.homework.Problems(ctx, a.cfg.API.Token, *assignmentID)
	if err != nil {
		return err
	}

	answers := make(map[int]domain.SavedAnswer)
	for _, ans := range a.homework.Answers(*assignmentID) {
		answers[ans.ProblemIndex] = ans
	}

	t := newTable("#", "PROBLEM", "RESULT", "CONCEPT", "IMAGES", "MY ANSWER")
	for i, item := range items {
		urls := item.ImageURLs()
		cached := 0
		for _, u := range urls {
			if _, ok := a.images.LocalPath(u); ok {
				cached++
			}
		}

		concept := ""
		if item.Problem != nil {
			concept = item.Problem.ConceptName
		}

		mine := ""
		if ans, ok := answers[i]; ok {
			mine = ans.Answer
			if ans.Unknown {
				mine = "?"
			}
			if ans.Submitted {
				mine += " " + styles.CompletedChar
			}
		}

		t.Row(strconv.Itoa(i), strconv.FormatInt(item.WorksheetProblemID, 10), string(item.Result),
			concept, fmt.Sprintf("%d/%d", cached, len(urls)), mine)
	}

	fmt.Println(t.String())
	if fromCache {
		fmt.Println(styles.DimStyle.Render("(server unreachable, showing cached problems)"))
	}
	return nil
}

func (a *app) runFind(args []string) error {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	query := fs.String("q", "", "concept to search for")
	fs.Parse(args)

	hits := search.FindProblems(a.snapshots, *query)
	if len(hits) == 0 {
		fmt.Println("no cached problems match")
		return nil
	}

	t := newTable("ASSIGNMENT", "#", "CONCEPT", "RESULT")
	for _, h := range hits {
		t.Row(h.AssignmentID, strconv.Itoa(h.Index), h.Concept, string(h.Item.Result))
	}
	fmt.Println(t.String())
	return nil
}

// === answers ===

func (a *app) runAnswer(args []string) error {
	fs := flag.NewFlagSet("answer", flag.ExitOnError)
	assignmentID := fs.String("a", "", "assignment id")
	index := fs.Int("i", -1, "problem index (page order, from 0)")
	value := fs.String("v", "", "answer")
	unknown := fs.Bool("unknown", false, `mark as "I don't know"`)
	fs.Parse(args)

	if err := a.homework.RecordAnswer(*assignmentID, *index, *value, *unknown); err != nil {
		return err
	}
	fmt.Printf("saved answer for problem %d of %s\n", *index, *assignmentID)
	return nil
}

func (a *app) runSubmit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	assignmentID := fs.String("a", "", "assignment id")
	fs.Parse(args)

	n, err := a.homework.SubmitPending(ctx, a.cfg.API.Token, *assignmentID)
	if errors.Is(err, homework.ErrNoPendingAnswers) {
		fmt.Println("nothing to submit")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("submitted %d answer(s)\n", n)
	return nil
}

// === status ===

func (a *app) runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Parse(args)

	fmt.Printf("cache: %s (%d assignments offline)\n", a.snapshots.Dir(), len(a.snapshots.AssignmentIDs()))

	report, ok := a.answers.LastReport()
	if !ok {
		fmt.Println("no sync has run yet")
		return nil
	}
	printReport(report)
	return nil
}

func printReport(r domain.SyncReport) {
	if r.RunID == "" {
		return
	}

	result := styles.SuccessStyle.Render(styles.CompletedChar + " " + r.Phase.String())
	if r.Phase == domain.PhaseError {
		result = styles.ErrorStyle.Render(styles.ErrorChar + " " + r.Message)
	}

	t := newTable("LAST SYNC", "")
	t.Row("result", result)
	t.Row("finished", r.FinishedAt.Format(time.DateTime))
	t.Row("duration", r.Duration().Round(time.Millisecond).String())
	t.Row("assignments", fmt.Sprintf("%d (%d failed)", r.Assignments, len(r.FailedAssignments)))
	t.Row("images", fmt.Sprintf("%d missing, %d cached, %d failed", r.MissingImages, r.Downloaded, r.FailedImages))
	fmt.Println(t.String())
}
