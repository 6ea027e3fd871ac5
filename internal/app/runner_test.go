package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"qcm-app/internal/domain"
)

func fourQuestionCatalog() domain.Catalog {
	return quizOf("Math", "Basics",
		mustQuestion("1 + 1?", []string{"1", "2"}, 2),
		mustQuestion("Evens?", []string{"2", "3", "4"}, 1, 3),
		mustQuestion("3 * 3?", []string{"6", "9"}, 2),
		mustQuestion("10 / 2?", []string{"5", "2"}, 1),
	)
}

func newTestRunner(catalog *fakeCatalog, collector AnswerCollector, store *fakeStore, clk *clock, opts ...RunnerOption) (*Runner, *nopPresenter) {
	presenter := &nopPresenter{}
	recorder := NewRecorderWithClock(store, store, nil, clk.Now)
	opts = append([]RunnerOption{WithClock(clk.Now)}, opts...)
	return NewRunner(catalog, collector, presenter, recorder, opts...), presenter
}

func TestTakeScoresAndRecords(t *testing.T) {
	clk := newClock()
	store := newFakeStore()
	collector := &scriptedCollector{
		answers: []domain.Indices{{2}, {1, 3}, {1}, {1}},
		clock:   clk,
		step:    3 * time.Second,
	}
	runner, presenter := newTestRunner(&fakeCatalog{catalog: fourQuestionCatalog()}, collector, store, clk)

	attempt, result, err := runner.Take(context.Background(), "alice", "Math", "Basics")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if attempt.State != domain.AttemptCompleted || attempt.CorrectCount != 3 {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if result.Score != 75.0 || result.CorrectAnswers != 3 || result.TotalQuestions != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.TimeTaken != 12 {
		t.Fatalf("expected 12s elapsed, got %v", result.TimeTaken)
	}
	if len(presenter.graded) != 4 || presenter.graded[2] {
		t.Fatalf("unexpected grading feedback %v", presenter.graded)
	}

	history, _, _ := store.History(context.Background(), "alice")
	if len(history) != 1 || history[0].Score != 75.0 || len(history[0].Answers) != 4 {
		t.Fatalf("history not recorded: %+v", history)
	}
	stats, _ := store.AllStats(context.Background())
	if len(stats) != 1 || stats[0].TotalScore != 75 || stats[0].QuizzesTaken != 1 {
		t.Fatalf("stats not recorded: %+v", stats)
	}
}

func TestTakeStopsAtDeadline(t *testing.T) {
	clk := newClock()
	store := newFakeStore()
	questions := make([]domain.Question, 0, 5)
	for i := 0; i < 5; i++ {
		questions = append(questions, mustQuestion("q", []string{"a", "b"}, 1))
	}
	catalog := &fakeCatalog{catalog: quizOf("Timed", "Five", questions...)}
	collector := &scriptedCollector{
		answers: []domain.Indices{{1}, {1}, {1}, {1}, {1}},
		clock:   clk,
		step:    5 * time.Second,
	}
	runner, presenter := newTestRunner(catalog, collector, store, clk, WithTimeLimit(10*time.Second))

	attempt, result, err := runner.Take(context.Background(), "bob", "Timed", "Five")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if attempt.State != domain.AttemptTimedOut || !presenter.timeUp {
		t.Fatalf("expected timed out attempt, got %s", attempt.State)
	}
	if collector.asked != 2 || presenter.questions != 2 {
		t.Fatalf("expected 2 questions asked, got %d", collector.asked)
	}
	if result.Score != 40.0 || result.CorrectAnswers != 2 || result.TotalQuestions != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTakeUnknownQuizMutatesNothing(t *testing.T) {
	clk := newClock()
	store := newFakeStore()
	collector := &scriptedCollector{}
	runner, presenter := newTestRunner(&fakeCatalog{catalog: fourQuestionCatalog()}, collector, store, clk)

	_, _, err := runner.Take(context.Background(), "alice", "Math", "Nope")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	_, _, err = runner.Take(context.Background(), "alice", "Art", "Basics")
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if collector.asked != 0 || presenter.questions != 0 {
		t.Fatalf("no question should be asked")
	}
	if histories, _ := store.Histories(context.Background()); len(histories) != 0 {
		t.Fatalf("no history should be created, got %+v", histories)
	}
}

func TestTakeReportsPersistFailureWithResult(t *testing.T) {
	clk := newClock()
	store := newFakeStore()
	store.failWrite = domain.ErrPersist
	collector := &scriptedCollector{answers: []domain.Indices{{2}, {1, 3}, {2}, {1}}}
	runner, _ := newTestRunner(&fakeCatalog{catalog: fourQuestionCatalog()}, collector, store, clk)

	_, result, err := runner.Take(context.Background(), "carol", "Math", "Basics")
	if !errors.Is(err, domain.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if result.Score != 100 {
		t.Fatalf("result should still be filled in, got %+v", result)
	}
}

func TestTakeAbortsOnCollectError(t *testing.T) {
	clk := newClock()
	store := newFakeStore()
	collector := &scriptedCollector{answers: []domain.Indices{{2}}}
	runner, _ := newTestRunner(&fakeCatalog{catalog: fourQuestionCatalog()}, collector, store, clk)

	_, _, err := runner.Take(context.Background(), "dave", "Math", "Basics")
	if !errors.Is(err, errScriptExhausted) {
		t.Fatalf("expected collect error, got %v", err)
	}
	if stats, _ := store.AllStats(context.Background()); len(stats) != 0 {
		t.Fatalf("aborted attempt should not be recorded: %+v", stats)
	}
}

type blockingGuard struct{ held map[string]bool }

func (g *blockingGuard) Acquire(_ context.Context, user string) (func(), error) {
	if g.held[user] {
		return nil, domain.ErrAttemptInProgress
	}
	g.held[user] = true
	return func() { delete(g.held, user) }, nil
}

func TestTakeHonoursGuard(t *testing.T) {
	clk := newClock()
	guard := &blockingGuard{held: map[string]bool{"erin": true}}
	runner, _ := newTestRunner(&fakeCatalog{catalog: fourQuestionCatalog()}, &scriptedCollector{}, newFakeStore(), clk, WithGuard(guard))

	if _, _, err := runner.Take(context.Background(), "erin", "Math", "Basics"); !errors.Is(err, domain.ErrAttemptInProgress) {
		t.Fatalf("expected ErrAttemptInProgress, got %v", err)
	}

	guard.held = map[string]bool{}
	collector := &scriptedCollector{answers: []domain.Indices{{2}, {1, 3}, {2}, {1}}}
	runner, _ = newTestRunner(&fakeCatalog{catalog: fourQuestionCatalog()}, collector, newFakeStore(), clk, WithGuard(guard))
	if _, _, err := runner.Take(context.Background(), "erin", "Math", "Basics"); err != nil {
		t.Fatalf("take: %v", err)
	}
	if guard.held["erin"] {
		t.Fatalf("guard should be released after the attempt")
	}
}
