package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qcm-app/internal/domain"
)

// CatalogRepository resolves quizzes (from cache/backing store).
type CatalogRepository interface {
	GetQuiz(ctx context.Context, category, title string) (domain.Quiz, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListTitles(ctx context.Context, category string) ([]string, error)
}

// AnswerCollector produces one validated response for a question.
type AnswerCollector interface {
	Collect(ctx context.Context, q domain.Question) (domain.Indices, error)
}

// Presenter is the display side of an attempt. Nothing it does feeds back
// into scoring.
type Presenter interface {
	Start(quiz domain.Quiz, timeLimit time.Duration)
	Question(q domain.Question, index, total int, remaining time.Duration)
	Graded(q domain.Question, correct bool)
	TimeUp()
}

// AttemptGuard keeps a user to one running attempt at a time.
type AttemptGuard interface {
	Acquire(ctx context.Context, user string) (release func(), err error)
}

// Runner drives the question loop of an attempt.
type Runner struct {
	catalog   CatalogRepository
	collector AnswerCollector
	presenter Presenter
	recorder  *Recorder
	guard     AttemptGuard
	timeLimit time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithTimeLimit enables the per-attempt deadline; zero means untimed.
func WithTimeLimit(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeLimit = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithGuard installs an AttemptGuard.
func WithGuard(g AttemptGuard) RunnerOption {
	return func(r *Runner) { r.guard = g }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

func NewRunner(catalog CatalogRepository, collector AnswerCollector, presenter Presenter, recorder *Recorder, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog:   catalog,
		collector: collector,
		presenter: presenter,
		recorder:  recorder,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Take runs one attempt of (category, title) for user and records it.
//
// An unknown quiz fails before any state is created. The deadline, when set,
// is only checked between questions, so one slow answer can overrun it;
// questions left when it passes are not asked and not scored. When recording
// fails the returned Result is still filled in and the error wraps
// domain.ErrPersist.
func (r *Runner) Take(ctx context.Context, user, category, title string) (domain.Attempt, domain.Result, error) {
	quiz, err := r.catalog.GetQuiz(ctx, category, title)
	if err != nil {
		return domain.Attempt{}, domain.Result{}, err
	}

	if r.guard != nil {
		release, err := r.guard.Acquire(ctx, user)
		if err != nil {
			return domain.Attempt{}, domain.Result{}, err
		}
		defer release()
	}

	attempt := r.start(user, quiz)
	r.log.Info("attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("user", user),
		zap.String("category", category),
		zap.String("title", title),
		zap.Bool("timed", attempt.Timed()),
	)
	r.presenter.Start(quiz, r.timeLimit)

	for i, q := range quiz.Questions {
		now := r.now()
		var remaining time.Duration
		if attempt.Timed() {
			if !now.Before(attempt.Deadline) {
				attempt.State = domain.AttemptTimedOut
				r.presenter.TimeUp()
				break
			}
			remaining = attempt.Deadline.Sub(now)
		}

		r.presenter.Question(q, i+1, attempt.TotalQuestions, remaining)
		response, err := r.collector.Collect(ctx, q)
		if err != nil {
			r.log.Warn("attempt aborted",
				zap.String("attempt_id", attempt.ID),
				zap.Int("question", i+1),
				zap.Error(err),
			)
			return attempt, domain.Result{}, fmt.Errorf("collect answer %d: %w", i+1, err)
		}

		correct := Grade(q, response)
		if correct {
			attempt.CorrectCount++
		}
		attempt.Answers = append(attempt.Answers, response)
		r.presenter.Graded(q, correct)
	}
	if attempt.State == domain.AttemptRunning {
		attempt.State = domain.AttemptCompleted
	}

	result, err := r.recorder.Record(ctx, &attempt)
	r.log.Info("attempt finished",
		zap.String("attempt_id", attempt.ID),
		zap.String("state", attempt.State.String()),
		zap.Int("correct", attempt.CorrectCount),
		zap.Int("total", attempt.TotalQuestions),
		zap.Float64("score", result.Score),
	)
	return attempt, result, err
}

func (r *Runner) start(user string, quiz domain.Quiz) domain.Attempt {
	start := r.now()
	attempt := domain.Attempt{
		ID:             uuid.NewString(),
		User:           user,
		Category:       quiz.Category,
		Title:          quiz.Title,
		StartTime:      start,
		Answers:        make([]domain.Indices, 0, len(quiz.Questions)),
		TotalQuestions: len(quiz.Questions),
		State:          domain.AttemptRunning,
	}
	if r.timeLimit > 0 {
		attempt.Deadline = start.Add(r.timeLimit)
	}
	return attempt
}
