package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"qcm-app/internal/domain"
)

// HistoryRepository stores per-user result lists. Implementations create an
// empty list for unknown users instead of failing.
type HistoryRepository interface {
	EnsureHistory(ctx context.Context, user string) error
	AppendResult(ctx context.Context, user string, result domain.Result) error
	History(ctx context.Context, user string) ([]domain.Result, bool, error)
	Histories(ctx context.Context) ([]domain.UserHistory, error)
}

// StatsRepository stores the cumulative UserStats mapping in insertion order.
type StatsRepository interface {
	EnsureStats(ctx context.Context, user string) error
	AddScore(ctx context.Context, user string, score float64) (domain.UserStats, error)
	AllStats(ctx context.Context) ([]domain.UserStats, error)
}

// Recorder turns a finished attempt into a Result and persists it.
type Recorder struct {
	history HistoryRepository
	stats   StatsRepository
	now     func() time.Time
	log     *zap.Logger
}

func NewRecorder(history HistoryRepository, stats StatsRepository, log *zap.Logger) *Recorder {
	return NewRecorderWithClock(history, stats, log, time.Now)
}

// NewRecorderWithClock is used by tests for deterministic timing.
func NewRecorderWithClock(history HistoryRepository, stats StatsRepository, log *zap.Logger, now func() time.Time) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{history: history, stats: stats, now: now, log: log}
}

// Record appends the result to the user's history and folds the score into
// their stats. Both stores are written even if the first write fails; the
// returned Result is valid whenever the error wraps domain.ErrPersist.
func (r *Recorder) Record(ctx context.Context, attempt *domain.Attempt) (domain.Result, error) {
	now := r.now()
	elapsed := now.Sub(attempt.StartTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	answers := make([]domain.Indices, len(attempt.Answers))
	copy(answers, attempt.Answers)

	result := domain.Result{
		Date:           domain.NewTimestamp(now),
		Category:       attempt.Category,
		Title:          attempt.Title,
		Score:          domain.ScorePercent(attempt.CorrectCount, attempt.TotalQuestions),
		TimeTaken:      elapsed,
		CorrectAnswers: attempt.CorrectCount,
		TotalQuestions: attempt.TotalQuestions,
		Answers:        answers,
	}

	var errs []error
	if err := r.history.AppendResult(ctx, attempt.User, result); err != nil {
		errs = append(errs, fmt.Errorf("append history: %w", err))
	}
	if _, err := r.stats.AddScore(ctx, attempt.User, result.Score); err != nil {
		errs = append(errs, fmt.Errorf("update stats: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		r.log.Error("record result",
			zap.String("attempt_id", attempt.ID),
			zap.String("user", attempt.User),
			zap.Error(err),
		)
		return result, err
	}
	return result, nil
}
