package app

import (
	"context"
	"sort"

	"qcm-app/internal/domain"
)

// DefaultLeaderboardSize caps the ranking when no size is configured.
const DefaultLeaderboardSize = 5

// Rank orders users by average score, highest first. Equal averages keep
// the order of stats. At most limit rows are returned (all when limit <= 0).
func Rank(stats []domain.UserStats, limit int) []domain.Standing {
	sorted := make([]domain.UserStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Average() > sorted[j].Average()
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	standings := make([]domain.Standing, 0, len(sorted))
	for i, s := range sorted {
		standings = append(standings, domain.Standing{
			Rank:    i + 1,
			User:    s.User,
			Average: s.Average(),
		})
	}
	return standings
}

// Reports serves the read-only views: history, all results and the leaderboard.
type Reports struct {
	history         HistoryRepository
	stats           StatsRepository
	leaderboardSize int
}

func NewReports(history HistoryRepository, stats StatsRepository, leaderboardSize int) *Reports {
	if leaderboardSize <= 0 {
		leaderboardSize = DefaultLeaderboardSize
	}
	return &Reports{history: history, stats: stats, leaderboardSize: leaderboardSize}
}

// Leaderboard ranks every known user.
func (r *Reports) Leaderboard(ctx context.Context) ([]domain.Standing, error) {
	stats, err := r.stats.AllStats(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(stats, r.leaderboardSize), nil
}

// History returns a user's results oldest first; ok is false when there is nothing to show.
func (r *Reports) History(ctx context.Context, user string) ([]domain.Result, bool, error) {
	results, ok, err := r.history.History(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return results, ok && len(results) > 0, nil
}

// AllResults returns every user's history, for the instructor view.
func (r *Reports) AllResults(ctx context.Context) ([]domain.UserHistory, error) {
	return r.history.Histories(ctx)
}
