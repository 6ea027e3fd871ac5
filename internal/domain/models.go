package domain

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the on-disk date format of a Result.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a second-precision local time stored as TimestampLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds so it survives a JSON round-trip.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseInLocation(TimestampLayout, raw, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// AttemptState is the lifecycle of an Attempt.
type AttemptState int

const (
	AttemptNotStarted AttemptState = iota
	AttemptRunning
	AttemptTimedOut
	AttemptCompleted
)

func (s AttemptState) String() string {
	switch s {
	case AttemptNotStarted:
		return "not_started"
	case AttemptRunning:
		return "running"
	case AttemptTimedOut:
		return "timed_out"
	case AttemptCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Attempt is one user's in-progress run through a quiz. It is never persisted.
type Attempt struct {
	ID             string
	User           string
	Category       string
	Title          string
	StartTime      time.Time
	Deadline       time.Time // zero when untimed
	Answers        []Indices
	CorrectCount   int
	TotalQuestions int
	State          AttemptState
}

// Timed reports whether a deadline applies.
func (a *Attempt) Timed() bool {
	return !a.Deadline.IsZero()
}

// Result is the persisted outcome of a finished attempt.
type Result struct {
	Date           Timestamp `json:"date"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Score          float64   `json:"score"`
	TimeTaken      float64   `json:"time_taken"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Answers        []Indices `json:"answers,omitempty"`
}

// ScorePercent is 100 * correct / total; zero for an empty quiz.
func ScorePercent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

// UserStats is the cumulative score aggregate of one user.
type UserStats struct {
	User         string  `json:"-"`
	TotalScore   float64 `json:"total_score"`
	QuizzesTaken int     `json:"quizzes_taken"`
}

// Accumulate folds one finished attempt into the aggregate.
func (s *UserStats) Accumulate(score float64) {
	s.TotalScore += score
	s.QuizzesTaken++
}

// Average divides by max(QuizzesTaken, 1).
func (s UserStats) Average() float64 {
	taken := s.QuizzesTaken
	if taken < 1 {
		taken = 1
	}
	return s.TotalScore / float64(taken)
}

// Standing is one leaderboard row.
type Standing struct {
	Rank    int     `json:"rank"`
	User    string  `json:"user"`
	Average float64 `json:"average"`
}

// UserHistory pairs a user with their results in creation order.
type UserHistory struct {
	User    string
	Results []Result
}

// AnswerKey is a question with the text of its correct option(s).
type AnswerKey struct {
	Question Question
	Correct  []string
}
