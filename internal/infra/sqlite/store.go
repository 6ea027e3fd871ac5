package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"qcm-app/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS histories (
    username TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    data TEXT NOT NULL,
    FOREIGN KEY (username) REFERENCES histories(username)
);

CREATE TABLE IF NOT EXISTS scores (
    username TEXT PRIMARY KEY,
    total_score REAL NOT NULL DEFAULT 0,
    quizzes_taken INTEGER NOT NULL DEFAULT 0
);
`

// Store keeps users, history and scores in one SQLite database. Rows are
// listed in insertion order (rowid), matching the JSON documents.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptStore, path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersist, op, err)
}

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password) VALUES (?, ?) ON CONFLICT(username) DO NOTHING",
		username, password)
	if err != nil {
		return persistErr("create user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("create user", err)
	}
	if n == 0 {
		return domain.ErrDuplicateUser
	}
	return nil
}

func (s *Store) Password(ctx context.Context, username string) (string, bool, error) {
	var password string
	err := s.db.QueryRowContext(ctx, "SELECT password FROM users WHERE username = ?", username).Scan(&password)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return password, true, nil
}

func (s *Store) EnsureHistory(ctx context.Context, user string) error {
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO histories (username) VALUES (?)", user); err != nil {
		return persistErr("ensure history", err)
	}
	return nil
}

func (s *Store) AppendResult(ctx context.Context, user string, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return persistErr("encode result", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("append result", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO histories (username) VALUES (?)", user); err != nil {
		return persistErr("append result", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO results (username, data) VALUES (?, ?)", user, string(data)); err != nil {
		return persistErr("append result", err)
	}
	if err := tx.Commit(); err != nil {
		return persistErr("append result", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, user string) ([]domain.Result, bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM histories WHERE username = ?", user).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT data FROM results WHERE username = ? ORDER BY id", user)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	results := []domain.Result{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, false, err
		}
		results = append(results, result)
	}
	return results, true, rows.Err()
}

func (s *Store) Histories(ctx context.Context) ([]domain.UserHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.username, r.data
		FROM histories h LEFT JOIN results r ON r.username = h.username
		ORDER BY h.rowid, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserHistory
	for rows.Next() {
		var (
			user string
			data sql.NullString
		)
		if err := rows.Scan(&user, &data); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].User != user {
			out = append(out, domain.UserHistory{User: user, Results: []domain.Result{}})
		}
		if !data.Valid {
			continue
		}
		var result domain.Result
		if err := json.Unmarshal([]byte(data.String), &result); err != nil {
			return nil, fmt.Errorf("%w: result of %s: %w", domain.ErrCorruptStore, user, err)
		}
		last := &out[len(out)-1]
		last.Results = append(last.Results, result)
	}
	return out, rows.Err()
}

func scanResult(rows *sql.Rows) (domain.Result, error) {
	var data string
	if err := rows.Scan(&data); err != nil {
		return domain.Result{}, err
	}
	var result domain.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return domain.Result{}, fmt.Errorf("%w: result: %w", domain.ErrCorruptStore, err)
	}
	return result, nil
}

func (s *Store) EnsureStats(ctx context.Context, user string) error {
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO scores (username) VALUES (?)", user); err != nil {
		return persistErr("ensure stats", err)
	}
	return nil
}

func (s *Store) AddScore(ctx context.Context, user string, score float64) (domain.UserStats, error) {
	stats := domain.UserStats{User: user}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scores (username, total_score, quizzes_taken) VALUES (?, ?, 1)
		ON CONFLICT(username) DO UPDATE SET
			total_score = total_score + excluded.total_score,
			quizzes_taken = quizzes_taken + 1
		RETURNING total_score, quizzes_taken`, user, score).Scan(&stats.TotalScore, &stats.QuizzesTaken)
	if err != nil {
		return stats, persistErr("add score", err)
	}
	return stats, nil
}

func (s *Store) AllStats(ctx context.Context) ([]domain.UserStats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username, total_score, quizzes_taken FROM scores ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserStats
	for rows.Next() {
		var st domain.UserStats
		if err := rows.Scan(&st.User, &st.TotalScore, &st.QuizzesTaken); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
