package file

import (
	"context"
	"encoding/json"
	"sync"

	"qcm-app/internal/domain"
	"qcm-app/internal/infra/jsondoc"
)

const (
	UsersFile   = "users.json"
	HistoryFile = "history.json"
	ScoresFile  = "scores.json"
)

// Store keeps users, history and scores in memory and rewrites the matching
// file after every change. A failed write leaves the in-memory change in place.
type Store struct {
	files *Files

	mu      sync.RWMutex
	users   *jsondoc.Users
	history *jsondoc.History
	scores  *jsondoc.Scores
}

// Open loads the three documents from files.
func Open(files *Files) (*Store, error) {
	s := &Store{files: files}

	s.users = jsondoc.NewUsers()
	ok, err := files.Load(UsersFile, func(b []byte) error { return json.Unmarshal(b, s.users) })
	if err != nil {
		return nil, err
	}
	if !ok {
		s.users = jsondoc.NewUsers()
	}

	s.history = jsondoc.NewHistory()
	ok, err = files.Load(HistoryFile, func(b []byte) error { return json.Unmarshal(b, s.history) })
	if err != nil {
		return nil, err
	}
	if !ok {
		s.history = jsondoc.NewHistory()
	}

	s.scores = jsondoc.NewScores()
	ok, err = files.Load(ScoresFile, func(b []byte) error { return json.Unmarshal(b, s.scores) })
	if err != nil {
		return nil, err
	}
	if !ok {
		s.scores = jsondoc.NewScores()
	}
	return s, nil
}

func (s *Store) save(name string, doc any) error {
	data, err := jsondoc.Marshal(doc)
	if err != nil {
		return err
	}
	return s.files.Save(name, data)
}

func (s *Store) CreateUser(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users.Get(username); ok {
		return domain.ErrDuplicateUser
	}
	s.users.Set(username, password)
	return s.save(UsersFile, s.users)
}

func (s *Store) Password(_ context.Context, username string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	password, ok := s.users.Get(username)
	return password, ok, nil
}

func (s *Store) EnsureHistory(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history.Get(user); ok {
		return nil
	}
	s.history.Set(user, []domain.Result{})
	return s.save(HistoryFile, s.history)
}

func (s *Store) AppendResult(_ context.Context, user string, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	results, _ := s.history.Get(user)
	s.history.Set(user, append(results, result))
	return s.save(HistoryFile, s.history)
}

func (s *Store) History(_ context.Context, user string) ([]domain.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results, ok := s.history.Get(user)
	if !ok {
		return nil, false, nil
	}
	out := make([]domain.Result, len(results))
	copy(out, results)
	return out, true, nil
}

func (s *Store) Histories(_ context.Context) ([]domain.UserHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return jsondoc.HistoryList(s.history), nil
}

func (s *Store) EnsureStats(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scores.Get(user); ok {
		return nil
	}
	s.scores.Set(user, domain.UserStats{})
	return s.save(ScoresFile, s.scores)
}

func (s *Store) AddScore(_ context.Context, user string, score float64) (domain.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, _ := s.scores.Get(user)
	stats.Accumulate(score)
	s.scores.Set(user, stats)
	stats.User = user
	return stats, s.save(ScoresFile, s.scores)
}

func (s *Store) AllStats(_ context.Context) ([]domain.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return jsondoc.StatsList(s.scores), nil
}
