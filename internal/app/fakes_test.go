package app

import (
	"context"
	"sync"
	"time"

	"qcm-app/internal/domain"
)

type fakeCatalog struct {
	catalog domain.Catalog
	added   []domain.Quiz
}

func (f *fakeCatalog) GetQuiz(_ context.Context, category, title string) (domain.Quiz, error) {
	return f.catalog.Quiz(category, title)
}

func (f *fakeCatalog) ListCategories(_ context.Context) ([]string, error) {
	return f.catalog.CategoryNames(), nil
}

func (f *fakeCatalog) ListTitles(_ context.Context, category string) ([]string, error) {
	return f.catalog.Titles(category)
}

func (f *fakeCatalog) AddQuiz(_ context.Context, quiz domain.Quiz) error {
	if err := f.catalog.Add(quiz); err != nil {
		return err
	}
	f.added = append(f.added, quiz)
	return nil
}

// fakeStore implements the user, history and stats repositories.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]string
	history   map[string][]domain.Result
	order     []string
	stats     map[string]domain.UserStats
	statOrder []string
	failWrite error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]string),
		history: make(map[string][]domain.Result),
		stats:   make(map[string]domain.UserStats),
	}
}

func (s *fakeStore) CreateUser(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return domain.ErrDuplicateUser
	}
	s.users[username] = password
	return nil
}

func (s *fakeStore) Password(_ context.Context, username string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[username]
	return p, ok, nil
}

func (s *fakeStore) EnsureHistory(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history[user]; !ok {
		s.history[user] = []domain.Result{}
		s.order = append(s.order, user)
	}
	return nil
}

func (s *fakeStore) AppendResult(ctx context.Context, user string, result domain.Result) error {
	_ = s.EnsureHistory(ctx, user)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[user] = append(s.history[user], result)
	return s.failWrite
}

func (s *fakeStore) History(_ context.Context, user string) ([]domain.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.history[user]
	return r, ok, nil
}

func (s *fakeStore) Histories(_ context.Context) ([]domain.UserHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserHistory, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, domain.UserHistory{User: u, Results: s.history[u]})
	}
	return out, nil
}

func (s *fakeStore) EnsureStats(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stats[user]; !ok {
		s.stats[user] = domain.UserStats{}
		s.statOrder = append(s.statOrder, user)
	}
	return nil
}

func (s *fakeStore) AddScore(ctx context.Context, user string, score float64) (domain.UserStats, error) {
	_ = s.EnsureStats(ctx, user)
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats[user]
	st.Accumulate(score)
	s.stats[user] = st
	st.User = user
	return st, s.failWrite
}

func (s *fakeStore) AllStats(_ context.Context) ([]domain.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserStats, 0, len(s.statOrder))
	for _, u := range s.statOrder {
		st := s.stats[u]
		st.User = u
		out = append(out, st)
	}
	return out, nil
}

// scriptedPrompter replays inputs; an entry with err set is returned as-is.
type scriptedPrompter struct {
	inputs   []promptInput
	labels   []string
	rejected []error
}

type promptInput struct {
	n   int
	err error
}

func (p *scriptedPrompter) PromptInt(label string) (int, error) {
	p.labels = append(p.labels, label)
	if len(p.inputs) == 0 {
		return 0, errScriptExhausted
	}
	in := p.inputs[0]
	p.inputs = p.inputs[1:]
	return in.n, in.err
}

func (p *scriptedPrompter) Reject(reason error) {
	p.rejected = append(p.rejected, reason)
}

// clock is a manual time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 10, 19, 10, 0, 0, 0, time.Local)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedCollector answers from a fixed list and advances the clock per answer.
type scriptedCollector struct {
	answers []domain.Indices
	clock   *clock
	step    time.Duration
	asked   int
}

func (c *scriptedCollector) Collect(_ context.Context, _ domain.Question) (domain.Indices, error) {
	if c.asked >= len(c.answers) {
		return nil, errScriptExhausted
	}
	a := c.answers[c.asked]
	c.asked++
	if c.clock != nil {
		c.clock.Advance(c.step)
	}
	return a, nil
}

type nopPresenter struct {
	questions int
	graded    []bool
	timeUp    bool
}

func (p *nopPresenter) Start(domain.Quiz, time.Duration) {}

func (p *nopPresenter) Question(domain.Question, int, int, time.Duration) { p.questions++ }

func (p *nopPresenter) Graded(_ domain.Question, correct bool) {
	p.graded = append(p.graded, correct)
}

func (p *nopPresenter) TimeUp() { p.timeUp = true }

func mustQuestion(text string, options []string, correct ...int) domain.Question {
	q, err := domain.NewQuestion(text, options, correct)
	if err != nil {
		panic(err)
	}
	return q
}

func quizOf(category, title string, questions ...domain.Question) domain.Catalog {
	var c domain.Catalog
	if err := c.Add(domain.Quiz{Category: category, Title: title, Questions: questions}); err != nil {
		panic(err)
	}
	return c
}
