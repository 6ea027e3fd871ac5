package memory

import (
	"context"
	"sync"

	"qcm-app/internal/domain"
)

// AttemptGuard is an in-process app.AttemptGuard.
type AttemptGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewAttemptGuard() *AttemptGuard {
	return &AttemptGuard{active: make(map[string]struct{})}
}

// Acquire marks user as having a running attempt. The returned release is
// safe to call more than once.
func (g *AttemptGuard) Acquire(_ context.Context, user string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[user]; ok {
		return nil, domain.ErrAttemptInProgress
	}
	g.active[user] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, user)
			g.mu.Unlock()
		})
	}, nil
}

// Active reports whether user currently holds an attempt.
func (g *AttemptGuard) Active(user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[user]
	return ok
}
