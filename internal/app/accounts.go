package app

import (
	"context"
	"strings"

	"qcm-app/internal/domain"
)

// UserRepository stores credentials. CreateUser fails with
// domain.ErrDuplicateUser when the name is taken.
type UserRepository interface {
	CreateUser(ctx context.Context, username, password string) error
	Password(ctx context.Context, username string) (string, bool, error)
}

// Accounts handles registration and login. Passwords are compared as stored.
type Accounts struct {
	users   UserRepository
	history HistoryRepository
	stats   StatsRepository
}

func NewAccounts(users UserRepository, history HistoryRepository, stats StatsRepository) *Accounts {
	return &Accounts{users: users, history: history, stats: stats}
}

// Register creates the user with an empty history and zero stats.
// A duplicate name leaves the existing user untouched.
func (a *Accounts) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrInvalidUsername
	}
	if err := a.users.CreateUser(ctx, username, password); err != nil {
		return err
	}
	if err := a.history.EnsureHistory(ctx, username); err != nil {
		return err
	}
	return a.stats.EnsureStats(ctx, username)
}

// Login checks the credentials and returns the normalized username.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	stored, ok, err := a.users.Password(ctx, username)
	if err != nil {
		return "", err
	}
	if !ok || stored != password {
		return "", domain.ErrInvalidCredentials
	}
	return username, nil
}
