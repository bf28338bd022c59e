package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"eduportal/internal/model"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session is the persisted authentication state of one portal user.
type Session struct {
	ID              string     `json:"id"`
	User            model.User `json:"user"`
	Token           string     `json:"token"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
}

// Expired reports whether s can no longer be used at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Usable reports whether s carries a live, authenticated token.
func (s Session) Usable(now time.Time) bool {
	return s.IsAuthenticated && s.Token != "" && !s.Expired(now)
}

// Store persists sessions by id.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// Manager runs the login, startup and logout lifecycle on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager issuing sessions valid for ttl.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Begin records a successful login.
func (m *Manager) Begin(ctx context.Context, user model.User, token string) (Session, error) {
	now := m.now()
	s := Session{
		ID:              uuid.NewString(),
		User:            user,
		Token:           token,
		IsAuthenticated: true,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Hydrate restores a session from storage. A stored session that is expired or
// not authenticated is cleared and reported as ErrExpired.
func (m *Manager) Hydrate(ctx context.Context, id string) (Session, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !s.Usable(m.now()) {
		if err := m.store.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return Session{}, err
		}
		return Session{}, ErrExpired
	}
	return s, nil
}

// End clears the session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
