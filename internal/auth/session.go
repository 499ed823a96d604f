package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"dashboard-sync-service/internal/rbac"
	"dashboard-sync-service/internal/store"
)

type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      rbac.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager keeps login sessions in memory; a restart logs everyone out.
type SessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *SessionManager) Create(user *store.User) (*Session, error) {
	role, err := rbac.ParseRole(user.Role)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.Token] = sess
	m.sweep(now)
	return sess, nil
}

// Get returns a live session. Expired sessions are dropped on access.
func (m *SessionManager) Get(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	if !m.now().Before(sess.ExpiresAt) {
		delete(m.sessions, token)
		return nil, false
	}
	return sess, true
}

func (m *SessionManager) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *SessionManager) sweep(now time.Time) {
	for token, sess := range m.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
}
