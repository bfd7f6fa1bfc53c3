package session

import (
	"context"
	"sync"
	"time"

	"github.com/rearqui/portfolio/internal/uuidutil"
	"github.com/rearqui/portfolio/logger"
)

// Manager manages admin sessions with periodic cleanup.
type Manager struct {
	store    *Store
	duration time.Duration
	logger   logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a new session manager with the given duration.
func NewManager(duration time.Duration, log logger.Logger) *Manager {
	return &Manager{
		store:    NewStore(),
		duration: duration,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// Duration returns how long new sessions live.
func (m *Manager) Duration() time.Duration {
	return m.duration
}

// Create creates a new session for the given user.
func (m *Manager) Create(userID uint, username string) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.duration),
	}

	m.store.Set(session)

	m.logger.Info(context.Background(), "session created", map[string]interface{}{
		"user_id":  userID,
		"username": username,
	})

	return session, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(sessionID string) (*Session, error) {
	return m.store.Get(sessionID)
}

// Delete deletes a session by ID.
func (m *Manager) Delete(sessionID string) {
	m.store.Delete(sessionID)
	m.logger.Info(context.Background(), "session deleted", nil)
}

// StartCleanup starts a background goroutine that periodically cleans up expired sessions.
func (m *Manager) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				removed := m.store.Cleanup()
				if removed > 0 {
					m.logger.Info(context.Background(), "cleaned up expired sessions", map[string]interface{}{
						"removed_count": removed,
					})
				}
			case <-m.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup goroutine. It is safe to call more than once.
func (m *Manager) StopCleanup() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func generateSessionID() (string, error) {
	return uuidutil.New(), nil
}
