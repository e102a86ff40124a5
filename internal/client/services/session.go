package services

import (
	"sync"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
)

// SessionManager owns the single current SessionState. It only holds memory
// state; callers persist token and account id in their own transactions
// before publishing the new state here.
type SessionManager struct {
	// op serializes whole session-changing operations (bootstrap
	// reconciliation, switch, login, logout).
	op sync.Mutex

	mu     sync.RWMutex
	state  models.SessionState
	subs   map[int]chan models.SessionState
	nextID int
}

func NewSessionManager() *SessionManager {
	return &SessionManager{subs: make(map[int]chan models.SessionState)}
}

// Current returns a copy of the current state.
func (m *SessionManager) Current() models.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state)
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Authenticated
}

// Subscribe returns a channel that receives every state change. A slow
// reader only misses intermediate states: the channel holds the latest one.
// cancel closes the channel.
func (m *SessionManager) Subscribe() (<-chan models.SessionState, func()) {
	ch := make(chan models.SessionState, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SetAuthenticated publishes an authenticated state.
func (m *SessionManager) SetAuthenticated(accountID, token string, profile models.Profile, direct bool) {
	m.set(models.SessionState{
		Authenticated: true,
		AccountID:     accountID,
		Token:         token,
		Profile:       &profile,
		IsDirectLogin: direct,
	})
}

// SetLoggedOut publishes the logged-out state.
func (m *SessionManager) SetLoggedOut() {
	m.set(models.SessionState{})
}

// UpdateProfile replaces the profile of the current session when it belongs
// to accountID.
func (m *SessionManager) UpdateProfile(accountID string, profile models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Authenticated || m.state.AccountID != accountID {
		return
	}
	s := m.state
	s.Profile = &profile
	m.setLocked(s)
}

func (m *SessionManager) set(s models.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(s)
}

func (m *SessionManager) setLocked(s models.SessionState) {
	m.state = s
	for _, ch := range m.subs {
		publish(ch, copyState(s))
	}
}

func publish(ch chan models.SessionState, s models.SessionState) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func copyState(s models.SessionState) models.SessionState {
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return s
}
