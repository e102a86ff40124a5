package services

import (
	"testing"

	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_StartsLoggedOut(t *testing.T) {
	m := NewSessionManager()

	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, models.SessionState{}, m.Current())
}

func TestSessionManager_SetAuthenticatedAndLoggedOut(t *testing.T) {
	m := NewSessionManager()

	m.SetAuthenticated("1001", "tok", models.Profile{AccountID: "1001", Name: "Layla"}, true)
	s := m.Current()
	assert.True(t, s.Authenticated)
	assert.Equal(t, "1001", s.AccountID)
	assert.Equal(t, "tok", s.Token)
	assert.True(t, s.IsDirectLogin)
	require.NotNil(t, s.Profile)
	assert.Equal(t, "Layla", s.Profile.Name)

	m.SetLoggedOut()
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.Current().Profile)
}

func TestSessionManager_CurrentIsACopy(t *testing.T) {
	m := NewSessionManager()
	m.SetAuthenticated("1001", "tok", models.Profile{Name: "Layla"}, false)

	s := m.Current()
	s.Profile.Name = "changed"

	assert.Equal(t, "Layla", m.Current().Profile.Name)
}

func TestSessionManager_SubscribeKeepsLatest(t *testing.T) {
	m := NewSessionManager()
	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetAuthenticated("1001", "a", models.Profile{}, false)
	m.SetAuthenticated("1002", "b", models.Profile{}, false)
	m.SetLoggedOut()

	got := <-ch
	assert.False(t, got.Authenticated, "only the latest state is buffered")

	select {
	case s := <-ch:
		t.Fatalf("unexpected extra state %+v", s)
	default:
	}
}

func TestSessionManager_SubscribeFanOut(t *testing.T) {
	m := NewSessionManager()
	a, cancelA := m.Subscribe()
	b, cancelB := m.Subscribe()
	defer cancelA()
	defer cancelB()

	m.SetAuthenticated("1001", "tok", models.Profile{}, false)

	assert.Equal(t, "1001", (<-a).AccountID)
	assert.Equal(t, "1001", (<-b).AccountID)
}

func TestSessionManager_CancelClosesChannel(t *testing.T) {
	m := NewSessionManager()
	ch, cancel := m.Subscribe()

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	m.SetLoggedOut()
	assert.Empty(t, m.subs)
}

func TestSessionManager_UpdateProfile(t *testing.T) {
	m := NewSessionManager()
	m.SetAuthenticated("1001", "tok", models.Profile{Name: "old"}, true)

	m.UpdateProfile("1002", models.Profile{Name: "other"})
	assert.Equal(t, "old", m.Current().Profile.Name)

	m.UpdateProfile("1001", models.Profile{Name: "new"})
	s := m.Current()
	assert.Equal(t, "new", s.Profile.Name)
	assert.Equal(t, "tok", s.Token)
	assert.True(t, s.IsDirectLogin)
}

func TestSessionManager_UpdateProfileWhenLoggedOut(t *testing.T) {
	m := NewSessionManager()

	m.UpdateProfile("1001", models.Profile{Name: "x"})
	assert.False(t, m.IsAuthenticated())
}
