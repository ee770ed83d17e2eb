// internal/session/store_test.go
package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReplaceDelete(t *testing.T) {
	s := NewStore()

	require.Nil(t, s.Get(42))

	sess := s.Create(42, "T1")
	require.NotNil(t, sess)
	assert.Equal(t, "T1", sess.Token)
	assert.Same(t, sess, s.Get(42))
	assert.Equal(t, 1, s.Len())

	// Re-login replaces the session wholesale.
	sess.SelectedInstance = "101"
	replaced := s.Create(42, "T2")
	assert.Equal(t, "T2", replaced.Token)
	assert.Empty(t, replaced.SelectedInstance)
	assert.Equal(t, 1, s.Len())

	s.Delete(42)
	assert.Nil(t, s.Get(42))
	assert.Equal(t, 0, s.Len())
}

func TestDeleteClearsConversationResidue(t *testing.T) {
	s := NewStore()
	s.Create(42, "T1")
	s.SetState(42, StateAwaitInternalPort)
	s.SetPendingUsername(42, "alice")

	s.Delete(42)

	assert.Equal(t, StateIdle, s.State(42))
	_, ok := s.PendingUsername(42)
	assert.False(t, ok)
}

func TestPendingLifecycle(t *testing.T) {
	s := NewStore()

	_, ok := s.PendingUsername(42)
	require.False(t, ok)

	s.SetPendingUsername(42, "alice")
	u, ok := s.PendingUsername(42)
	require.True(t, ok)
	assert.Equal(t, "alice", u)

	s.ClearPending(42)
	_, ok = s.PendingUsername(42)
	assert.False(t, ok)
}

func TestStateDefaultsToIdle(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StateIdle, s.State(7))

	s.SetState(7, StateAwaitPassword)
	assert.Equal(t, StateAwaitPassword, s.State(7))

	s.SetState(7, StateIdle)
	assert.Equal(t, StateIdle, s.State(7))
}

func TestPerIdentityLocksAreIndependent(t *testing.T) {
	s := NewStore()

	// Identity 1 holds its lock; identity 2 must not block on it.
	s.Lock(1)
	done := make(chan struct{})
	go func() {
		s.Lock(2)
		s.Unlock(2)
		close(done)
	}()
	<-done
	s.Unlock(1)
}

func TestSameIdentitySerializes(t *testing.T) {
	s := NewStore()

	var current, max int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock(42)
			defer s.Unlock(42)
			mu.Lock()
			current++
			if current > max {
				max = current
			}
			mu.Unlock()
			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, max, "events for one identity must never overlap")
}
