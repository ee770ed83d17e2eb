// internal/session/store.go
package session

import (
	"sync"
)

// State is the per-identity conversation state. Text messages are only
// meaningful in the awaiting states; everything else happens in idle via
// commands and inline buttons.
type State int

const (
	StateIdle State = iota
	StateAwaitUsername
	StateAwaitPassword
	StateAwaitNewPassword
	StateAwaitInternalPort
	StateAwaitExternalPort
)

// PortWizard accumulates the fields of an in-progress port-forward
// creation across several conversational turns. It is discarded after
// submission whether the panel accepted the rule or not.
type PortWizard struct {
	InstanceID   string
	Protocol     string
	InternalPort string
	ExternalPort string
}

// Session is the authenticated state for one Telegram identity. It lives
// only in memory: a process restart logs everybody out.
type Session struct {
	Token            string
	SelectedInstance string
	Wizard           *PortWizard
}

// Store maps Telegram user IDs to sessions, conversation states and
// mid-login pending usernames. Map access is a short critical section
// under one mutex; event processing for a single identity serializes on
// that identity's own lock, so distinct identities never contend.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	states   map[int64]State
	pending  map[int64]string // username collected before its password
	locks    map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		states:   make(map[int64]State),
		pending:  make(map[int64]string),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Lock acquires the per-identity event lock. Callers hold it for the
// whole of one inbound event, including any panel call.
func (s *Store) Lock(id int64) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
}

func (s *Store) Unlock(id int64) {
	s.mu.Lock()
	l := s.locks[id]
	s.mu.Unlock()
	if l != nil {
		l.Unlock()
	}
}

// Create installs a fresh session for id, replacing any existing one.
func (s *Store) Create(id int64, token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{Token: token}
	s.sessions[id] = sess
	return sess
}

// Get returns the session for id, or nil when the identity is not
// logged in.
func (s *Store) Get(id int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes the session for id along with any conversation residue.
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.states, id)
	delete(s.pending, id)
}

func (s *Store) State(id int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

func (s *Store) SetState(id int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == StateIdle {
		delete(s.states, id)
		return
	}
	s.states[id] = st
}

// SetPendingUsername stores the username half of an in-progress login.
func (s *Store) SetPendingUsername(id int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = username
}

// PendingUsername returns the stored username and whether one exists.
func (s *Store) PendingUsername(id int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.pending[id]
	return u, ok
}

// ClearPending drops the mid-login username. Called once the password is
// processed (either outcome) and on cancellation.
func (s *Store) ClearPending(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Len reports the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
