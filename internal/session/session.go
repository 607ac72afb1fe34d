// Package session holds the signed-in user as an explicit, injectable object.
//
// Deliberately not a package-level global: every component that needs "who am
// I" receives a *Session, so tests inject a fake and sign-out has a defined
// lifecycle instead of ambient mutable state.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the identity holder for one client process. Goroutine-safe.
type Session struct {
	mu        sync.RWMutex
	userID    uuid.UUID
	signedIn  bool
	callbacks []func(userID uuid.UUID, signedIn bool)
}

func New() *Session {
	return &Session{}
}

// CurrentUserID returns the signed-in user, or ok=false when nobody is.
// Callers must treat ok=false as a hard precondition failure for mutating
// operations, not something to recover from.
func (s *Session) CurrentUserID() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.signedIn
}

func (s *Session) SignIn(userID uuid.UUID) {
	s.mu.Lock()
	s.userID = userID
	s.signedIn = true
	callbacks := append([]func(uuid.UUID, bool){}, s.callbacks...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(userID, true)
	}
}

func (s *Session) SignOut() {
	s.mu.Lock()
	s.userID = uuid.Nil
	s.signedIn = false
	callbacks := append([]func(uuid.UUID, bool){}, s.callbacks...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(uuid.Nil, false)
	}
}

// OnChange registers a callback fired on every sign-in and sign-out.
// Callbacks run outside the session lock, so they may call back into the
// session.
func (s *Session) OnChange(cb func(userID uuid.UUID, signedIn bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}
