package service

import (
	"log"
	"sync"

	"wordquest/internal/repository"
)

// SyncTarget is a store holding per-user state. On user switch the session
// saves the outgoing user's state and rehydrates the incoming user's.
type SyncTarget interface {
	SyncOnUserSwitch(userID string)
	SaveUserData(userID string)
}

// UserDataRemover is implemented by sync targets that keep per-user records
// which must be purged when the user is deleted
type UserDataRemover interface {
	DeleteUserData(userID string)
}

// Session owns the single current-user pointer and coordinates the
// registered stores across switches. Stores never read ambient globals;
// the active user id is pushed to them through SyncOnUserSwitch.
type Session struct {
	mu      sync.RWMutex
	writer  *repository.Writer
	targets []SyncTarget
	userID  string
}

// NewSession creates a session with no active user
func NewSession(writer *repository.Writer) *Session {
	return &Session{writer: writer}
}

// Register adds a store to the synchronization set. Registration happens
// once at startup, before any user is activated.
func (s *Session) Register(target SyncTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, target)
}

// CurrentUserID returns the active user id, or "" when nobody is logged in
func (s *Session) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Activate makes userID the current user. The outgoing user's state is
// saved and all pending deferred writes are flushed before the registered
// stores rehydrate, so a switch can never observe half-written records.
func (s *Session) Activate(userID string) {
	s.mu.Lock()
	outgoing := s.userID
	targets := s.targets
	s.mu.Unlock()

	if outgoing != "" && outgoing != userID {
		for _, t := range targets {
			t.SaveUserData(outgoing)
		}
	}
	s.writer.Flush()

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	for _, t := range targets {
		t.SyncOnUserSwitch(userID)
	}
}

// Deactivate saves the current user's state and clears the session
func (s *Session) Deactivate() {
	s.mu.Lock()
	outgoing := s.userID
	targets := s.targets
	s.userID = ""
	s.mu.Unlock()

	if outgoing == "" {
		return
	}
	for _, t := range targets {
		t.SaveUserData(outgoing)
	}
	s.writer.Flush()
	for _, t := range targets {
		t.SyncOnUserSwitch("")
	}
}

// PurgeUserData removes every registered store's records for the user
func (s *Session) PurgeUserData(userID string) {
	s.mu.RLock()
	targets := s.targets
	s.mu.RUnlock()

	for _, t := range targets {
		if remover, ok := t.(UserDataRemover); ok {
			remover.DeleteUserData(userID)
		}
	}
	log.Printf("purged stored data for deleted user %s", userID)
}

// Persist schedules a deferred write. Callers capture the owning user id
// when they call this, not when the job later runs.
func (s *Session) Persist(job func() error) {
	s.writer.Enqueue(job)
}

// Flush blocks until all scheduled writes have landed
func (s *Session) Flush() {
	s.writer.Flush()
}
