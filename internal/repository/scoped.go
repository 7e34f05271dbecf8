package repository

import (
	"encoding/json"
	"fmt"
	"log"
)

// envelope wraps persisted state the way records are stored on disk
type envelope[T any] struct {
	State T `json:"state"`
}

// ScopedStore serializes one store's state to per-user records. An empty
// userID addresses the store's single global record.
type ScopedStore[T any] struct {
	name string
	repo StateRepository
}

// NewScopedStore creates a scoped store with the given record name prefix
func NewScopedStore[T any](repo StateRepository, name string) *ScopedStore[T] {
	return &ScopedStore[T]{name: name, repo: repo}
}

// Key returns the record key for the given user, or the global key
// when userID is empty
func (s *ScopedStore[T]) Key(userID string) string {
	if userID == "" {
		return s.name
	}
	return s.name + "-" + userID
}

// Load reads and decodes the record for userID. A missing record returns
// defaults silently; a corrupt record logs a warning and returns defaults
// rather than failing.
func (s *ScopedStore[T]) Load(userID string, defaults func() T) T {
	payload, err := s.repo.Load(s.Key(userID))
	if err == ErrNotFound {
		return defaults()
	}
	if err != nil {
		log.Printf("state store %s: load failed, using defaults: %v", s.Key(userID), err)
		return defaults()
	}

	var env envelope[T]
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("state store %s: corrupt record, using defaults: %v", s.Key(userID), err)
		return defaults()
	}
	return env.State
}

// Save encodes and writes the record for userID
func (s *ScopedStore[T]) Save(userID string, state T) error {
	payload, err := json.Marshal(envelope[T]{State: state})
	if err != nil {
		return fmt.Errorf("encode state %s: %w", s.Key(userID), err)
	}
	if err := s.repo.Save(s.Key(userID), string(payload)); err != nil {
		return fmt.Errorf("save state %s: %w", s.Key(userID), err)
	}
	return nil
}

// Delete removes the record for userID
func (s *ScopedStore[T]) Delete(userID string) error {
	return s.repo.Delete(s.Key(userID))
}
