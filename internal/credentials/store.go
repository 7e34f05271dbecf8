package credentials

import (
	"errors"
	"sync"

	"wordquest/internal/models"
	"wordquest/internal/security"
)

var (
	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = errors.New("username already taken")
)

// Store holds salted credential records keyed by username (case-sensitive).
// Verification never exposes or reconstructs the plaintext.
type Store struct {
	mu      sync.RWMutex
	records map[string]models.CredentialRecord
}

// NewStore creates an empty credential store
func NewStore() *Store {
	return &Store{records: make(map[string]models.CredentialRecord)}
}

// Register creates a credential record with a fresh salt. It fails with
// ErrUsernameTaken if the username already exists.
func (s *Store) Register(username, plaintext string) (models.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[username]; exists {
		return models.CredentialRecord{}, ErrUsernameTaken
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		return models.CredentialRecord{}, err
	}
	hash, err := security.HashPassword(plaintext, salt)
	if err != nil {
		return models.CredentialRecord{}, err
	}

	record := models.CredentialRecord{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
	}
	s.records[username] = record
	return record, nil
}

// Verify checks a plaintext against the stored record for the username.
// Unknown usernames verify as false.
func (s *Store) Verify(username, plaintext string) bool {
	s.mu.RLock()
	record, exists := s.records[username]
	s.mu.RUnlock()
	if !exists {
		return false
	}
	return security.CheckPassword(plaintext, record.Salt, record.PasswordHash)
}

// Put inserts or replaces a record. Used when rehydrating persisted profiles.
func (s *Store) Put(record models.CredentialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Username] = record
}

// Remove deletes the record for a username, if present
func (s *Store) Remove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, username)
}
