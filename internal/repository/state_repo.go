package repository

import (
	"errors"
	"sort"
	"sync"

	"wordquest/internal/database"
)

// ErrNotFound is returned when no record exists for a key
var ErrNotFound = errors.New("record not found")

// StateRepository persists serialized store state under string keys.
// Keys are "{store}" for global records and "{store}-{userId}" for
// user-scoped records.
type StateRepository interface {
	Load(key string) (string, error)
	Save(key, payload string) error
	Delete(key string) error
	Keys() ([]string, error)
}

// DBStateRepository stores records in the state_records table
type DBStateRepository struct {
	db *database.DB
}

// NewDBStateRepository creates a repository backed by the database
func NewDBStateRepository(db *database.DB) *DBStateRepository {
	return &DBStateRepository{db: db}
}

func (r *DBStateRepository) Load(key string) (string, error) {
	payload, err := r.db.GetRecord(key)
	if errors.Is(err, database.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	return payload, err
}

func (r *DBStateRepository) Save(key, payload string) error {
	return r.db.PutRecord(key, payload)
}

func (r *DBStateRepository) Delete(key string) error {
	return r.db.DeleteRecord(key)
}

func (r *DBStateRepository) Keys() ([]string, error) {
	records, err := r.db.AllRecords()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.Key)
	}
	return keys, nil
}

// MemoryStateRepository is an in-memory StateRepository used in tests
type MemoryStateRepository struct {
	mu      sync.RWMutex
	records map[string]string
}

// NewMemoryStateRepository creates an empty in-memory repository
func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{records: make(map[string]string)}
}

func (r *MemoryStateRepository) Load(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.records[key]
	if !ok {
		return "", ErrNotFound
	}
	return payload, nil
}

func (r *MemoryStateRepository) Save(key, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = payload
	return nil
}

func (r *MemoryStateRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

func (r *MemoryStateRepository) Keys() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.records))
	for key := range r.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
