package database

import (
	"database/sql"
	"errors"
	"time"
)

// ErrRecordNotFound is returned when no state record exists for a key
var ErrRecordNotFound = errors.New("state record not found")

// StateRecord is one persisted key-value entry. Store state is serialized
// as a JSON payload under a per-store (and, for user data, per-user) key.
type StateRecord struct {
	Key       string
	Payload   string
	UpdatedAt time.Time
}

// GetRecord returns the payload stored under key
func (db *DB) GetRecord(key string) (string, error) {
	var payload string
	query := "SELECT payload FROM state_records WHERE record_key = ?"
	err := db.QueryRow(query, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", ErrRecordNotFound
	}
	if err != nil {
		return "", err
	}
	return payload, nil
}

// PutRecord inserts or replaces the payload stored under key
func (db *DB) PutRecord(key, payload string) error {
	query := db.Dialect.UpsertRecordQuery()
	_, err := db.Exec(query, key, payload)
	return err
}

// PutRecordTx inserts or replaces a record within a transaction
func (tx *Tx) PutRecordTx(key, payload string) error {
	query := tx.dialect.UpsertRecordQuery()
	_, err := tx.Exec(query, key, payload)
	return err
}

// DeleteRecord removes the record stored under key. Missing keys are not an error.
func (db *DB) DeleteRecord(key string) error {
	query := "DELETE FROM state_records WHERE record_key = ?"
	_, err := db.Exec(query, key)
	return err
}

// AllRecords returns every persisted state record ordered by key
func (db *DB) AllRecords() ([]StateRecord, error) {
	query := "SELECT record_key, payload, updated_at FROM state_records ORDER BY record_key"
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		var rec StateRecord
		if err := rows.Scan(&rec.Key, &rec.Payload, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ClearRecordsTx deletes every state record within a transaction.
// Used by the backup tool before a full import.
func (tx *Tx) ClearRecordsTx() error {
	_, err := tx.Exec("DELETE FROM state_records")
	return err
}
