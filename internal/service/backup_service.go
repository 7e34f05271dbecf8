package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"wordquest/internal/database"
)

// BackupData is the portable dump format: every persisted state record,
// raw payloads included, so a backup restores byte-for-byte
type BackupData struct {
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"exported_at"`
	DatabaseType string         `json:"database_type"`
	Records      []RecordBackup `json:"records"`
}

// RecordBackup is one state record in a backup file
type RecordBackup struct {
	Key       string    `json:"key"`
	Payload   string    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BackupService exports and imports the full set of state records
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup of all state records to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting state export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("State exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter exports all state records to an io.Writer (useful for
// HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	records, err := s.db.AllRecords()
	if err != nil {
		return fmt.Errorf("failed to read state records: %w", err)
	}

	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}
	for _, rec := range records {
		backup.Records = append(backup.Records, RecordBackup{
			Key:       rec.Key,
			Payload:   rec.Payload,
			UpdatedAt: rec.UpdatedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported %d state records", len(backup.Records))
	return nil
}

// Import restores state records from a backup file. When replace is true
// existing records are cleared first; either way the restore is atomic.
func (s *BackupService) Import(inputPath string, replace bool) error {
	log.Printf("Starting state import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file, replace)
}

// ImportFromReader restores state records from a backup reader (for file
// uploads)
func (s *BackupService) ImportFromReader(reader io.Reader, replace bool) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if err := tx.ClearRecordsTx(); err != nil {
			return fmt.Errorf("failed to clear existing records: %w", err)
		}
	}
	for _, rec := range backup.Records {
		if err := tx.PutRecordTx(rec.Key, rec.Payload); err != nil {
			return fmt.Errorf("failed to import record %s: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Imported %d state records", len(backup.Records))
	return nil
}
