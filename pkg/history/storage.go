package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	DefaultStorageFileName = ".position-manager-history.json"
)

// Storage handles persistence of deposit records
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

// fileFormat represents the JSON structure for storage
type fileFormat struct {
	Deposits map[string]*Record `json:"deposits"`
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		records:  make(map[string]*Record),
	}

	// A missing file is created on first save
	if err := storage.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load deposit history: %w", err)
	}

	return storage, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var stored fileFormat
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal deposits: %w", err)
	}

	s.records = stored.Deposits
	if s.records == nil {
		s.records = make(map[string]*Record)
	}
	return nil
}

// saveLocked writes all records; the caller holds the lock
func (s *Storage) saveLocked() error {
	data, err := json.MarshalIndent(fileFormat{Deposits: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deposits: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write deposits: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save inserts or replaces a record
func (s *Storage) Save(record *Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	copied.Legs = append([]Leg(nil), record.Legs...)
	copied.Approvals = append([]string(nil), record.Approvals...)
	s.records[record.ID] = &copied
	return s.saveLocked()
}

// Get retrieves a record by id
func (s *Storage) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("deposit '%s' not found", id)
	}
	copied := *record
	return &copied, nil
}

// List returns records newest first, optionally limited to one vault (vaultID > 0)
func (s *Storage) List(vaultID int) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if vaultID > 0 && record.VaultID != vaultID {
			continue
		}
		copied := *record
		records = append(records, &copied)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Created.After(records[j].Created)
	})
	return records
}

// Count returns the total number of records
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// FilePath returns the storage file path
func (s *Storage) FilePath() string {
	return s.filePath
}
