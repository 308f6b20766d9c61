package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const DefaultStorageFileName = ".dustsweep-history.json"

// Record is one completed (or submitted) sweep attempt. Pipeline state
// never outlives a run; this file only remembers what was sent on-chain.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	TxHash     string    `json:"tx_hash"`
	Symbols    []string  `json:"symbols"`
	Addresses  []string  `json:"addresses"`
	Amounts    []string  `json:"amounts"`
	MinReceive string    `json:"min_receive"`
	Status     string    `json:"status"` // submitted | confirmed | reverted
}

// Storage persists sweep records to a JSON file.
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  []Record
}

type fileFormat struct {
	Records []Record `json:"records"`
}

// NewStorage opens (or creates) the history file. An empty path defaults
// to the home directory.
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	s := &Storage{filePath: filePath}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}
	s.records = ff.Records
	return nil
}

func (s *Storage) save() error {
	data, err := json.MarshalIndent(fileFormat{Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Append adds a record and persists immediately.
func (s *Storage) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	s.records = append(s.records, rec)
	return s.save()
}

// UpdateStatus sets the status of the record with the given tx hash.
func (s *Storage) UpdateStatus(txHash, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].TxHash == txHash {
			s.records[i].Status = status
			return s.save()
		}
	}
	return fmt.Errorf("no history record for tx %s", txHash)
}

// List returns all records, newest last.
func (s *Storage) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
