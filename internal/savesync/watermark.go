package savesync

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/openlauncher/savesync/internal/utils"
)

// WatermarkStore persists the last successful sync timestamp per game and
// save location. It is the only durable state the sync engine owns.
type WatermarkStore interface {
	Get(gameID, location string) (float64, error)
	Set(gameID, location string, ts float64) error
}

// DefaultWatermarkPath returns the standard cache location of the watermark file.
func DefaultWatermarkPath() string {
	return filepath.Join(xdg.CacheHome, "savesync", "sync_timestamps.json")
}

// FileWatermarkStore keeps watermarks in a single JSON document mapping
// game_id -> location -> unix timestamp. Writes take a file lock and go
// through a temp-file rename, so a crashed writer never leaves a torn file.
type FileWatermarkStore struct {
	path string
	mu   sync.Mutex
}

func NewFileWatermarkStore(path string) *FileWatermarkStore {
	return &FileWatermarkStore{path: path}
}

func (s *FileWatermarkStore) Get(gameID, location string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	return doc[gameID][location], nil
}

func (s *FileWatermarkStore) Set(gameID, location string, ts float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := utils.EnsureParent(s.path); err != nil {
		return fmt.Errorf("create watermark dir: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock watermark file: %w", err)
	}
	defer lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc[gameID] == nil {
		doc[gameID] = make(map[string]float64)
	}
	doc[gameID][location] = ts

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal watermarks: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write watermarks: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileWatermarkStore) load() (map[string]map[string]float64, error) {
	doc := make(map[string]map[string]float64)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("read watermarks: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse watermarks %s: %w", s.path, err)
	}
	return doc, nil
}

// MemoryWatermarkStore is an in-memory store for tests and dry runs.
type MemoryWatermarkStore struct {
	mu sync.Mutex
	m  map[string]map[string]float64
}

func NewMemoryWatermarkStore() *MemoryWatermarkStore {
	return &MemoryWatermarkStore{m: make(map[string]map[string]float64)}
}

func (s *MemoryWatermarkStore) Get(gameID, location string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[gameID][location], nil
}

func (s *MemoryWatermarkStore) Set(gameID, location string, ts float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[gameID] == nil {
		s.m[gameID] = make(map[string]float64)
	}
	s.m[gameID][location] = ts
	return nil
}
