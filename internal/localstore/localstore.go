// Package localstore persists the local player cache between sessions: a
// stable anonymous client id plus the character names seen on this machine,
// so identity resolution is warm on reconnect.
package localstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// PlayerRecord is one cached local character.
type PlayerRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LocalInfo is the on-disk shape.
type LocalInfo struct {
	ClientID string                  `json:"clientId"`
	Players  map[uint64]PlayerRecord `json:"players"`
}

// Store reads and writes the cache file. All calls happen from the packet
// loop goroutine, so there is no locking; writes go to a temp file first.
type Store struct {
	path string
	info LocalInfo
}

// Open loads the cache, creating it with a fresh client id when missing or
// unreadable.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err == nil {
		err = json.Unmarshal(data, &s.info)
	}
	if err != nil || s.info.ClientID == "" {
		s.info = LocalInfo{ClientID: uuid.NewString()}
	}
	if s.info.Players == nil {
		s.info.Players = make(map[uint64]PlayerRecord)
	}
	if err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ local store reset: %v", err)
	}
	return s, s.flush()
}

// ClientID is the stable anonymous id for this installation.
func (s *Store) ClientID() string {
	return s.info.ClientID
}

// Name returns the cached name for a character id.
func (s *Store) Name(characterID uint64) (string, bool) {
	rec, ok := s.info.Players[characterID]
	return rec.Name, ok
}

// Record upserts a character sighting and persists the cache.
func (s *Store) Record(characterID uint64, name string) {
	rec := s.info.Players[characterID]
	rec.Name = name
	rec.Count++
	s.info.Players[characterID] = rec
	if err := s.flush(); err != nil {
		log.Printf("⚠️ local store write failed: %v", err)
	}
}

func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create local store dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write local store: %w", err)
	}
	return os.Rename(tmp, s.path)
}
