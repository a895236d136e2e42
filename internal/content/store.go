package content

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sparet/internal/domain"
)

// Store loads content packs from a directory of JSON files and caches the
// normalized result. Safe for concurrent use.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.RoundContent
}

// NewStore creates a store over the given pack directory. The directory may
// not exist yet; listing then returns nothing.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*domain.RoundContent),
	}
}

// Load returns the normalized content for one pack id.
func (s *Store) Load(packID string) (*domain.RoundContent, error) {
	s.mu.RLock()
	cached, ok := s.cache[packID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := filepath.Join(s.dir, packID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content pack %s: %w", packID, domain.ErrNoRoundContent)
		}
		return nil, fmt.Errorf("read content pack %s: %w", packID, err)
	}

	var pack Pack
	if err := json.Unmarshal(raw, &pack); err != nil {
		return nil, fmt.Errorf("parse content pack %s: %w", packID, err)
	}
	if pack.RoundID != packID {
		return nil, fmt.Errorf("content pack %s declares roundId %s", packID, pack.RoundID)
	}

	normalized, err := pack.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[packID] = normalized
	s.mu.Unlock()

	s.logger.Info("content pack loaded",
		"packId", packID,
		"destination", normalized.Name,
		"followups", len(normalized.Followups))
	return normalized, nil
}

// Put stores an already-normalized pack, as when one arrives directly from
// the generation service instead of disk.
func (s *Store) Put(pack *domain.RoundContent) {
	s.mu.Lock()
	s.cache[pack.ID] = pack
	s.mu.Unlock()
}

// Exists reports whether a pack id is loadable.
func (s *Store) Exists(packID string) bool {
	s.mu.RLock()
	_, ok := s.cache[packID]
	s.mu.RUnlock()
	if ok {
		return true
	}
	_, err := os.Stat(filepath.Join(s.dir, packID+".json"))
	return err == nil
}

// List returns every known pack id, cached or on disk.
func (s *Store) List() []string {
	seen := make(map[string]bool)

	s.mu.RLock()
	for id := range s.cache {
		seen[id] = true
	}
	s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to list content packs", "dir", s.dir, "error", err)
		}
	} else {
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, ".json") {
				seen[strings.TrimSuffix(name, ".json")] = true
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
