// Package store persists posts as a single JSON document on disk.
//
// The file is the source of truth: every operation reads it fresh, mutates
// in memory, and writes the whole document back through a temp file and
// rename so a crash mid-write never corrupts existing data. A single mutex
// serializes read-modify-write cycles, which keeps concurrent analysis runs
// from losing each other's writes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
	"github.com/RustColeone/TradingAgents-web-managed/internal/models"
)

// ErrNotFound is returned when a referenced post id does not exist.
var ErrNotFound = errors.New("post not found")

// Store is a file-backed post collection.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *common.Logger
}

// New creates a store backed by the JSON file at path, creating the parent
// directory if needed.
func New(path string, logger *common.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Store{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// load reads the posts file. Reads fail open: a missing, empty, or corrupt
// file yields an empty list so one bad write never bricks the server.
func (s *Store) load() []*models.Post {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read posts file, treating as empty")
		}
		return []*models.Post{}
	}

	var posts []*models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Posts file is not valid JSON, treating as empty")
		return []*models.Post{}
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts
}

// save writes the full post list atomically. Writes fail closed: any I/O
// error propagates to the caller.
func (s *Store) save(posts []*models.Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write posts temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace posts file: %w", err)
	}
	return nil
}

// List returns all posts in stored order.
func (s *Store) List() []*models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Find returns the post with the given id, or ErrNotFound.
func (s *Store) Find(id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.load() {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// Insert appends a post to the collection.
func (s *Store) Insert(post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load()
	posts = append(posts, post)
	return s.save(posts)
}

// Update applies mutate to the post with the given id inside one locked
// read-modify-write cycle and returns the mutated post. The mutator sees
// the freshest stored state, so concurrent updates to different fields of
// the same post compose instead of clobbering each other.
func (s *Store) Update(id string, mutate func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load()
	for _, p := range posts {
		if p.ID == id {
			if err := mutate(p); err != nil {
				return nil, err
			}
			if err := s.save(posts); err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes the post with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load()
	kept := make([]*models.Post, 0, len(posts))
	found := false
	for _, p := range posts {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrNotFound
	}
	return s.save(kept)
}

// Reorder rearranges posts to match the given id order. Ids in order that
// do not exist are ignored; existing posts missing from order keep their
// relative position after the ordered ones. No post is ever dropped.
func (s *Store) Reorder(order []string) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load()
	byID := make(map[string]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	next := make([]*models.Post, 0, len(posts))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if p, ok := byID[id]; ok && !seen[id] {
			next = append(next, p)
			seen[id] = true
		}
	}
	for _, p := range posts {
		if !seen[p.ID] {
			next = append(next, p)
		}
	}

	if err := s.save(next); err != nil {
		return nil, err
	}
	return next, nil
}
