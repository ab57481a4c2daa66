// Package settings manages the persisted provider configuration and the
// global token counters. The core store consumes it only through a
// read-only snapshot and the token-usage accumulator.
package settings

import (
	"context"
	"sync"

	"github.com/fivol/ai-threads/internal/thought"
)

// Gateway is the slice of the persistence contract settings needs.
type Gateway interface {
	GetSettings(ctx context.Context) (*thought.Settings, error)
	SaveSettings(ctx context.Context, s *thought.Settings) error
}

// Store holds the in-memory settings mirror, write-through persisted.
type Store struct {
	gw Gateway

	mu      sync.Mutex
	current thought.Settings
}

// NewStore creates a settings store over the given gateway.
func NewStore(gw Gateway) *Store {
	return &Store{gw: gw}
}

// Load reads settings from the gateway into memory.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.gw.GetSettings(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = *loaded
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() thought.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies mutate to the settings and persists the result. The token
// counters are not touched by mutate callers; use AddTokenUsage for those.
func (s *Store) Update(ctx context.Context, mutate func(*thought.Settings)) error {
	s.mu.Lock()
	mutate(&s.current)
	snapshot := s.current
	s.mu.Unlock()
	return s.gw.SaveSettings(ctx, &snapshot)
}

// AddTokenUsage accumulates token counts from a completed generation into
// the global counters and persists them.
func (s *Store) AddTokenUsage(ctx context.Context, tokensIn, tokensOut int) error {
	s.mu.Lock()
	s.current.TotalTokensIn += int64(tokensIn)
	s.current.TotalTokensOut += int64(tokensOut)
	snapshot := s.current
	s.mu.Unlock()
	return s.gw.SaveSettings(ctx, &snapshot)
}
