// Package store owns the in-memory thread and thought state, enforces the
// selection and garbage-collection invariants, orchestrates generation, and
// exposes derived views. Every mutation is applied in memory first and then
// written through to the persistence gateway; a write failure leaves the
// in-memory state as-is and surfaces on the store's error field.
package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fivol/ai-threads/internal/ai"
	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// Gateway is the persistence contract the store consumes. *db.Gateway is
// the production implementation; tests may substitute fakes.
type Gateway interface {
	GetAllThreads(ctx context.Context) ([]*thought.Thread, error)
	GetThread(ctx context.Context, id string) (*thought.Thread, error)
	SaveThread(ctx context.Context, t *thought.Thread) error
	DeleteThread(ctx context.Context, id string) error
	GetThoughtsByThread(ctx context.Context, threadID string) ([]*thought.Thought, error)
	GetThoughtCountByThread(ctx context.Context, threadID string) (int, error)
	GetSelectedThoughtCountByThread(ctx context.Context, threadID string) (int, error)
	GetStarredThoughts(ctx context.Context) ([]*thought.Thought, error)
	SaveThought(ctx context.Context, th *thought.Thought) error
	SaveThoughts(ctx context.Context, thoughts []*thought.Thought) error
	DeleteThought(ctx context.Context, id string) error
	DeleteThoughts(ctx context.Context, ids []string) error
}

// SettingsProvider is the read-only configuration snapshot plus the
// token-usage accumulator the core needs from the settings store.
type SettingsProvider interface {
	Snapshot() thought.Settings
	AddTokenUsage(ctx context.Context, tokensIn, tokensOut int) error
}

// KeepUnselected is the number of newest unselected candidates retained by
// PruneUnselected.
const KeepUnselected = 5

// Store is the thread-and-thought store. Construct with New; not usable
// zero-valued.
type Store struct {
	gw       Gateway
	ai       ai.Gateway
	settings SettingsProvider

	mu         sync.Mutex
	threads    []*thought.Thread             // most-recently-created first
	thoughts   map[string][]*thought.Thought // per thread, ascending by order
	totals     map[string]int
	selCounts  map[string]int
	starred    []*thought.Thought
	loadFailed bool
	lastErr    *errors.Error

	// Generation state machine: Idle <-> Generating, one in-flight request
	// for the whole store. genSeq invalidates a completion that raced with
	// Cancel so a cancelled generation appends nothing.
	generating bool
	cancelGen  context.CancelFunc
	genSeq     uint64

	subMu       sync.Mutex
	subscribers []func()
}

// New creates a store wired to its collaborators.
func New(gw Gateway, aiGW ai.Gateway, settings SettingsProvider) *Store {
	return &Store{
		gw:        gw,
		ai:        aiGW,
		settings:  settings,
		thoughts:  make(map[string][]*thought.Thought),
		totals:    make(map[string]int),
		selCounts: make(map[string]int),
	}
}

// Gateway exposes the persistence collaborator for boundary operations
// (export/import) that bypass the in-memory state.
func (s *Store) Gateway() Gateway {
	return s.gw
}

// Subscribe registers a callback invoked after every committed mutation.
// Callbacks run on the mutating goroutine and must not call back into the
// store's mutating operations.
func (s *Store) Subscribe(fn func()) {
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Err returns the current observable error, or nil. Store-level failures
// are captured here rather than returned to callers; each new failure
// overwrites the previous one.
func (s *Store) Err() *errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr clears the observable error field.
func (s *Store) ClearErr() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Store) setErr(err error) {
	e, ok := err.(*errors.Error)
	if !ok {
		e = errors.NewInternal(err)
	}
	s.mu.Lock()
	s.lastErr = e
	s.mu.Unlock()
}

// LoadFailed reports whether the last LoadAll failed. The condition is
// recoverable: a subsequent successful LoadAll clears it.
func (s *Store) LoadFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFailed
}

// LoadAll fetches all threads from the gateway, normalizes missing
// generation counts to the default (persisting the backfill), and caches
// per-thread total and selected counts. A failure sets the recoverable
// load-failed flag and the error field instead of propagating.
func (s *Store) LoadAll(ctx context.Context) {
	threads, err := s.gw.GetAllThreads(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadFailed = true
		s.mu.Unlock()
		s.setErr(err)
		return
	}

	totals := make(map[string]int, len(threads))
	selCounts := make(map[string]int, len(threads))
	for _, t := range threads {
		if t.GenerationCount <= 0 {
			t.GenerationCount = thought.DefaultGenerationCount
			if err := s.gw.SaveThread(ctx, t); err != nil {
				s.mu.Lock()
				s.loadFailed = true
				s.mu.Unlock()
				s.setErr(err)
				return
			}
		}
		total, err := s.gw.GetThoughtCountByThread(ctx, t.ID)
		if err != nil {
			s.mu.Lock()
			s.loadFailed = true
			s.mu.Unlock()
			s.setErr(err)
			return
		}
		selected, err := s.gw.GetSelectedThoughtCountByThread(ctx, t.ID)
		if err != nil {
			s.mu.Lock()
			s.loadFailed = true
			s.mu.Unlock()
			s.setErr(err)
			return
		}
		totals[t.ID] = total
		selCounts[t.ID] = selected
	}

	s.mu.Lock()
	s.threads = threads
	s.thoughts = make(map[string][]*thought.Thought)
	s.totals = totals
	s.selCounts = selCounts
	s.loadFailed = false
	s.mu.Unlock()
	s.notify()
}

// RefreshStarred reloads the cross-thread starred cache from the gateway.
func (s *Store) RefreshStarred(ctx context.Context) {
	starred, err := s.gw.GetStarredThoughts(ctx)
	if err != nil {
		s.setErr(err)
		return
	}
	s.mu.Lock()
	s.starred = starred
	s.mu.Unlock()
}

// threadByID returns the in-memory thread, or nil. Caller holds s.mu.
func (s *Store) threadByID(id string) *thought.Thread {
	for _, t := range s.threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// thoughtByID returns the in-memory thought within a thread, or nil.
// Caller holds s.mu.
func (s *Store) thoughtByID(threadID, thoughtID string) *thought.Thought {
	for _, th := range s.thoughts[threadID] {
		if th.ID == thoughtID {
			return th
		}
	}
	return nil
}

// maxOrder returns the highest order in a thread, or -1 when empty.
// Caller holds s.mu.
func (s *Store) maxOrder(threadID string) int64 {
	var max int64 = -1
	for _, th := range s.thoughts[threadID] {
		if th.Order > max {
			max = th.Order
		}
	}
	return max
}

// newULID generates a new ULID.
func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func now() int64 {
	return time.Now().Unix()
}
