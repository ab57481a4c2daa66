package store

import (
	"context"

	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// CreateThread allocates a new empty thread with defaults, persists it, and
// prepends it to the in-memory list. Returns nil if persistence failed (the
// error field carries the failure).
func (s *Store) CreateThread(ctx context.Context) *thought.Thread {
	id, err := newULID()
	if err != nil {
		s.setErr(errors.NewInternal(err))
		return nil
	}

	ts := now()
	t := &thought.Thread{
		ID:              id,
		Title:           thought.SentinelTitle,
		CreatedAt:       ts,
		UpdatedAt:       ts,
		GenerationCount: thought.DefaultGenerationCount,
	}

	if err := s.gw.SaveThread(ctx, t); err != nil {
		s.setErr(err)
		return nil
	}

	s.mu.Lock()
	s.threads = append([]*thought.Thread{t}, s.threads...)
	s.thoughts[id] = nil
	s.totals[id] = 0
	s.selCounts[id] = 0
	out := *t
	s.mu.Unlock()
	s.notify()
	return &out
}

// DeleteThread removes a thread and all its thoughts from the gateway, then
// evicts every in-memory entry for it.
func (s *Store) DeleteThread(ctx context.Context, threadID string) {
	s.mu.Lock()
	found := s.threadByID(threadID) != nil
	s.mu.Unlock()
	if !found {
		return
	}

	if err := s.gw.DeleteThread(ctx, threadID); err != nil {
		s.setErr(err)
		return
	}

	s.mu.Lock()
	for i, t := range s.threads {
		if t.ID == threadID {
			s.threads = append(s.threads[:i], s.threads[i+1:]...)
			break
		}
	}
	delete(s.thoughts, threadID)
	delete(s.totals, threadID)
	delete(s.selCounts, threadID)
	s.mu.Unlock()
	s.notify()
}

// TogglePinned flips a thread's pinned flag. No-op if the thread is absent.
func (s *Store) TogglePinned(ctx context.Context, threadID string) {
	s.mutateThread(ctx, threadID, func(t *thought.Thread) {
		t.Pinned = !t.Pinned
	})
}

// SetThreadPrompt sets or clears a thread's prompt. No-op if absent.
func (s *Store) SetThreadPrompt(ctx context.Context, threadID string, prompt *string) {
	s.mutateThread(ctx, threadID, func(t *thought.Thread) {
		t.ThreadPrompt = prompt
	})
}

// SetGenerationCount sets how many candidates a generation requests.
// Values outside 1..10 are clamped. No-op if the thread is absent.
func (s *Store) SetGenerationCount(ctx context.Context, threadID string, count int) {
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}
	s.mutateThread(ctx, threadID, func(t *thought.Thread) {
		t.GenerationCount = count
	})
}

// mutateThread applies fn to a thread, refreshes updatedAt, and persists.
func (s *Store) mutateThread(ctx context.Context, threadID string, fn func(*thought.Thread)) {
	s.mu.Lock()
	t := s.threadByID(threadID)
	if t == nil {
		s.mu.Unlock()
		return
	}
	fn(t)
	t.UpdatedAt = now()
	snapshot := *t
	s.mu.Unlock()

	if err := s.gw.SaveThread(ctx, &snapshot); err != nil {
		s.setErr(err)
		return
	}
	s.notify()
}

// Threads returns all threads, most-recently-created first.
func (s *Store) Threads() []thought.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]thought.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		out = append(out, *t)
	}
	return out
}

// Thread returns a copy of the thread with the given id.
func (s *Store) Thread(threadID string) (thought.Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.threadByID(threadID); t != nil {
		return *t, true
	}
	return thought.Thread{}, false
}

// Pinned returns threads with pinned=true, preserving list order.
func (s *Store) Pinned() []thought.Thread {
	return s.filterThreads(true)
}

// Unpinned returns threads with pinned=false, preserving list order.
func (s *Store) Unpinned() []thought.Thread {
	return s.filterThreads(false)
}

func (s *Store) filterThreads(pinned bool) []thought.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []thought.Thread
	for _, t := range s.threads {
		if t.Pinned == pinned {
			out = append(out, *t)
		}
	}
	return out
}

// ThoughtCount returns the cached total thought count for a thread.
func (s *Store) ThoughtCount(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[threadID]
}

// SelectedCount returns the cached selected thought count for a thread.
// The UI uses this with DeleteThread to discard abandoned drafts.
func (s *Store) SelectedCount(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selCounts[threadID]
}
