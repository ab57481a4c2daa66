package store

import (
	"context"
	"sort"

	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// LoadForThread fetches a thread's thoughts from the gateway, caches the
// list, and recomputes the thread's counters.
func (s *Store) LoadForThread(ctx context.Context, threadID string) {
	thoughts, err := s.gw.GetThoughtsByThread(ctx, threadID)
	if err != nil {
		s.setErr(err)
		return
	}

	selected := 0
	for _, th := range thoughts {
		if th.Selected {
			selected++
		}
	}

	s.mu.Lock()
	s.thoughts[threadID] = thoughts
	s.totals[threadID] = len(thoughts)
	s.selCounts[threadID] = selected
	s.mu.Unlock()
	s.notify()
}

// AddUserThought appends a user-authored, selected thought to the thread.
// Text is trimmed; an empty result or an absent thread is a no-op.
// Returns nil in the no-op and persistence-failure cases.
func (s *Store) AddUserThought(ctx context.Context, threadID, text string) *thought.Thought {
	text = thought.TrimText(text)
	if text == "" {
		return nil
	}

	id, err := newULID()
	if err != nil {
		s.setErr(errors.NewInternal(err))
		return nil
	}

	s.mu.Lock()
	t := s.threadByID(threadID)
	if t == nil {
		s.mu.Unlock()
		return nil
	}
	th := &thought.Thought{
		ID:        id,
		ThreadID:  threadID,
		Author:    thought.AuthorUser,
		Text:      text,
		CreatedAt: now(),
		Selected:  true,
		Order:     s.maxOrder(threadID) + 1,
	}
	s.thoughts[threadID] = append(s.thoughts[threadID], th)
	s.totals[threadID]++
	s.selCounts[threadID]++
	t.UpdatedAt = now()
	thoughtCopy := *th
	threadCopy := *t
	s.mu.Unlock()

	if err := s.gw.SaveThought(ctx, &thoughtCopy); err != nil {
		s.setErr(err)
		return &thoughtCopy
	}
	if err := s.gw.SaveThread(ctx, &threadCopy); err != nil {
		s.setErr(err)
		return &thoughtCopy
	}
	s.notify()
	return &thoughtCopy
}

// ToggleSelected flips a thought's selected flag. Selecting an AI-authored
// candidate additionally discards every other unselected AI candidate in
// the thread with a strictly lower order: once the user commits to a later
// candidate, the ones scrolled past are gone for good. Deselecting performs
// no cascade. No-op if the thought or thread is absent.
func (s *Store) ToggleSelected(ctx context.Context, thoughtID, threadID string) {
	s.mu.Lock()
	t := s.threadByID(threadID)
	th := s.thoughtByID(threadID, thoughtID)
	if t == nil || th == nil {
		s.mu.Unlock()
		return
	}

	th.Selected = !th.Selected
	if th.Selected {
		s.selCounts[threadID]++
	} else {
		s.selCounts[threadID]--
	}
	t.UpdatedAt = now()

	// Skip removal: sweep candidates the user scrolled past. The sweep is
	// thread-wide, so lower-order candidates from earlier generation
	// batches are discarded too.
	var swept []string
	if th.Selected && th.Author == thought.AuthorAI {
		kept := s.thoughts[threadID][:0]
		for _, other := range s.thoughts[threadID] {
			if other.ID != th.ID && other.Author == thought.AuthorAI &&
				!other.Selected && other.Order < th.Order {
				swept = append(swept, other.ID)
				continue
			}
			kept = append(kept, other)
		}
		s.thoughts[threadID] = kept
		s.totals[threadID] -= len(swept)
	}

	thoughtCopy := *th
	threadCopy := *t
	s.mu.Unlock()

	if err := s.gw.SaveThought(ctx, &thoughtCopy); err != nil {
		s.setErr(err)
		return
	}
	if len(swept) > 0 {
		if err := s.gw.DeleteThoughts(ctx, swept); err != nil {
			s.setErr(err)
			return
		}
	}
	if err := s.gw.SaveThread(ctx, &threadCopy); err != nil {
		s.setErr(err)
		return
	}
	s.notify()
}

// ToggleStarred flips a thought's starred flag, persists it, and refreshes
// the cross-thread starred cache. No-op if the thought is absent.
func (s *Store) ToggleStarred(ctx context.Context, thoughtID, threadID string) {
	s.mu.Lock()
	th := s.thoughtByID(threadID, thoughtID)
	if th == nil {
		s.mu.Unlock()
		return
	}
	th.Starred = !th.Starred
	thoughtCopy := *th
	s.mu.Unlock()

	if err := s.gw.SaveThought(ctx, &thoughtCopy); err != nil {
		s.setErr(err)
		return
	}
	s.RefreshStarred(ctx)
	s.notify()
}

// EditThought replaces a thought's text (trimmed) and marks it edited.
// Order and selection are untouched. No-op if the thought is absent or the
// trimmed text is empty.
func (s *Store) EditThought(ctx context.Context, thoughtID, threadID, text string) {
	text = thought.TrimText(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	th := s.thoughtByID(threadID, thoughtID)
	if th == nil {
		s.mu.Unlock()
		return
	}
	th.Text = text
	th.Edited = true
	thoughtCopy := *th
	s.mu.Unlock()

	if err := s.gw.SaveThought(ctx, &thoughtCopy); err != nil {
		s.setErr(err)
		return
	}
	s.notify()
}

// DeleteThought removes one thought and adjusts the counters.
// No-op if the thought is absent.
func (s *Store) DeleteThought(ctx context.Context, thoughtID, threadID string) {
	s.mu.Lock()
	t := s.threadByID(threadID)
	th := s.thoughtByID(threadID, thoughtID)
	if t == nil || th == nil {
		s.mu.Unlock()
		return
	}
	for i, other := range s.thoughts[threadID] {
		if other.ID == thoughtID {
			s.thoughts[threadID] = append(s.thoughts[threadID][:i], s.thoughts[threadID][i+1:]...)
			break
		}
	}
	s.totals[threadID]--
	if th.Selected {
		s.selCounts[threadID]--
	}
	t.UpdatedAt = now()
	threadCopy := *t
	s.mu.Unlock()

	if err := s.gw.DeleteThought(ctx, thoughtID); err != nil {
		s.setErr(err)
		return
	}
	if err := s.gw.SaveThread(ctx, &threadCopy); err != nil {
		s.setErr(err)
		return
	}
	s.notify()
}

// PruneUnselected garbage-collects a thread's candidates: among unselected
// AI thoughts, the newest KeepUnselected by order are retained and the rest
// deleted. Bounds candidate accumulation from repeated generation while
// keeping the most recent, most relevant unseen candidates. No-op when
// there is nothing to delete.
func (s *Store) PruneUnselected(ctx context.Context, threadID string) {
	s.mu.Lock()
	var candidates []*thought.Thought
	for _, th := range s.thoughts[threadID] {
		if th.Author == thought.AuthorAI && !th.Selected {
			candidates = append(candidates, th)
		}
	}
	if len(candidates) <= KeepUnselected {
		s.mu.Unlock()
		return
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Order > candidates[j].Order
	})
	doomed := make(map[string]bool, len(candidates)-KeepUnselected)
	var doomedIDs []string
	for _, th := range candidates[KeepUnselected:] {
		doomed[th.ID] = true
		doomedIDs = append(doomedIDs, th.ID)
	}

	kept := s.thoughts[threadID][:0]
	for _, th := range s.thoughts[threadID] {
		if !doomed[th.ID] {
			kept = append(kept, th)
		}
	}
	s.thoughts[threadID] = kept
	s.totals[threadID] -= len(doomedIDs)
	s.mu.Unlock()

	if err := s.gw.DeleteThoughts(ctx, doomedIDs); err != nil {
		s.setErr(err)
		return
	}
	s.notify()
}

// HasUnselectedCandidates reports whether any unselected AI thought exists
// in the thread. Callers use it to choose between appending more candidates
// and regenerating.
func (s *Store) HasUnselectedCandidates(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, th := range s.thoughts[threadID] {
		if th.Author == thought.AuthorAI && !th.Selected {
			return true
		}
	}
	return false
}

// StarredThoughts returns the cached cross-thread starred list.
func (s *Store) StarredThoughts() []thought.Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]thought.Thought, 0, len(s.starred))
	for _, th := range s.starred {
		out = append(out, *th)
	}
	return out
}
