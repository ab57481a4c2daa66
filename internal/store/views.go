package store

import "github.com/fivol/ai-threads/internal/thought"

// SelectedThoughts returns a thread's selected thoughts, ascending by order.
func (s *Store) SelectedThoughts(threadID string) []thought.Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []thought.Thought
	for _, th := range s.thoughts[threadID] {
		if th.Selected {
			out = append(out, *th)
		}
	}
	return out
}

// VisibleStream returns the full thread list ascending by order: selected
// and unselected interleaved by creation order. In practice the selected
// thoughts sit at the low end, since candidates always get higher orders
// than anything selected before them.
func (s *Store) VisibleStream(threadID string) []thought.Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]thought.Thought, 0, len(s.thoughts[threadID]))
	for _, th := range s.thoughts[threadID] {
		out = append(out, *th)
	}
	return out
}
