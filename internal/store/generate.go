package store

import (
	"context"
	"log"

	"github.com/fivol/ai-threads/internal/ai"
	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// IsGenerating reports whether a generation is in flight. The guard is
// store-wide: one generation at a time, regardless of thread.
func (s *Store) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Generate requests new candidates for a thread and appends them unselected.
// A call while a generation is already in flight is a silent no-op. Missing
// configuration surfaces a user-facing error before any I/O. When regenerate
// is true, existing unselected candidates are deleted first, distinguishing
// "start over" from "append more".
//
// The call blocks until completion, cancellation, or failure; Cancel may be
// invoked from another goroutine. A cancelled generation persists nothing.
func (s *Store) Generate(ctx context.Context, threadID string, regenerate bool) {
	cfg := s.settings.Snapshot()

	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return
	}
	t := s.threadByID(threadID)
	if t == nil {
		s.mu.Unlock()
		return
	}
	if !cfg.Configured() {
		s.mu.Unlock()
		s.setErr(errors.NewConfigMissing())
		return
	}

	// Fresh candidates only: sweep the old unselected batch before
	// composing context.
	var swept []string
	if regenerate {
		kept := s.thoughts[threadID][:0]
		for _, th := range s.thoughts[threadID] {
			if th.Author == thought.AuthorAI && !th.Selected {
				swept = append(swept, th.ID)
				continue
			}
			kept = append(kept, th)
		}
		s.thoughts[threadID] = kept
		s.totals[threadID] -= len(swept)
	}

	var contextTexts []string
	for _, th := range s.thoughts[threadID] {
		if th.Selected {
			contextTexts = append(contextTexts, th.Text)
		}
	}

	threadPrompt := ""
	if t.ThreadPrompt != nil {
		threadPrompt = *t.ThreadPrompt
	}
	count := t.GenerationCount
	if count <= 0 {
		count = thought.DefaultGenerationCount
	}

	genCtx, cancel := context.WithCancel(ctx)
	s.generating = true
	s.cancelGen = cancel
	s.genSeq++
	seq := s.genSeq
	s.mu.Unlock()
	defer cancel()
	s.notify()

	if len(swept) > 0 {
		if err := s.gw.DeleteThoughts(ctx, swept); err != nil {
			s.finishGeneration(seq)
			s.setErr(err)
			return
		}
	}

	result, err := s.ai.GenerateThoughts(genCtx, ai.GenerateRequest{
		Context:      contextTexts,
		GlobalPrompt: cfg.GlobalPrompt,
		ThreadPrompt: threadPrompt,
		Model:        cfg.Model,
		Count:        count,
	})

	if err != nil {
		if genCtx.Err() != nil {
			// Cancelled: the flag was already cleared by Cancel and no
			// error is surfaced.
			s.finishGeneration(seq)
			return
		}
		s.finishGeneration(seq)
		s.setErr(err)
		return
	}

	s.mu.Lock()
	if s.genSeq != seq {
		// Cancel raced the provider's reply; discard the batch entirely.
		s.mu.Unlock()
		return
	}
	s.generating = false
	s.cancelGen = nil

	t = s.threadByID(threadID)
	if t == nil {
		// Thread deleted mid-flight; nothing to append to.
		s.mu.Unlock()
		return
	}

	order := s.maxOrder(threadID)
	batch := make([]*thought.Thought, 0, len(result.Thoughts))
	ts := now()
	for _, text := range result.Thoughts {
		text = thought.TrimText(text)
		if text == "" {
			continue
		}
		id, idErr := newULID()
		if idErr != nil {
			s.mu.Unlock()
			s.setErr(errors.NewInternal(idErr))
			return
		}
		order++
		batch = append(batch, &thought.Thought{
			ID:        id,
			ThreadID:  threadID,
			Author:    thought.AuthorAI,
			Text:      text,
			CreatedAt: ts,
			Order:     order,
		})
	}
	s.thoughts[threadID] = append(s.thoughts[threadID], batch...)
	s.totals[threadID] += len(batch)
	t.Stats.TokensIn += int64(result.TokensIn)
	t.Stats.TokensOut += int64(result.TokensOut)
	t.UpdatedAt = ts
	threadCopy := *t
	s.mu.Unlock()

	if err := s.gw.SaveThoughts(ctx, batch); err != nil {
		s.setErr(err)
		return
	}
	if err := s.gw.SaveThread(ctx, &threadCopy); err != nil {
		s.setErr(err)
		return
	}
	if err := s.settings.AddTokenUsage(ctx, result.TokensIn, result.TokensOut); err != nil {
		s.setErr(err)
		return
	}
	s.notify()
}

// finishGeneration returns the machine to Idle unless Cancel got there
// first (seq mismatch).
func (s *Store) finishGeneration(seq uint64) {
	s.mu.Lock()
	if s.genSeq == seq {
		s.generating = false
		s.cancelGen = nil
	}
	s.mu.Unlock()
	s.notify()
}

// Cancel aborts the in-flight generation, immediately clears the generating
// flag, and discards the cancellation handle. Cancelling when idle is a
// no-op.
func (s *Store) Cancel() {
	s.mu.Lock()
	if !s.generating {
		s.mu.Unlock()
		return
	}
	cancel := s.cancelGen
	s.generating = false
	s.cancelGen = nil
	s.genSeq++
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.notify()
}

// GenerateTitle asks the provider for a short title. It only runs while the
// thread still carries the sentinel title, configuration is present, and at
// least one selected thought exists. Best-effort: failures are logged and
// never surfaced.
func (s *Store) GenerateTitle(ctx context.Context, threadID string) {
	cfg := s.settings.Snapshot()

	s.mu.Lock()
	t := s.threadByID(threadID)
	if t == nil || t.Title != thought.SentinelTitle || !cfg.Configured() {
		s.mu.Unlock()
		return
	}
	var selected []string
	for _, th := range s.thoughts[threadID] {
		if th.Selected {
			selected = append(selected, th.Text)
		}
	}
	s.mu.Unlock()
	if len(selected) == 0 {
		return
	}

	title, err := s.ai.GenerateTitle(ctx, ai.TitleRequest{
		Selected: selected,
		Model:    cfg.Model,
	})
	if err != nil {
		log.Printf("title generation failed for thread %s: %v", threadID, err)
		return
	}

	s.mu.Lock()
	t = s.threadByID(threadID)
	if t == nil || t.Title != thought.SentinelTitle {
		s.mu.Unlock()
		return
	}
	t.Title = title
	t.UpdatedAt = now()
	threadCopy := *t
	s.mu.Unlock()

	if err := s.gw.SaveThread(ctx, &threadCopy); err != nil {
		log.Printf("title persistence failed for thread %s: %v", threadID, err)
		return
	}
	s.notify()
}
