package store

import (
	"context"
	"testing"

	"github.com/fivol/ai-threads/internal/thought"
)

// seedCandidates creates a thread with one selected user thought and a batch
// of AI candidates produced through a scripted generation.
func seedCandidates(t *testing.T, h *testHarness, texts []string) string {
	t.Helper()
	ctx := context.Background()

	h.ai.mu.Lock()
	h.ai.batches = [][]string{texts}
	h.ai.mu.Unlock()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed thought")
	h.store.SetGenerationCount(ctx, created.ID, 10)
	h.store.Generate(ctx, created.ID, false)
	requireNoErr(t, h.store)
	return created.ID
}

func TestAddUserThought_OrderAndSelection(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)

	first := h.store.AddUserThought(ctx, created.ID, "  first  ")
	second := h.store.AddUserThought(ctx, created.ID, "second")
	requireNoErr(t, h.store)

	if first == nil || second == nil {
		t.Fatal("AddUserThought returned nil")
	}
	if first.Text != "first" {
		t.Errorf("Text = %q, want trimmed %q", first.Text, "first")
	}
	if first.Author != thought.AuthorUser || !first.Selected {
		t.Errorf("user thought should be selected at birth: %+v", first)
	}
	if first.Order != 0 || second.Order != 1 {
		t.Errorf("orders = %d,%d, want 0,1", first.Order, second.Order)
	}
	if h.store.ThoughtCount(created.ID) != 2 || h.store.SelectedCount(created.ID) != 2 {
		t.Errorf("counters = %d/%d, want 2/2",
			h.store.ThoughtCount(created.ID), h.store.SelectedCount(created.ID))
	}

	// Empty after trim and absent thread are both no-ops.
	if got := h.store.AddUserThought(ctx, created.ID, "   "); got != nil {
		t.Errorf("blank text = %+v, want nil", got)
	}
	if got := h.store.AddUserThought(ctx, "missing", "hello"); got != nil {
		t.Errorf("absent thread = %+v, want nil", got)
	}
	requireNoErr(t, h.store)
}

func TestToggleSelected_SweepsSkippedCandidates(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()
	threadID := seedCandidates(t, h, []string{"cand one", "cand two", "cand three"})

	stream := h.store.VisibleStream(threadID)
	if len(stream) != 4 {
		t.Fatalf("stream length = %d, want 4", len(stream))
	}

	// Selecting the last candidate discards the two scrolled past.
	last := stream[3]
	h.store.ToggleSelected(ctx, last.ID, threadID)
	requireNoErr(t, h.store)

	stream = h.store.VisibleStream(threadID)
	if len(stream) != 2 {
		t.Fatalf("stream length = %d after sweep, want 2", len(stream))
	}
	if stream[0].Text != "seed thought" || stream[1].ID != last.ID {
		t.Errorf("unexpected survivors: %+v", stream)
	}
	if !stream[1].Selected {
		t.Error("selected candidate lost its flag")
	}
	if h.store.ThoughtCount(threadID) != 2 || h.store.SelectedCount(threadID) != 2 {
		t.Errorf("counters = %d/%d, want 2/2",
			h.store.ThoughtCount(threadID), h.store.SelectedCount(threadID))
	}

	// The sweep is persisted.
	h.store.LoadForThread(ctx, threadID)
	requireNoErr(t, h.store)
	if got := len(h.store.VisibleStream(threadID)); got != 2 {
		t.Errorf("persisted stream length = %d, want 2", got)
	}
}

func TestToggleSelected_DeselectDoesNotSweep(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()
	threadID := seedCandidates(t, h, []string{"a", "b", "c"})

	stream := h.store.VisibleStream(threadID)
	user := stream[0]

	h.store.ToggleSelected(ctx, user.ID, threadID)
	requireNoErr(t, h.store)

	if got := len(h.store.VisibleStream(threadID)); got != 4 {
		t.Errorf("stream length = %d after deselect, want 4", got)
	}
	if h.store.SelectedCount(threadID) != 0 {
		t.Errorf("SelectedCount = %d, want 0", h.store.SelectedCount(threadID))
	}
}

func TestToggleSelected_UserThoughtNoSweep(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()
	threadID := seedCandidates(t, h, []string{"a", "b"})

	stream := h.store.VisibleStream(threadID)
	user := stream[0]

	// Deselect then reselect the user thought: candidates must survive,
	// the cascade applies to AI selections only.
	h.store.ToggleSelected(ctx, user.ID, threadID)
	h.store.ToggleSelected(ctx, user.ID, threadID)
	requireNoErr(t, h.store)

	if got := len(h.store.VisibleStream(threadID)); got != 3 {
		t.Errorf("stream length = %d, want 3", got)
	}
}

func TestToggleStarred(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	th := h.store.AddUserThought(ctx, created.ID, "shiny")
	requireNoErr(t, h.store)

	h.store.ToggleStarred(ctx, th.ID, created.ID)
	requireNoErr(t, h.store)

	starred := h.store.StarredThoughts()
	if len(starred) != 1 || starred[0].ID != th.ID {
		t.Errorf("StarredThoughts = %+v, want the toggled thought", starred)
	}

	h.store.ToggleStarred(ctx, th.ID, created.ID)
	requireNoErr(t, h.store)
	if got := h.store.StarredThoughts(); len(got) != 0 {
		t.Errorf("StarredThoughts = %+v after unstar, want empty", got)
	}
}

func TestEditThought(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	th := h.store.AddUserThought(ctx, created.ID, "rough draft")
	requireNoErr(t, h.store)

	h.store.EditThought(ctx, th.ID, created.ID, "  polished  ")
	requireNoErr(t, h.store)

	stream := h.store.VisibleStream(created.ID)
	if stream[0].Text != "polished" {
		t.Errorf("Text = %q, want %q", stream[0].Text, "polished")
	}
	if !stream[0].Edited {
		t.Error("Edited flag not set")
	}
	if stream[0].Order != th.Order {
		t.Error("edit must not change order")
	}

	// Blank edit is a no-op.
	h.store.EditThought(ctx, th.ID, created.ID, "   ")
	if got := h.store.VisibleStream(created.ID)[0].Text; got != "polished" {
		t.Errorf("Text = %q after blank edit, want unchanged", got)
	}
}

func TestDeleteThought(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	first := h.store.AddUserThought(ctx, created.ID, "one")
	h.store.AddUserThought(ctx, created.ID, "two")
	requireNoErr(t, h.store)

	h.store.DeleteThought(ctx, first.ID, created.ID)
	requireNoErr(t, h.store)

	stream := h.store.VisibleStream(created.ID)
	if len(stream) != 1 || stream[0].Text != "two" {
		t.Errorf("stream = %+v, want just %q", stream, "two")
	}
	if h.store.ThoughtCount(created.ID) != 1 || h.store.SelectedCount(created.ID) != 1 {
		t.Errorf("counters = %d/%d, want 1/1",
			h.store.ThoughtCount(created.ID), h.store.SelectedCount(created.ID))
	}

	// Order values are never reused after deletion.
	third := h.store.AddUserThought(ctx, created.ID, "three")
	if third.Order != 2 {
		t.Errorf("Order = %d, want 2", third.Order)
	}
}

func TestPruneUnselected_KeepsNewestFive(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()
	threadID := seedCandidates(t, h, []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"})

	if got := h.store.ThoughtCount(threadID); got != 9 {
		t.Fatalf("ThoughtCount = %d, want 9", got)
	}

	h.store.PruneUnselected(ctx, threadID)
	requireNoErr(t, h.store)

	stream := h.store.VisibleStream(threadID)
	if len(stream) != 6 {
		t.Fatalf("stream length = %d after prune, want 6", len(stream))
	}
	// The survivors are the user thought plus the five highest orders.
	for _, th := range stream[1:] {
		if th.Order < 4 {
			t.Errorf("candidate with order %d survived, want only the newest five", th.Order)
		}
	}

	// Persisted too.
	h.store.LoadForThread(ctx, threadID)
	if got := len(h.store.VisibleStream(threadID)); got != 6 {
		t.Errorf("persisted stream length = %d, want 6", got)
	}

	// At or below the cap, prune is a no-op.
	h.store.PruneUnselected(ctx, threadID)
	if got := len(h.store.VisibleStream(threadID)); got != 6 {
		t.Errorf("stream length = %d after second prune, want 6", got)
	}
}

func TestPruneUnselected_IgnoresSelectedAndUser(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()
	threadID := seedCandidates(t, h, []string{"c1", "c2", "c3", "c4", "c5", "c6"})

	// Select the newest candidate first; it must never be pruned. Selecting
	// it sweeps the five below it, so regenerate a fresh batch after.
	stream := h.store.VisibleStream(threadID)
	h.store.ToggleSelected(ctx, stream[len(stream)-1].ID, threadID)
	h.store.Generate(ctx, threadID, false)
	requireNoErr(t, h.store)

	selectedBefore := h.store.SelectedCount(threadID)
	h.store.PruneUnselected(ctx, threadID)
	requireNoErr(t, h.store)

	if got := h.store.SelectedCount(threadID); got != selectedBefore {
		t.Errorf("SelectedCount changed across prune: %d -> %d", selectedBefore, got)
	}
	for _, th := range h.store.SelectedThoughts(threadID) {
		if !th.Selected {
			t.Errorf("unselected thought in selected view: %+v", th)
		}
	}
}

func TestHasUnselectedCandidates(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "only user content")
	if h.store.HasUnselectedCandidates(created.ID) {
		t.Error("HasUnselectedCandidates = true with no candidates")
	}

	threadID := seedCandidates(t, h, []string{"a"})
	if !h.store.HasUnselectedCandidates(threadID) {
		t.Error("HasUnselectedCandidates = false with a fresh candidate")
	}
}

func TestCounters_MatchRecount(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	ctx := context.Background()
	threadID := seedCandidates(t, h, []string{"a", "b", "c", "d"})

	stream := h.store.VisibleStream(threadID)
	h.store.ToggleSelected(ctx, stream[2].ID, threadID)
	h.store.AddUserThought(ctx, threadID, "another")
	h.store.PruneUnselected(ctx, threadID)
	requireNoErr(t, h.store)

	stream = h.store.VisibleStream(threadID)
	selected := 0
	for _, th := range stream {
		if th.Selected {
			selected++
		}
	}
	if h.store.ThoughtCount(threadID) != len(stream) {
		t.Errorf("ThoughtCount = %d, recount = %d", h.store.ThoughtCount(threadID), len(stream))
	}
	if h.store.SelectedCount(threadID) != selected {
		t.Errorf("SelectedCount = %d, recount = %d", h.store.SelectedCount(threadID), selected)
	}

	// And both agree with the gateway after a cold reload.
	h.store.LoadAll(ctx)
	h.store.LoadForThread(ctx, threadID)
	requireNoErr(t, h.store)
	if h.store.ThoughtCount(threadID) != len(stream) || h.store.SelectedCount(threadID) != selected {
		t.Errorf("reloaded counters = %d/%d, want %d/%d",
			h.store.ThoughtCount(threadID), h.store.SelectedCount(threadID), len(stream), selected)
	}
}
