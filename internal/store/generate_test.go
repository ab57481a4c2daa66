package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

func TestGenerate_AppendsUnselectedCandidates(t *testing.T) {
	h := newHarness(t, &fakeAI{
		batches:   [][]string{{"idea one", "idea two", "idea three"}},
		tokensIn:  120,
		tokensOut: 45,
	}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "starting point")
	h.store.Generate(ctx, created.ID, false)
	requireNoErr(t, h.store)

	stream := h.store.VisibleStream(created.ID)
	if len(stream) != 4 {
		t.Fatalf("stream length = %d, want 4", len(stream))
	}
	for i, th := range stream[1:] {
		if th.Author != thought.AuthorAI {
			t.Errorf("candidate %d Author = %q, want ai", i, th.Author)
		}
		if th.Selected {
			t.Errorf("candidate %d born selected", i)
		}
		if th.Order != int64(i+1) {
			t.Errorf("candidate %d Order = %d, want %d", i, th.Order, i+1)
		}
	}
	if h.store.IsGenerating() {
		t.Error("IsGenerating = true after completion")
	}

	// Token usage lands on the thread and on the global counters.
	got, _ := h.store.Thread(created.ID)
	if got.Stats.TokensIn != 120 || got.Stats.TokensOut != 45 {
		t.Errorf("thread stats = %+v, want 120/45", got.Stats)
	}
	snap := h.settings.Snapshot()
	if snap.TotalTokensIn != 120 || snap.TotalTokensOut != 45 {
		t.Errorf("global totals = %d/%d, want 120/45", snap.TotalTokensIn, snap.TotalTokensOut)
	}

	// Candidates reached the gateway.
	h.store.LoadForThread(ctx, created.ID)
	if got := len(h.store.VisibleStream(created.ID)); got != 4 {
		t.Errorf("persisted stream length = %d, want 4", got)
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	h := newHarness(t, &fakeAI{batches: [][]string{{"x"}}}, false)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.Generate(ctx, created.ID, false)

	if !errors.Is(h.store.Err(), errors.ErrConfigMissing) {
		t.Errorf("Err = %v, want CONFIG_MISSING", h.store.Err())
	}
	if got := len(h.store.VisibleStream(created.ID)); got != 0 {
		t.Errorf("stream length = %d, want 0", got)
	}
	if h.ai.callCount() != 0 {
		t.Error("provider called despite missing configuration")
	}
}

func TestGenerate_ProviderFailure(t *testing.T) {
	h := newHarness(t, &fakeAI{err: errors.NewProvider(fmt.Errorf("boom"))}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed")
	h.store.ClearErr()
	h.store.Generate(ctx, created.ID, false)

	if !errors.Is(h.store.Err(), errors.ErrProvider) {
		t.Errorf("Err = %v, want PROVIDER", h.store.Err())
	}
	if h.store.IsGenerating() {
		t.Error("IsGenerating = true after failure")
	}
	// The selected stream is intact.
	if got := len(h.store.VisibleStream(created.ID)); got != 1 {
		t.Errorf("stream length = %d, want 1", got)
	}
}

func TestGenerate_SecondCallIsNoOp(t *testing.T) {
	aiGW := &fakeAI{
		batches: [][]string{{"slow candidate"}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	h := newHarness(t, aiGW, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed")

	done := make(chan struct{})
	go func() {
		h.store.Generate(ctx, created.ID, false)
		close(done)
	}()
	<-aiGW.started

	if !h.store.IsGenerating() {
		t.Error("IsGenerating = false while provider call in flight")
	}
	h.store.Generate(ctx, created.ID, false)
	requireNoErr(t, h.store)

	close(aiGW.release)
	<-done

	if aiGW.callCount() != 1 {
		t.Errorf("provider calls = %d, want 1", aiGW.callCount())
	}
	if got := len(h.store.VisibleStream(created.ID)); got != 2 {
		t.Errorf("stream length = %d, want 2", got)
	}
}

func TestCancel_DiscardsGeneration(t *testing.T) {
	aiGW := &fakeAI{
		batches: [][]string{{"never lands"}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	h := newHarness(t, aiGW, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed")

	done := make(chan struct{})
	go func() {
		h.store.Generate(ctx, created.ID, false)
		close(done)
	}()
	<-aiGW.started

	h.store.Cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return after Cancel")
	}

	if h.store.IsGenerating() {
		t.Error("IsGenerating = true after Cancel")
	}
	requireNoErr(t, h.store)
	if got := len(h.store.VisibleStream(created.ID)); got != 1 {
		t.Errorf("stream length = %d, want 1 (cancelled batch must not land)", got)
	}

	// Nothing was persisted either.
	h.store.LoadForThread(ctx, created.ID)
	if got := len(h.store.VisibleStream(created.ID)); got != 1 {
		t.Errorf("persisted stream length = %d, want 1", got)
	}
}

func TestCancel_WhenIdleIsNoOp(t *testing.T) {
	h := newHarness(t, &fakeAI{}, true)
	h.store.Cancel()
	requireNoErr(t, h.store)
	if h.store.IsGenerating() {
		t.Error("IsGenerating = true after idle Cancel")
	}
}

func TestGenerate_RegenerateReplacesCandidates(t *testing.T) {
	h := newHarness(t, &fakeAI{
		batches: [][]string{
			{"first batch a", "first batch b"},
			{"second batch a", "second batch b"},
		},
	}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed")
	h.store.Generate(ctx, created.ID, false)
	requireNoErr(t, h.store)

	h.store.Generate(ctx, created.ID, true)
	requireNoErr(t, h.store)

	stream := h.store.VisibleStream(created.ID)
	if len(stream) != 3 {
		t.Fatalf("stream length = %d, want 3 (seed + fresh batch)", len(stream))
	}
	for _, th := range stream[1:] {
		if th.Text != "second batch a" && th.Text != "second batch b" {
			t.Errorf("old candidate survived regenerate: %q", th.Text)
		}
	}
	// Fresh candidates order after the surviving stream.
	if stream[1].Order != 1 || stream[2].Order != 2 {
		t.Errorf("orders = %d,%d, want 1,2", stream[1].Order, stream[2].Order)
	}
}

func TestGenerate_AppendKeepsExistingCandidates(t *testing.T) {
	h := newHarness(t, &fakeAI{
		batches: [][]string{{"batch one"}, {"batch two"}},
	}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed")
	h.store.Generate(ctx, created.ID, false)
	h.store.Generate(ctx, created.ID, false)
	requireNoErr(t, h.store)

	if got := len(h.store.VisibleStream(created.ID)); got != 3 {
		t.Errorf("stream length = %d, want 3 (both batches kept)", got)
	}
}

func TestGenerateTitle(t *testing.T) {
	h := newHarness(t, &fakeAI{title: "Compounding Habits"}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)

	// No selected thoughts yet: nothing happens.
	h.store.GenerateTitle(ctx, created.ID)
	got, _ := h.store.Thread(created.ID)
	if got.Title != thought.SentinelTitle {
		t.Errorf("Title = %q, want sentinel before any selection", got.Title)
	}

	h.store.AddUserThought(ctx, created.ID, "small habits compound")
	h.store.GenerateTitle(ctx, created.ID)
	requireNoErr(t, h.store)

	got, _ = h.store.Thread(created.ID)
	if got.Title != "Compounding Habits" {
		t.Errorf("Title = %q, want %q", got.Title, "Compounding Habits")
	}

	// A real title is never overwritten.
	h.ai.title = "Something Else"
	h.store.GenerateTitle(ctx, created.ID)
	got, _ = h.store.Thread(created.ID)
	if got.Title != "Compounding Habits" {
		t.Errorf("Title = %q, overwrite of non-sentinel title", got.Title)
	}
}

func TestGenerateTitle_FailureIsSilent(t *testing.T) {
	h := newHarness(t, &fakeAI{titleErr: fmt.Errorf("provider down")}, true)
	ctx := context.Background()

	created := h.store.CreateThread(ctx)
	h.store.AddUserThought(ctx, created.ID, "seed")
	h.store.GenerateTitle(ctx, created.ID)

	requireNoErr(t, h.store)
	got, _ := h.store.Thread(created.ID)
	if got.Title != thought.SentinelTitle {
		t.Errorf("Title = %q, want sentinel after failure", got.Title)
	}
}
