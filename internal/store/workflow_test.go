package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivol/ai-threads/internal/thought"
)

// TestFullWorkflow exercises the complete thread lifecycle:
// create → add → generate → select → regenerate → prune → star → edit →
// reload → delete
func TestFullWorkflow(t *testing.T) {
	aiGW := &fakeAI{
		batches: [][]string{
			{"walk before breakfast", "write three sentences", "call an old friend"},
			{"read for ten minutes", "stretch at your desk", "cook something new",
				"take the stairs", "sleep earlier", "drink more water"},
		},
		tokensIn:  80,
		tokensOut: 30,
		title:     "Small Daily Experiments",
	}
	h := newHarness(t, aiGW, true)
	ctx := context.Background()

	// 1. Create
	created := h.store.CreateThread(ctx)
	requireNoErr(t, h.store)
	require.NotNil(t, created)
	require.Equal(t, thought.SentinelTitle, created.Title)

	// 2. Add the opening thought
	seed := h.store.AddUserThought(ctx, created.ID, "what small habit should I try this week?")
	requireNoErr(t, h.store)
	require.True(t, seed.Selected)
	require.EqualValues(t, 0, seed.Order)

	// 3. Generate candidates
	h.store.Generate(ctx, created.ID, false)
	requireNoErr(t, h.store)
	stream := h.store.VisibleStream(created.ID)
	require.Len(t, stream, 4)
	require.True(t, h.store.HasUnselectedCandidates(created.ID))

	// 4. Select the middle candidate; the one below it is swept
	h.store.ToggleSelected(ctx, stream[2].ID, created.ID)
	requireNoErr(t, h.store)
	stream = h.store.VisibleStream(created.ID)
	require.Len(t, stream, 3)
	require.Equal(t, "write three sentences", stream[1].Text)
	require.Equal(t, 2, h.store.SelectedCount(created.ID))

	// 5. Regenerate: the remaining candidate is replaced by a fresh batch
	h.store.SetGenerationCount(ctx, created.ID, 6)
	h.store.Generate(ctx, created.ID, true)
	requireNoErr(t, h.store)
	stream = h.store.VisibleStream(created.ID)
	require.Len(t, stream, 8)

	// 6. Prune: six unselected candidates collapse to five
	h.store.PruneUnselected(ctx, created.ID)
	requireNoErr(t, h.store)
	require.Equal(t, 7, h.store.ThoughtCount(created.ID))

	// 7. Star and edit the selected candidate
	h.store.ToggleStarred(ctx, stream[1].ID, created.ID)
	h.store.EditThought(ctx, stream[1].ID, created.ID, "write three sentences every morning")
	requireNoErr(t, h.store)
	require.Len(t, h.store.StarredThoughts(), 1)

	// 8. Title generation replaces the sentinel
	h.store.GenerateTitle(ctx, created.ID)
	got, ok := h.store.Thread(created.ID)
	require.True(t, ok)
	require.Equal(t, "Small Daily Experiments", got.Title)

	// 9. Everything survives a cold reload
	h.store.LoadAll(ctx)
	h.store.LoadForThread(ctx, created.ID)
	requireNoErr(t, h.store)
	require.Equal(t, 7, h.store.ThoughtCount(created.ID))
	require.Equal(t, 2, h.store.SelectedCount(created.ID))
	stream = h.store.VisibleStream(created.ID)
	require.Equal(t, "write three sentences every morning", stream[1].Text)
	require.True(t, stream[1].Edited)

	// Token accounting accumulated across both generations.
	require.EqualValues(t, 160, got.Stats.TokensIn)
	require.EqualValues(t, 60, got.Stats.TokensOut)
	snap := h.settings.Snapshot()
	require.EqualValues(t, 160, snap.TotalTokensIn)

	// 10. Delete
	h.store.DeleteThread(ctx, created.ID)
	requireNoErr(t, h.store)
	require.Empty(t, h.store.Threads())
	h.store.LoadAll(ctx)
	require.Empty(t, h.store.Threads())
}
