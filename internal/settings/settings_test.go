package settings

import (
	"context"
	"fmt"
	"testing"

	"github.com/fivol/ai-threads/internal/thought"
)

// fakeGateway records saves and serves a canned settings row.
type fakeGateway struct {
	stored  thought.Settings
	saves   int
	failGet bool
}

func (f *fakeGateway) GetSettings(_ context.Context) (*thought.Settings, error) {
	if f.failGet {
		return nil, fmt.Errorf("db closed")
	}
	s := f.stored
	return &s, nil
}

func (f *fakeGateway) SaveSettings(_ context.Context, s *thought.Settings) error {
	f.stored = *s
	f.saves++
	return nil
}

func TestLoadAndSnapshot(t *testing.T) {
	gw := &fakeGateway{stored: thought.Settings{Provider: "openai", Model: "gpt-4o-mini"}}
	st := NewStore(gw)

	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snap := st.Snapshot()
	if snap.Provider != "openai" || snap.Model != "gpt-4o-mini" {
		t.Errorf("Snapshot = %+v", snap)
	}

	// Snapshot is a copy: mutating it must not leak back.
	snap.Model = "changed"
	if st.Snapshot().Model != "gpt-4o-mini" {
		t.Error("Snapshot mutation leaked into store")
	}
}

func TestLoad_GatewayFailure(t *testing.T) {
	st := NewStore(&fakeGateway{failGet: true})
	if err := st.Load(context.Background()); err == nil {
		t.Error("Load should surface gateway failure")
	}
}

func TestUpdate_Persists(t *testing.T) {
	gw := &fakeGateway{}
	st := NewStore(gw)

	err := st.Update(context.Background(), func(s *thought.Settings) {
		s.APIKey = "sk-test"
		s.Model = "gpt-4o"
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if gw.saves != 1 {
		t.Errorf("saves = %d, want 1", gw.saves)
	}
	if gw.stored.APIKey != "sk-test" || gw.stored.Model != "gpt-4o" {
		t.Errorf("stored = %+v", gw.stored)
	}
	snap := st.Snapshot()
	if !snap.Configured() {
		t.Error("Configured() = false after setting key and model")
	}
}

func TestAddTokenUsage_Accumulates(t *testing.T) {
	gw := &fakeGateway{}
	st := NewStore(gw)

	ctx := context.Background()
	if err := st.AddTokenUsage(ctx, 100, 40); err != nil {
		t.Fatalf("AddTokenUsage failed: %v", err)
	}
	if err := st.AddTokenUsage(ctx, 50, 10); err != nil {
		t.Fatalf("AddTokenUsage failed: %v", err)
	}

	snap := st.Snapshot()
	if snap.TotalTokensIn != 150 || snap.TotalTokensOut != 50 {
		t.Errorf("totals = %d/%d, want 150/50", snap.TotalTokensIn, snap.TotalTokensOut)
	}
	if gw.stored.TotalTokensIn != 150 {
		t.Errorf("persisted TotalTokensIn = %d, want 150", gw.stored.TotalTokensIn)
	}
}
