package workload

import (
	"context"
	"testing"
	"time"

	"kvcachesim/internal/backend"
)

func testConfig() backend.Config {
	return backend.Config{
		NumLayers: 2, NumHeads: 4, HeadDim: 32,
		TokensPerPage:    8,
		ArenaBytes:       1 << 20,
		MaxContextTokens: 256,
		NumSequences:     16,
		NumGroups:        2,
		MaxPromptExtra:   32,
		MinGenTokens:     8,
		MaxGenTokens:     16,
	}
}

func TestGenerate_GroupRecordsAlwaysCarryPrefixTokens(t *testing.T) {
	cfg := testConfig()
	work := Generate(cfg, 42)
	if len(work) != cfg.NumSequences {
		t.Fatalf("len(work) = %d, want %d", len(work), cfg.NumSequences)
	}
	for i, w := range work {
		if w.SharedPromptID < 0 {
			t.Fatalf("work[%d].SharedPromptID = %d, want a non-negative group id when NumGroups > 0", i, w.SharedPromptID)
		}
		if w.SharedPromptTokens <= 0 {
			t.Fatalf("work[%d].SharedPromptTokens = %d, want > 0 whenever a group id is set", i, w.SharedPromptTokens)
		}
	}
}

func TestRun_DrivesBackendToCompletion(t *testing.T) {
	cfg := testConfig()
	p, err := backend.NewPaged(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	work := Generate(cfg, 7)
	if err := Run(context.Background(), p, work, Options{}); err != nil {
		t.Fatal(err)
	}

	st := p.Stats()
	if st.LogicalTokens == 0 {
		t.Fatal("expected LogicalTokens > 0 after running the workload")
	}
}

func TestRun_SurfacesCapacityFaultAsError(t *testing.T) {
	cfg := testConfig()
	cfg.ArenaBytes = int(cfg.PageBytes()) // one page total, guaranteed exhaustion
	cfg.NumGroups = 0
	p, err := backend.NewPaged(cfg)
	if err != nil {
		t.Fatal(err)
	}

	work := Generate(cfg, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Run(ctx, p, work, Options{}); err == nil {
		t.Fatal("expected Run to surface the allocator's out-of-pages panic as an error")
	}
}
