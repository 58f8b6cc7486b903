package history

import (
	"path/filepath"
	"testing"

	"kvcachesim/internal/backend"
)

func TestStore_RecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := backend.Config{NumSequences: 4, NumGroups: 1, TokensPerPage: 16}
	st := backend.Stats{LogicalTokens: 100, LogicalBytes: 1000, PhysicalBytes: 700}

	if err := s.Record("run-a", "paged", cfg, st); err != nil {
		t.Fatal(err)
	}
	if err := s.Record("run-b", "monolithic", cfg, st); err != nil {
		t.Fatal(err)
	}

	rows, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
}
