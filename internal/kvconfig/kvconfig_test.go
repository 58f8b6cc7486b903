package kvconfig

import (
	"os"
	"path/filepath"
	"testing"

	"kvcachesim/internal/backend"
)

func TestLoadAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := "num_groups: 4\ntokens_per_page: 32\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := backend.Config{NumGroups: 0, TokensPerPage: 16, NumLayers: 4}
	cfg = f.Apply(cfg)

	if cfg.NumGroups != 4 {
		t.Errorf("NumGroups = %d, want 4", cfg.NumGroups)
	}
	if cfg.TokensPerPage != 32 {
		t.Errorf("TokensPerPage = %d, want 32", cfg.TokensPerPage)
	}
	if cfg.NumLayers != 4 {
		t.Errorf("NumLayers = %d, want unchanged 4", cfg.NumLayers)
	}
}

func TestApply_NilFileIsNoOp(t *testing.T) {
	var f *File
	cfg := backend.Config{NumGroups: 7}
	if got := f.Apply(cfg); got.NumGroups != 7 {
		t.Errorf("Apply(nil) changed NumGroups to %d, want 7", got.NumGroups)
	}
}
