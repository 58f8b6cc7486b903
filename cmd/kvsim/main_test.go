package main

import "testing"

func TestConfigFromFlags_MatchesDefaults(t *testing.T) {
	cfg := configFromFlags()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default flag configuration failed validation: %v", err)
	}
	if cfg.NumLayers != 4 || cfg.NumHeads != 8 || cfg.HeadDim != 64 {
		t.Fatalf("unexpected default model dims: %+v", cfg)
	}
	if got, want := cfg.BytesPerToken(), int64(8192); got != want {
		t.Fatalf("BytesPerToken() = %d, want %d", got, want)
	}
}
