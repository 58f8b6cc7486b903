package statsserver

import (
	"context"
	"testing"

	"kvcachesim/internal/backend"
)

type fakeSource struct {
	id string
	st backend.Stats
}

func (f fakeSource) Stats() backend.Stats { return f.st }
func (f fakeSource) RunID() string        { return f.id }

func TestServer_GetStats(t *testing.T) {
	s := &server{src: fakeSource{id: "run-1", st: backend.Stats{LogicalTokens: 10, LogicalBytes: 100, PhysicalBytes: 80}}}

	resp, err := s.GetStats(context.Background(), &Request{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.RunID != "run-1" {
		t.Errorf("RunID = %q, want %q", resp.RunID, "run-1")
	}
	if resp.PhysicalBytes != 80 {
		t.Errorf("PhysicalBytes = %d, want 80", resp.PhysicalBytes)
	}
}

func TestGetStatsHandler_DecodesAndInvokes(t *testing.T) {
	s := &server{src: fakeSource{id: "run-2", st: backend.Stats{LogicalTokens: 1}}}
	decoded := false
	dec := func(v any) error { decoded = true; return nil }

	out, err := getStatsHandler(s, context.Background(), dec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !decoded {
		t.Error("expected dec to be invoked")
	}
	if out.(*Response).RunID != "run-2" {
		t.Errorf("RunID = %q, want %q", out.(*Response).RunID, "run-2")
	}
}
