package statsprint

import (
	"bytes"
	"strings"
	"testing"

	"kvcachesim/internal/backend"
)

func TestFprint_ReportsSavedWhenPhysicalBelowLogical(t *testing.T) {
	var buf bytes.Buffer
	pr := New()
	st := backend.Stats{LogicalTokens: 100, LogicalBytes: 1000, PhysicalBytes: 600}
	if err := pr.Fprint(&buf, "paged", st); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "memory saved") {
		t.Errorf("expected 'memory saved' in output, got: %s", buf.String())
	}
}

func TestFprint_ReportsWasteWhenPhysicalAboveLogical(t *testing.T) {
	var buf bytes.Buffer
	pr := New()
	st := backend.Stats{LogicalTokens: 100, LogicalBytes: 600, PhysicalBytes: 1000}
	if err := pr.Fprint(&buf, "monolithic", st); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "waste") {
		t.Errorf("expected 'waste' in output, got: %s", buf.String())
	}
}

func TestCompare_ComputesRatio(t *testing.T) {
	var buf bytes.Buffer
	pr := New()
	paged := backend.Stats{PhysicalBytes: 500}
	mono := backend.Stats{PhysicalBytes: 1000}
	if err := pr.Compare(&buf, paged, mono); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0.5000") {
		t.Errorf("expected ratio 0.5000 in output, got: %s", buf.String())
	}
}
