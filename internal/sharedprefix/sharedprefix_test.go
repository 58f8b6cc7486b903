package sharedprefix

import (
	"testing"

	"kvcachesim/internal/alloc"
)

func newTestAllocator(t *testing.T) *alloc.Allocator {
	t.Helper()
	a, err := alloc.New(64, 64*64)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Destroy)
	return a
}

func TestAttach_BuildsOnceAndReusesHandles(t *testing.T) {
	a := newTestAllocator(t)
	tbl := New(4)

	first := tbl.Attach(a, 0, 16, 64) // 4 pages
	second := tbl.Attach(a, 0, 16, 64)

	if len(first.Pages) != 4 {
		t.Fatalf("len(first.Pages) = %d, want 4", len(first.Pages))
	}
	for i := range first.Pages {
		if first.Pages[i] != second.Pages[i] {
			t.Fatalf("Pages[%d] differ across Attach calls: %v vs %v", i, first.Pages[i], second.Pages[i])
		}
	}
}

func TestAttach_DivergentPrefixTokensAdoptsBuiltValue(t *testing.T) {
	a := newTestAllocator(t)
	tbl := New(1)

	first := tbl.Attach(a, 0, 16, 64)
	second := tbl.Attach(a, 0, 16, 128) // disagrees; should adopt 64

	if second.PrefixTokens != 64 {
		t.Fatalf("second.PrefixTokens = %d, want 64 (adopts first build)", second.PrefixTokens)
	}
	if len(second.Pages) != len(first.Pages) {
		t.Fatalf("second.Pages has different length than first: %d vs %d", len(second.Pages), len(first.Pages))
	}
}

func TestDestroy_ReleasesTableOwnedShares(t *testing.T) {
	a := newTestAllocator(t)
	tbl := New(1)
	tbl.Attach(a, 0, 16, 64) // 4 pages, refcount 1 each (table's own share)

	if got := a.PagesInUse(); got != 4 {
		t.Fatalf("PagesInUse() = %d, want 4", got)
	}
	tbl.Destroy(a)
	if got := a.PagesInUse(); got != 0 {
		t.Fatalf("PagesInUse() after Destroy = %d, want 0", got)
	}
}
