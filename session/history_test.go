package session

import (
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func newTestHistory(t *testing.T) *History {
	t.Helper()
	return NewHistory(newTestStore(t), nil)
}

func TestRecord_Prepends(t *testing.T) {
	h := newTestHistory(t)

	for _, p := range []string{"a.b", "a.c", "a.d"} {
		if err := h.Record(p); err != nil {
			t.Fatalf("Record(%q): %v", p, err)
		}
	}

	got := h.Load()
	want := []string{"a.d", "a.c", "a.b"}
	if !equalStrings(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestRecord_Idempotent(t *testing.T) {
	h := newTestHistory(t)

	h.Record("a.b")
	h.Record("a.b")

	if got := h.Load(); len(got) != 1 {
		t.Errorf("recording the same path twice yields %d entries, want 1", len(got))
	}
}

func TestRecord_DuplicateMovesToFront(t *testing.T) {
	h := newTestHistory(t)

	h.Record("a.b")
	h.Record("a.c")
	h.Record("a.b")

	got := h.Load()
	want := []string{"a.b", "a.c"}
	if !equalStrings(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestRecord_EvictsOldest(t *testing.T) {
	h := newTestHistory(t)

	paths := []string{"p.1", "p.2", "p.3", "p.4", "p.5", "p.6"}
	for _, p := range paths {
		h.Record(p)
	}

	got := h.Load()
	if len(got) != MaxHistoryEntries {
		t.Fatalf("Load() has %d entries, want %d", len(got), MaxHistoryEntries)
	}
	if got[0] != "p.6" {
		t.Errorf("newest entry = %q, want p.6", got[0])
	}
	for _, e := range got {
		if e == "p.1" {
			t.Error("oldest entry was not evicted")
		}
	}
}

func TestRecord_RejectsInvalid(t *testing.T) {
	h := newTestHistory(t)

	h.Record("")
	h.Record(strings.Repeat("a", maxRecordedPathLen+1))

	if got := h.Load(); len(got) != 0 {
		t.Errorf("invalid paths were recorded: %v", got)
	}
}

func TestLoad_EmptyStore(t *testing.T) {
	h := newTestHistory(t)
	if got := h.Load(); len(got) != 0 {
		t.Errorf("Load() on empty store = %v, want empty", got)
	}
}

func TestLoad_SurvivesReopen(t *testing.T) {
	store := newTestStore(t)

	NewHistory(store, nil).Record("a.b")

	// A fresh History over the same store sees the persisted entries.
	got := NewHistory(store, nil).Load()
	if !equalStrings(got, []string{"a.b"}) {
		t.Errorf("Load() = %v, want [a.b]", got)
	}
}

func TestLoad_CorruptDiscardsEverything(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"non-string element", `["a.b", 42, "a.c"]`},
		{"wrong container", `{"0": "a.b"}`},
		{"bare string", `"a.b"`},
		{"empty entry", `["a.b", ""]`},
		{"oversized entry", `["` + strings.Repeat("a", 1000) + `"]`},
		{"not json", `{{{`},
		{"null element", `["a.b", null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if err := store.Set("history", tt.raw); err != nil {
				t.Fatalf("seed: %v", err)
			}

			h := NewHistory(store, nil)
			if got := h.Load(); got != nil {
				t.Errorf("Load() = %v, want full discard", got)
			}

			// Fail-closed discard removes the persisted bytes too.
			if _, ok, _ := store.Get("history"); ok {
				t.Error("corrupt history left in the store")
			}
		})
	}
}

func TestLoad_ValidPersisted(t *testing.T) {
	store := newTestStore(t)
	store.Set("history", `["a.b", "a.c"]`)

	got := NewHistory(store, nil).Load()
	if !equalStrings(got, []string{"a.b", "a.c"}) {
		t.Errorf("Load() = %v", got)
	}
}

func TestLoad_TruncatesTamperedLength(t *testing.T) {
	store := newTestStore(t)
	store.Set("history", `["p.1","p.2","p.3","p.4","p.5","p.6","p.7"]`)

	got := NewHistory(store, nil).Load()
	if len(got) != MaxHistoryEntries {
		t.Errorf("Load() has %d entries, want %d", len(got), MaxHistoryEntries)
	}
}

func TestClear(t *testing.T) {
	h := newTestHistory(t)

	h.Record("a.b")
	if err := h.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := h.Load(); len(got) != 0 {
		t.Errorf("Load() after Clear = %v, want empty", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecord_ThousandCharPathWipesOnLoad(t *testing.T) {
	// Record accepts a path of exactly 1000 characters, but the load
	// side only accepts 1-999. The persisted side is deliberately
	// stricter; the whole history is discarded on the next Load. Both
	// limits move together or not at all.
	h := newTestHistory(t)

	if err := h.Record(strings.Repeat("a", 1000)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := h.Load(); got != nil {
		t.Errorf("Load() = %v, want full discard of the 1000-char entry", got)
	}
}
