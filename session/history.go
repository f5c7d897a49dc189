package session

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/querypath/playground/errors"
)

const (
	historyKey = "history"

	// MaxHistoryEntries bounds the history; inserting past it evicts the
	// oldest entry.
	MaxHistoryEntries = 5

	// Record rejects paths longer than this; Load accepts persisted
	// entries strictly shorter. The persisted side is stricter because
	// the store is attacker-writable.
	maxRecordedPathLen = 1000
)

// History is the bounded, deduplicated list of previously executed
// paths, most recent first. It survives restarts through the session
// store; corrupt persisted data is discarded whole, never repaired.
type History struct {
	store *Store
	log   *zap.Logger
}

// NewHistory creates a history over the given store.
func NewHistory(store *Store, log *zap.Logger) *History {
	if log == nil {
		log = zap.NewNop()
	}
	return &History{store: store, log: log}
}

// Record persists path at the front of the history. Empty or oversized
// paths are ignored. Re-recording an existing path moves it to the
// front rather than duplicating it; the list is truncated to
// MaxHistoryEntries.
func (h *History) Record(path string) error {
	if path == "" || len(path) > maxRecordedPathLen {
		return nil
	}

	entries := h.Load()

	updated := make([]string, 0, MaxHistoryEntries)
	updated = append(updated, path)
	for _, e := range entries {
		if e == path {
			continue
		}
		updated = append(updated, e)
		if len(updated) == MaxHistoryEntries {
			break
		}
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	return h.store.Set(historyKey, string(data))
}

// Load reads the persisted history. The result is accepted only if it
// decodes to a JSON array of strings each 1-999 characters long; any
// other shape discards the entire history (fail-closed, no partial
// recovery).
func (h *History) Load() []string {
	raw, ok, err := h.store.Get(historyKey)
	if err != nil {
		h.log.Warn("history read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	entries, valid := decodeHistory(raw)
	if !valid {
		h.log.Warn("discarding corrupt history",
			zap.Error(errors.HistoryCorrupt("persisted bytes failed validation")))
		if err := h.store.Delete(historyKey); err != nil {
			h.log.Warn("history delete failed", zap.Error(err))
		}
		return nil
	}
	return entries
}

// Clear removes the persisted history. Explicit user action only.
func (h *History) Clear() error {
	return h.store.Delete(historyKey)
}

// decodeHistory validates the persisted shape strictly: a JSON array
// whose elements are all strings of 1-999 characters. One bad element
// invalidates the whole list.
func decodeHistory(raw string) ([]string, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, false
	}

	entries := make([]string, 0, len(elements))
	for _, el := range elements {
		var s string
		if err := json.Unmarshal(el, &s); err != nil {
			return nil, false
		}
		if len(s) < 1 || len(s) > 999 {
			return nil, false
		}
		entries = append(entries, s)
	}

	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}
	return entries, true
}
