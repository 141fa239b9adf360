package difftree

import "github.com/roach88/pagecloud/internal/ir"

// Accumulator merges a sequence of insert/delete entries into their net
// effect, keyed by entry id.
//
// Pushing an entry whose id is present with the opposite operation cancels
// both. Pushing the same operation twice for one id panics: a well-formed
// diff chain never inserts (or deletes) the same entry twice.
type Accumulator struct {
	entries map[string]ir.DiffEntry
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{entries: make(map[string]ir.DiffEntry)}
}

// Push adds one entry to the accumulated result.
func (a *Accumulator) Push(entry ir.DiffEntry) {
	key := string(entry.EntryID)
	existing, ok := a.entries[key]
	if !ok {
		a.entries[key] = entry
		return
	}
	if existing.Operation == entry.Operation {
		panic("difftree: entry inserted or deleted twice: " + key)
	}
	delete(a.entries, key)
}

// Done drains the accumulator and returns the surviving entries in
// arbitrary order. The accumulator is empty afterwards.
func (a *Accumulator) Done() []ir.DiffEntry {
	out := make([]ir.DiffEntry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e)
	}
	a.entries = make(map[string]ir.DiffEntry)
	return out
}
