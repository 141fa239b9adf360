package difftree

import (
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// Entry records the diff a commit was uploaded with, plus the commit's
// position in the forest.
type Entry struct {
	Depth  int
	Origin ir.PageState
	Diff   ir.Diff
}

// Tree maps commit ids to their diff entries.
type Tree struct {
	entries map[ir.CommitID]Entry
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{entries: make(map[ir.CommitID]Entry)}
}

// Add records diff as the diff of commitID and computes its origin and depth
// from the diff's base state:
//   - EmptyPage base: origin EmptyPage, depth 1
//   - base with an entry: the base's origin, base depth + 1
//   - base without an entry: the base itself, depth 1
//
// Add panics if commitID already has an entry.
func (t *Tree) Add(commitID ir.CommitID, diff ir.Diff) Entry {
	if _, ok := t.entries[commitID]; ok {
		panic(fmt.Sprintf("difftree: diff for commit %s added twice", commitID))
	}

	origin := diff.BaseState
	depth := 1
	if diff.BaseState.AtCommit {
		if base, ok := t.entries[diff.BaseState.Commit]; ok {
			origin = base.Origin
			depth = base.Depth + 1
		}
	}

	e := Entry{Depth: depth, Origin: origin, Diff: diff}
	t.entries[commitID] = e
	return e
}

// Get returns the entry of commitID, if any.
func (t *Tree) Get(commitID ir.CommitID) (Entry, bool) {
	e, ok := t.entries[commitID]
	return e, ok
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// OneStep returns the depth of state and the diff leading to it. Depth is 0
// and the diff nil for EmptyPage and for commits without an entry.
func (t *Tree) OneStep(state ir.PageState) (int, *ir.Diff) {
	if !state.AtCommit {
		return 0, nil
	}
	e, ok := t.entries[state.Commit]
	if !ok {
		return 0, nil
	}
	return e.Depth, &e.Diff
}

// Origin returns the state reached by following diff bases from commitID.
// A commit without an entry is its own origin.
func (t *Tree) Origin(commitID ir.CommitID) ir.PageState {
	e, ok := t.entries[commitID]
	if !ok {
		return ir.At(commitID)
	}
	return e.Origin
}

// StateOrigin is Origin for an arbitrary page state.
func (t *Tree) StateOrigin(state ir.PageState) ir.PageState {
	if !state.AtCommit {
		return ir.EmptyPage
	}
	return t.Origin(state.Commit)
}

// Diff computes the minimal change set transforming from into to.
//
// Both states must share an origin. The walk advances whichever side is
// deeper (ties advance to) until the two meet at their lowest common
// ancestor, then undoes from's history and replays to's history through an
// Accumulator. If both sides reach depth 0 without meeting, the states were
// not connected and Diff panics.
func (t *Tree) Diff(from, to ir.PageState) []ir.DiffEntry {
	var undo, redo []*ir.Diff

	left, right := from, to
	for left != right {
		leftDepth, leftDiff := t.OneStep(left)
		rightDepth, rightDiff := t.OneStep(right)
		if leftDepth == 0 && rightDepth == 0 {
			panic(fmt.Sprintf("difftree: states %s and %s have different origins", from, to))
		}
		if leftDepth <= rightDepth {
			redo = append(redo, rightDiff)
			right = rightDiff.BaseState
		} else {
			undo = append(undo, leftDiff)
			left = leftDiff.BaseState
		}
	}

	acc := NewAccumulator()
	for _, d := range undo {
		for _, e := range d.Changes {
			acc.Push(e.Invert())
		}
	}
	for i := len(redo) - 1; i >= 0; i-- {
		for _, e := range redo[i].Changes {
			acc.Push(e)
		}
	}
	return acc.Done()
}
