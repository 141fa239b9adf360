// Package difftree holds the diff forest of a page and the compacting
// accumulator used to merge chains of diffs into one minimal change set.
//
// Both types are plain data structures with no locking; the owning page
// serializes access.
//
// INVARIANTS:
//   - Every Entry has Depth >= 1. A commit with no entry has depth 0 and is
//     its own origin.
//   - An entry's Origin equals the origin of its diff's base state. It is
//     computed once in Tree.Add and never revisited.
//   - Following base states strictly decreases depth, so the tree is a
//     forest. Callers guarantee this by only adding diffs whose base is
//     already known.
//
// Violations of these invariants are corruption, not user error, and panic.
package difftree
