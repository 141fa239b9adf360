// Package page implements PageCloud, the commit store and diff synthesis
// engine for one page.
//
// Clients upload commits, each optionally carrying a diff against a prior
// page state. The page keeps:
//   - an append-only commit log in upload order (the Token cursor indexes it)
//   - the commits themselves
//   - a diff forest (internal/difftree) recording each diff's origin and depth
//   - opaque objects
//
// On request it synthesizes the diff between a commit and the best of a set
// of candidate bases by walking the forest to the lowest common ancestor and
// cancelling redundant inserts and deletes.
//
// ERROR HANDLING:
//
// User-triggerable failures (unknown commit, unknown base, duplicate commit
// in one upload, missing object) are returned as *Error values and never
// panic. A corrupted diff tree (an entry inserted twice along one chain, a
// diff requested between unconnected states) panics; those conditions are
// unreachable through the public API and must not be recovered.
package page
