package page

import "github.com/roach88/pagecloud/internal/ir"

// GetDiff synthesizes the smallest available diff leading to commitID.
//
// Candidate base states are the listed bases that share commitID's origin,
// in the order given, followed by the origin itself. Bases with a different
// origin are dropped: no chain of diffs connects them to commitID. The first
// candidate with the fewest changes wins, so on a tie the earliest listed
// base is preferred and the origin is only returned when it is strictly
// smaller than every base.
//
// Returns NOT_FOUND if commitID is unknown.
func (p *PageCloud) GetDiff(commitID ir.CommitID, bases []ir.CommitID) (ir.Diff, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.commits[commitID]; !ok {
		return ir.Diff{}, NewUnknownCommitError(commitID)
	}

	target := ir.At(commitID)
	origin := p.diffs.Origin(commitID)

	candidates := make([]ir.PageState, 0, len(bases)+1)
	seen := make(map[ir.PageState]bool, len(bases)+1)
	for _, b := range bases {
		state := ir.At(b)
		if seen[state] || p.diffs.StateOrigin(state) != origin {
			continue
		}
		seen[state] = true
		candidates = append(candidates, state)
	}
	if !seen[origin] {
		candidates = append(candidates, origin)
	}

	var best ir.Diff
	for i, candidate := range candidates {
		changes := p.computeDiff(candidate, target)
		if i == 0 || len(changes) < len(best.Changes) {
			best = ir.Diff{BaseState: candidate, Changes: changes}
		}
	}

	// The tree and the cache own their entries
	best.Changes = ir.CloneEntries(best.Changes)
	p.metrics.diffServed(len(best.Changes))
	return best, nil
}

// computeDiff returns the minimal changes from one state to another, which
// must share an origin. Caller holds p.mu.
func (p *PageCloud) computeDiff(from, to ir.PageState) []ir.DiffEntry {
	key := diffKey{from: from, to: to}
	if p.cache != nil {
		if changes, ok := p.cache.Get(key); ok {
			p.metrics.cacheHit()
			return changes
		}
	}

	changes := p.diffs.Diff(from, to)
	if p.cache != nil {
		p.cache.Add(key, changes)
	}
	return changes
}

// Origin returns the state reached by following diff bases from id. A commit
// uploaded without a diff, or an unknown id, is its own origin.
func (p *PageCloud) Origin(id ir.CommitID) ir.PageState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.diffs.Origin(id)
}

// Depth returns the number of diffs between id and its origin.
func (p *PageCloud) Depth(id ir.CommitID) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	depth, _ := p.diffs.OneStep(ir.At(id))
	return depth
}
