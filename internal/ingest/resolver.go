package ingest

import "github.com/AltimetrikAI/propelus-taxonomy/pkg/models"

// Resolver maintains the rolling "last seen node at each level" state
// (§4.4, C4) for exactly one load's worker. It is never shared across
// loads or sharded across rows — the algorithm's sequential dependency
// is the reason loads are single-threaded (§5).
type Resolver struct {
	lastSeen map[int]int64
}

// NewResolver returns a Resolver with an empty rolling map, as at load
// start (§4.4: "The rolling map is reset on load start").
func NewResolver() *Resolver {
	return &Resolver{lastSeen: make(map[int]int64)}
}

// Reset clears all rolling state, as required between independent loads
// sharing a Resolver instance.
func (r *Resolver) Reset() {
	r.lastSeen = make(map[int]int64)
}

// ParentFor determines the parent for a new node at level, per §4.4 step 1-2.
// hasParent is false only for a legitimate root (level == 0 with no prior
// state); a non-root row with no realized ancestor is ErrRootLevelMismatch.
func (r *Resolver) ParentFor(level int) (parentID int64, parentLevel int, hasParent bool, err error) {
	best := -1
	for lvl := range r.lastSeen {
		if lvl < level && lvl > best {
			best = lvl
		}
	}
	if best == -1 {
		if level != 0 {
			return 0, 0, false, models.ErrRootLevelMismatch
		}
		return 0, 0, false, nil
	}
	return r.lastSeen[best], best, true, nil
}

// Commit records nodeID as the most recently seen node at level and
// truncates every stale entry above it (§4.4 step 4). Only the first
// sibling of a multi-valued row is ever committed (§4.4 step 5) — callers
// must pass that sibling's node id, not later ones.
func (r *Resolver) Commit(level int, nodeID int64) {
	r.lastSeen[level] = nodeID
	for lvl := range r.lastSeen {
		if lvl > level {
			delete(r.lastSeen, lvl)
		}
	}
}

// LastSeen returns the node id recorded at level, if any — exposed for
// tests.
func (r *Resolver) LastSeen(level int) (int64, bool) {
	id, ok := r.lastSeen[level]
	return id, ok
}
