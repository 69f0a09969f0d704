package arbor

import (
	"fmt"

	"github.com/jward/arbor/internal/detect"
	"github.com/jward/arbor/internal/store"
)

// Resolver turns raw call tuples into validated CallRelationship edges
// using the full symbol table. Resolution is name-only: a callee name maps
// to the first symbol registered under it, in symbol-table order. The
// policy is deliberately scope-blind — previously persisted graphs depend
// on it being reproduced exactly.
type Resolver struct {
	byName map[string][]*store.Symbol
}

// ResolveStats summarizes one resolution pass. AmbiguousNames counts
// distinct callee names that matched more than one symbol; the first-match
// pick is surfaced here as a metric rather than silently trusted.
type ResolveStats struct {
	RawCalls       int
	Resolved       int
	Skipped        int
	AmbiguousNames int
}

// NewResolver builds the name index from symbols in registration order.
func NewResolver(symbols []*store.Symbol) *Resolver {
	byName := make(map[string][]*store.Symbol, len(symbols))
	for _, sym := range symbols {
		byName[sym.Name] = append(byName[sym.Name], sym)
	}
	return &Resolver{byName: byName}
}

// Candidates returns the symbols registered under a name, in registration
// order. Two symbols sharing a name both match; callers wanting the
// resolution pick take the first.
func (r *Resolver) Candidates(name string) []*store.Symbol {
	return r.byName[name]
}

// Resolve maps each raw tuple to an edge. A callee name with no matching
// symbol is skipped silently — resolution is best-effort by design, and
// not-found is not an error. Validation failures on constructed edges are
// surfaced, never dropped.
func (r *Resolver) Resolve(calls []detect.RawCall) ([]*store.CallRelationship, ResolveStats, error) {
	stats := ResolveStats{RawCalls: len(calls)}
	ambiguous := make(map[string]bool)

	var edges []*store.CallRelationship
	for _, call := range calls {
		candidates := r.byName[call.CalleeName]
		if len(candidates) == 0 {
			stats.Skipped++
			continue
		}
		if len(candidates) > 1 {
			ambiguous[call.CalleeName] = true
		}
		target := candidates[0]
		edge, err := store.NewCallRelationship(call.FromLocationURI, target.LocationURI, call.Line)
		if err != nil {
			return nil, stats, fmt.Errorf("resolve %s -> %s: %w", call.FromLocationURI, call.CalleeName, err)
		}
		edges = append(edges, edge)
		stats.Resolved++
	}
	stats.AmbiguousNames = len(ambiguous)
	return edges, stats, nil
}
