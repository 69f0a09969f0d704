package arbor

import (
	"sort"

	"github.com/jward/arbor/internal/store"
)

// DefaultCycleDepth bounds cycle search to short, actionable cycles.
const DefaultCycleDepth = 5

// CircularDependencies finds call cycles among function symbols via DFS
// with an explicit recursion stack. Each distinct cycle is reported once,
// canonicalized by rotating to its smallest location URI. Self-loops are
// not reported; cycles are bounded by maxDepth edges (DefaultCycleDepth
// when maxDepth <= 0).
func (a *Analyzer) CircularDependencies(maxDepth int) ([][]string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultCycleDepth
	}
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	adjacency := make(map[string][]string)
	var nodes []string
	for _, sym := range snap.symbols {
		if sym.Kind != store.KindFunction {
			continue
		}
		nodes = append(nodes, sym.LocationURI)
		seen := make(map[string]bool)
		for _, call := range snap.outbound[sym.LocationURI] {
			to := call.ToLocationURI
			if seen[to] {
				continue
			}
			seen[to] = true
			if target := snap.byURI[to]; target != nil && target.Kind == store.KindFunction {
				adjacency[sym.LocationURI] = append(adjacency[sym.LocationURI], to)
			}
		}
		sort.Strings(adjacency[sym.LocationURI])
	}

	found := make(map[string][]string)
	onStack := make(map[string]int) // URI -> index in path

	var path []string
	var dfs func(uri string)
	dfs = func(uri string) {
		onStack[uri] = len(path)
		path = append(path, uri)
		for _, next := range adjacency[uri] {
			if start, ok := onStack[next]; ok {
				cycle := append([]string(nil), path[start:]...)
				if len(cycle) >= 2 {
					canon := canonicalizeCycle(cycle)
					found[cycleKey(canon)] = canon
				}
				continue
			}
			if len(path) < maxDepth {
				dfs(next)
			}
		}
		path = path[:len(path)-1]
		delete(onStack, uri)
	}

	for _, node := range nodes {
		dfs(node)
	}

	cycles := make([][]string, 0, len(found))
	for _, cycle := range found {
		cycles = append(cycles, cycle)
	}
	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i]) != len(cycles[j]) {
			return len(cycles[i]) < len(cycles[j])
		}
		return cycleKey(cycles[i]) < cycleKey(cycles[j])
	})
	return cycles, nil
}

// canonicalizeCycle rotates a cycle so it starts at its smallest URI,
// making rotations of the same cycle compare equal.
func canonicalizeCycle(cycle []string) []string {
	smallest := 0
	for i, uri := range cycle {
		if uri < cycle[smallest] {
			smallest = i
		}
	}
	canon := make([]string, 0, len(cycle))
	canon = append(canon, cycle[smallest:]...)
	canon = append(canon, cycle[:smallest]...)
	return canon
}

func cycleKey(cycle []string) string {
	key := ""
	for _, uri := range cycle {
		key += uri + "\x00"
	}
	return key
}
