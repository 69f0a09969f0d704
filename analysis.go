package arbor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jward/arbor/internal/store"
)

// Policy controls which zero-inbound functions are excluded from dead code
// reporting. Names matching EntryPoints exactly, or carrying a TestPrefixes
// or InternalPrefixes prefix, are never reported dead.
type Policy struct {
	EntryPoints      []string
	TestPrefixes     []string
	InternalPrefixes []string
}

// DefaultPolicy returns the standard exclusion policy.
func DefaultPolicy() Policy {
	return Policy{
		EntryPoints:      []string{"main"},
		TestPrefixes:     []string{"test_"},
		InternalPrefixes: []string{"__"},
	}
}

func (p Policy) excludes(name string) bool {
	for _, entry := range p.EntryPoints {
		if name == entry {
			return true
		}
	}
	for _, prefix := range p.TestPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, prefix := range p.InternalPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Analyzer answers structural-quality queries over a populated graph store.
// Each query loads a full snapshot and works over in-memory adjacency maps,
// so nothing issues per-symbol queries in a loop.
type Analyzer struct {
	store store.GraphStore
}

// NewAnalyzer creates an Analyzer over the given store.
func NewAnalyzer(gs store.GraphStore) *Analyzer {
	return &Analyzer{store: gs}
}

// graphSnapshot is one bulk load of the whole graph: every symbol keyed by
// URI plus inbound and outbound adjacency.
type graphSnapshot struct {
	symbols  []*store.Symbol
	byURI    map[string]*store.Symbol
	inbound  map[string][]*store.CallRelationship
	outbound map[string][]*store.CallRelationship
}

func (a *Analyzer) snapshot() (*graphSnapshot, error) {
	symbols, err := a.store.AllSymbols()
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	calls, err := a.store.AllCalls()
	if err != nil {
		return nil, fmt.Errorf("load calls: %w", err)
	}

	snap := &graphSnapshot{
		symbols:  symbols,
		byURI:    make(map[string]*store.Symbol, len(symbols)),
		inbound:  make(map[string][]*store.CallRelationship),
		outbound: make(map[string][]*store.CallRelationship),
	}
	for _, sym := range symbols {
		snap.byURI[sym.LocationURI] = sym
	}
	for _, call := range calls {
		snap.outbound[call.FromLocationURI] = append(snap.outbound[call.FromLocationURI], call)
		snap.inbound[call.ToLocationURI] = append(snap.inbound[call.ToLocationURI], call)
	}
	return snap, nil
}

// DeadCode returns function symbols with no inbound call edges, minus the
// policy's exclusions, ordered by location URI.
func (a *Analyzer) DeadCode(policy Policy) ([]*store.Symbol, error) {
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	var dead []*store.Symbol
	for _, sym := range snap.symbols {
		if sym.Kind != store.KindFunction {
			continue
		}
		if len(snap.inbound[sym.LocationURI]) > 0 {
			continue
		}
		if policy.excludes(sym.Name) {
			continue
		}
		dead = append(dead, sym)
	}
	return dead, nil
}

// CallCount pairs a symbol with its inbound call count.
type CallCount struct {
	Symbol *store.Symbol `json:"symbol"`
	Count  int           `json:"count"`
}

// MostCalled returns function symbols with at least one inbound edge,
// most-called first, ties broken by location URI. limit <= 0 means no
// limit. Classes and methods also receive inbound edges (constructor and
// attribute calls) but are not ranked here.
func (a *Analyzer) MostCalled(limit int) ([]CallCount, error) {
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	var counts []CallCount
	for _, sym := range snap.symbols {
		if sym.Kind != store.KindFunction {
			continue
		}
		if n := len(snap.inbound[sym.LocationURI]); n > 0 {
			counts = append(counts, CallCount{Symbol: sym, Count: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Symbol.LocationURI < counts[j].Symbol.LocationURI
	})
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// FileDeps lists the distinct files a file calls into and the distinct
// files that call into it.
type FileDeps struct {
	File       string   `json:"file"`
	Imports    []string `json:"imports"`
	ImportedBy []string `json:"imported_by"`
}

// FileDependencies partitions call edges by the file component of each
// endpoint and reports the given file's cross-file fan-out and fan-in.
func (a *Analyzer) FileDependencies(file string) (*FileDeps, error) {
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	fileOf := func(uri string) string {
		loc, err := store.ParseLocation(uri)
		if err != nil {
			return ""
		}
		return loc.Path
	}

	imports := make(map[string]bool)
	importedBy := make(map[string]bool)
	for _, sym := range snap.symbols {
		loc, err := sym.Location()
		if err != nil || loc.Path != file {
			continue
		}
		for _, call := range snap.outbound[sym.LocationURI] {
			if target := fileOf(call.ToLocationURI); target != "" && target != file {
				imports[target] = true
			}
		}
		for _, call := range snap.inbound[sym.LocationURI] {
			if source := fileOf(call.FromLocationURI); source != "" && source != file {
				importedBy[source] = true
			}
		}
	}

	deps := &FileDeps{File: file, Imports: sortedKeys(imports), ImportedBy: sortedKeys(importedBy)}
	return deps, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Metrics aggregates structural measurements of the whole graph.
type Metrics struct {
	TotalSymbols     int            `json:"total_symbols"`
	TotalFunctions   int            `json:"total_functions"`
	TotalClasses     int            `json:"total_classes"`
	TotalMethods     int            `json:"total_methods"`
	TotalCalls       int            `json:"total_calls"`
	SymbolsByKind    map[string]int `json:"symbols_by_kind"`
	MostComplex      []CallCount    `json:"most_complex"`
	AvgOutgoingCalls float64        `json:"avg_outgoing_calls"`
	AmbiguousNames   int            `json:"ambiguous_names"`
}

// mostComplexLimit bounds the complexity leaderboard.
const mostComplexLimit = 5

// ComplexityMetrics computes graph-wide totals, the functions with the most
// outgoing calls, and the count of names registered by more than one symbol.
func (a *Analyzer) ComplexityMetrics() (*Metrics, error) {
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	m := &Metrics{SymbolsByKind: make(map[string]int)}
	m.TotalSymbols = len(snap.symbols)

	nameCounts := make(map[string]int)
	var outgoing []CallCount
	totalOutgoing := 0
	for _, sym := range snap.symbols {
		m.SymbolsByKind[sym.Kind]++
		nameCounts[sym.Name]++
		if sym.Kind != store.KindFunction {
			continue
		}
		n := len(snap.outbound[sym.LocationURI])
		totalOutgoing += n
		if n > 0 {
			outgoing = append(outgoing, CallCount{Symbol: sym, Count: n})
		}
	}
	m.TotalFunctions = m.SymbolsByKind[store.KindFunction]
	m.TotalClasses = m.SymbolsByKind[store.KindClass]
	m.TotalMethods = m.SymbolsByKind[store.KindMethod]
	for _, calls := range snap.outbound {
		m.TotalCalls += len(calls)
	}
	for _, count := range nameCounts {
		if count > 1 {
			m.AmbiguousNames++
		}
	}

	sort.Slice(outgoing, func(i, j int) bool {
		if outgoing[i].Count != outgoing[j].Count {
			return outgoing[i].Count > outgoing[j].Count
		}
		return outgoing[i].Symbol.LocationURI < outgoing[j].Symbol.LocationURI
	})
	if len(outgoing) > mostComplexLimit {
		outgoing = outgoing[:mostComplexLimit]
	}
	m.MostComplex = outgoing
	if m.TotalFunctions > 0 {
		m.AvgOutgoingCalls = float64(totalOutgoing) / float64(m.TotalFunctions)
	}
	return m, nil
}

// FunctionsInFile returns all function symbols located in one file,
// ordered by line.
func (a *Analyzer) FunctionsInFile(file string) ([]*store.Symbol, error) {
	symbols, err := a.store.SymbolsByFile(file)
	if err != nil {
		return nil, fmt.Errorf("load file symbols: %w", err)
	}
	var fns []*store.Symbol
	for _, sym := range symbols {
		if sym.Kind == store.KindFunction {
			fns = append(fns, sym)
		}
	}
	return fns, nil
}

// Hierarchy is the one-hop neighborhood of a symbol: who calls it and
// who it calls.
type Hierarchy struct {
	Symbol  *store.Symbol   `json:"symbol"`
	Callers []*store.Symbol `json:"callers"`
	Callees []*store.Symbol `json:"callees"`
}

// CallHierarchy returns the direct callers and callees of the first symbol
// registered under name, or nil if the name is unknown. Callers and callees
// are distinct and ordered by location URI.
func (a *Analyzer) CallHierarchy(name string) (*Hierarchy, error) {
	candidates, err := a.store.SymbolsByName(name)
	if err != nil {
		return nil, fmt.Errorf("load symbols by name: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	target := candidates[0]

	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	collect := func(calls []*store.CallRelationship, endpoint func(*store.CallRelationship) string) []*store.Symbol {
		seen := make(map[string]bool)
		var out []*store.Symbol
		for _, call := range calls {
			uri := endpoint(call)
			if seen[uri] {
				continue
			}
			seen[uri] = true
			if sym := snap.byURI[uri]; sym != nil {
				out = append(out, sym)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].LocationURI < out[j].LocationURI })
		return out
	}

	return &Hierarchy{
		Symbol:  target,
		Callers: collect(snap.inbound[target.LocationURI], func(c *store.CallRelationship) string { return c.FromLocationURI }),
		Callees: collect(snap.outbound[target.LocationURI], func(c *store.CallRelationship) string { return c.ToLocationURI }),
	}, nil
}

// Entry point classifications.
const (
	EntryTypeMain    = "main"
	EntryTypeTest    = "test"
	EntryTypePrivate = "private"
	EntryTypePublic  = "public"
)

// EntryPoint is a function nothing in the graph calls, classified by its
// likely role.
type EntryPoint struct {
	Symbol *store.Symbol `json:"symbol"`
	Type   string        `json:"type"`
}

// EntryPoints returns all zero-inbound functions classified as main, test,
// private, or public, ordered by type then name.
func (a *Analyzer) EntryPoints() ([]EntryPoint, error) {
	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	var entries []EntryPoint
	for _, sym := range snap.symbols {
		if sym.Kind != store.KindFunction || len(snap.inbound[sym.LocationURI]) > 0 {
			continue
		}
		entries = append(entries, EntryPoint{Symbol: sym, Type: classifyEntry(sym.Name)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type < entries[j].Type
		}
		if entries[i].Symbol.Name != entries[j].Symbol.Name {
			return entries[i].Symbol.Name < entries[j].Symbol.Name
		}
		return entries[i].Symbol.LocationURI < entries[j].Symbol.LocationURI
	})
	return entries, nil
}

func classifyEntry(name string) string {
	switch {
	case name == "main":
		return EntryTypeMain
	case strings.HasPrefix(name, "test_"):
		return EntryTypeTest
	case strings.HasPrefix(name, "_"):
		return EntryTypePrivate
	default:
		return EntryTypePublic
	}
}

// QualityReport bundles the standard analyses into one result.
type QualityReport struct {
	Metrics              *Metrics        `json:"metrics"`
	DeadCode             []*store.Symbol `json:"dead_code"`
	MostCalled           []CallCount     `json:"most_called_functions"`
	CircularDependencies [][]string      `json:"circular_dependencies"`
}

// Report runs the standard analyses with default settings and returns a
// combined report. The first failing sub-query aborts the whole report.
func (a *Analyzer) Report() (*QualityReport, error) {
	metrics, err := a.ComplexityMetrics()
	if err != nil {
		return nil, fmt.Errorf("complexity metrics: %w", err)
	}
	dead, err := a.DeadCode(DefaultPolicy())
	if err != nil {
		return nil, fmt.Errorf("dead code: %w", err)
	}
	most, err := a.MostCalled(10)
	if err != nil {
		return nil, fmt.Errorf("most called: %w", err)
	}
	cycles, err := a.CircularDependencies(DefaultCycleDepth)
	if err != nil {
		return nil, fmt.Errorf("circular dependencies: %w", err)
	}
	return &QualityReport{
		Metrics:              metrics,
		DeadCode:             dead,
		MostCalled:           most,
		CircularDependencies: cycles,
	}, nil
}
