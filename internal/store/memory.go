package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemStore is a map-backed GraphStore. It exists so the analysis engine and
// pipeline can be exercised without SQLite, and doubles as a reference
// implementation of the capability contract: its query ordering matches the
// SQLite store exactly.
type MemStore struct {
	mu      sync.RWMutex
	symbols map[string]*Symbol // keyed by location URI
	calls   map[callKey]*CallRelationship
}

type callKey struct {
	From string
	To   string
	Line int
}

// Compile-time check: *MemStore satisfies GraphStore.
var _ GraphStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory graph store.
func NewMemStore() *MemStore {
	return &MemStore{
		symbols: make(map[string]*Symbol),
		calls:   make(map[callKey]*CallRelationship),
	}
}

func (m *MemStore) UpsertSymbol(sym *Symbol) error {
	if _, err := ParseLocation(sym.LocationURI); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sym
	m.symbols[sym.LocationURI] = &cp
	return nil
}

func (m *MemStore) UpsertCall(call *CallRelationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.symbols[call.FromLocationURI]; !ok {
		return fmt.Errorf("upsert call: unknown from symbol %s", call.FromLocationURI)
	}
	if _, ok := m.symbols[call.ToLocationURI]; !ok {
		return fmt.Errorf("upsert call: unknown to symbol %s", call.ToLocationURI)
	}
	cp := *call
	m.calls[callKey{From: call.FromLocationURI, To: call.ToLocationURI, Line: call.Line}] = &cp
	return nil
}

func (m *MemStore) SymbolByURI(uri string) (*Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sym, ok := m.symbols[uri]
	if !ok {
		return nil, nil
	}
	cp := *sym
	return &cp, nil
}

// collect returns copies of all symbols matching keep, ordered by location URI.
func (m *MemStore) collect(keep func(*Symbol) bool) []*Symbol {
	var out []*Symbol
	for _, sym := range m.symbols {
		if keep(sym) {
			cp := *sym
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationURI < out[j].LocationURI })
	return out
}

func (m *MemStore) SymbolsByName(name string) ([]*Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(s *Symbol) bool { return s.Name == name }), nil
}

func (m *MemStore) SymbolsByKind(kind string) ([]*Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(s *Symbol) bool { return s.Kind == kind }), nil
}

func (m *MemStore) SymbolsByFile(path string) ([]*Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.collect(func(s *Symbol) bool {
		loc, err := ParseLocation(s.LocationURI)
		return err == nil && loc.Path == path
	})
	sort.Slice(out, func(i, j int) bool {
		li, _ := ParseLocation(out[i].LocationURI)
		lj, _ := ParseLocation(out[j].LocationURI)
		return li.Line < lj.Line
	})
	return out, nil
}

func (m *MemStore) AllSymbols() ([]*Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(*Symbol) bool { return true }), nil
}

func (m *MemStore) AllCalls() ([]*CallRelationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*CallRelationship, 0, len(m.calls))
	for _, c := range m.calls {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FromLocationURI != b.FromLocationURI {
			return a.FromLocationURI < b.FromLocationURI
		}
		if a.ToLocationURI != b.ToLocationURI {
			return a.ToLocationURI < b.ToLocationURI
		}
		return a.Line < b.Line
	})
	return out, nil
}

func (m *MemStore) Stats() (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &Stats{
		Symbols: len(m.symbols),
		Calls:   len(m.calls),
		ByKind:  make(map[string]int),
	}
	for _, sym := range m.symbols {
		st.ByKind[sym.Kind]++
	}
	return st, nil
}

func (m *MemStore) Close() error { return nil }
