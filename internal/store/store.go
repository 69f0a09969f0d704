package store

// GraphStore is the persistence capability the engine and analyzer depend
// on: node upsert, edge upsert, and a small set of read queries. Anything
// that satisfies it — the SQLite Store or the in-memory MemStore — can back
// the full pipeline, so the analysis engine is testable without an external
// database.
type GraphStore interface {
	// UpsertSymbol inserts or refreshes a symbol keyed by its location URI.
	// Re-running extraction over unchanged source must not create duplicates.
	UpsertSymbol(sym *Symbol) error

	// UpsertCall inserts or refreshes a call edge. Edge identity is
	// (from, to, line), so repeated resolution of the same call site is
	// idempotent. Both endpoints must already exist as symbols.
	UpsertCall(call *CallRelationship) error

	// SymbolByURI returns the symbol with the given location URI, or nil.
	SymbolByURI(uri string) (*Symbol, error)

	// SymbolsByName returns all symbols registered under a name, ordered by
	// location URI.
	SymbolsByName(name string) ([]*Symbol, error)

	// SymbolsByKind returns all symbols of one kind, ordered by location URI.
	SymbolsByKind(kind string) ([]*Symbol, error)

	// SymbolsByFile returns all symbols whose location URI encodes the given
	// absolute file path, ordered by line.
	SymbolsByFile(path string) ([]*Symbol, error)

	// AllSymbols returns every symbol, ordered by location URI.
	AllSymbols() ([]*Symbol, error)

	// AllCalls returns every call edge, ordered by (from, to, line).
	AllCalls() ([]*CallRelationship, error)

	// Stats returns aggregate symbol and edge counts.
	Stats() (*Stats, error)

	// Close releases the store's resources.
	Close() error
}
