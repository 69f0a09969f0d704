package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed GraphStore. Symbols are keyed by location_uri;
// call edges are unique on (from_uri, to_uri, line) so re-running resolution
// over unchanged source leaves the edge count unchanged.
type Store struct {
	db *sql.DB
}

// Compile-time check: *Store satisfies GraphStore.
var _ GraphStore = (*Store)(nil)

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
// Use ":memory:" for an ephemeral database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS symbols (
  location_uri  TEXT PRIMARY KEY,
  name          TEXT NOT NULL,
  kind          TEXT NOT NULL,
  file_path     TEXT NOT NULL,
  line          INTEGER NOT NULL,
  scope         TEXT NOT NULL DEFAULT '',
  signature     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS calls (
  id        INTEGER PRIMARY KEY,
  from_uri  TEXT NOT NULL REFERENCES symbols(location_uri),
  to_uri    TEXT NOT NULL REFERENCES symbols(location_uri),
  line      INTEGER NOT NULL DEFAULT 0,
  UNIQUE(from_uri, to_uri, line)
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_calls_from ON calls(from_uri);
CREATE INDEX IF NOT EXISTS idx_calls_to ON calls(to_uri);
`

// Migrate creates the symbol and call tables and their indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertSymbol inserts or refreshes a symbol keyed by location_uri. The
// decoded file path and line are stored alongside the URI so file-scoped
// queries don't have to parse URIs in SQL.
func (s *Store) UpsertSymbol(sym *Symbol) error {
	loc, err := ParseLocation(sym.LocationURI)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO symbols (location_uri, name, kind, file_path, line, scope, signature)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(location_uri) DO UPDATE SET
		   name = excluded.name,
		   kind = excluded.kind,
		   file_path = excluded.file_path,
		   line = excluded.line,
		   scope = excluded.scope,
		   signature = excluded.signature`,
		sym.LocationURI, sym.Name, sym.Kind, loc.Path, loc.Line, sym.Scope, sym.Signature,
	)
	if err != nil {
		return fmt.Errorf("upsert symbol %s: %w", sym.LocationURI, err)
	}
	return nil
}

// UpsertCall inserts a call edge, ignoring exact duplicates of
// (from, to, line).
func (s *Store) UpsertCall(call *CallRelationship) error {
	_, err := s.db.Exec(
		`INSERT INTO calls (from_uri, to_uri, line) VALUES (?, ?, ?)
		 ON CONFLICT(from_uri, to_uri, line) DO NOTHING`,
		call.FromLocationURI, call.ToLocationURI, call.Line,
	)
	if err != nil {
		return fmt.Errorf("upsert call %s -> %s: %w", call.FromLocationURI, call.ToLocationURI, err)
	}
	return nil
}

const symbolCols = "location_uri, name, kind, scope, signature"

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	err := scanner.Scan(&sym.LocationURI, &sym.Name, &sym.Kind, &sym.Scope, &sym.Signature)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolByURI returns the symbol with the given location URI, or nil.
func (s *Store) SymbolByURI(uri string) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow(
		"SELECT "+symbolCols+" FROM symbols WHERE location_uri = ?", uri,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by uri: %w", err)
	}
	return sym, nil
}

func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE name = ? ORDER BY location_uri", name,
	)
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE kind = ? ORDER BY location_uri", kind,
	)
}

func (s *Store) SymbolsByFile(path string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE file_path = ? ORDER BY line", path,
	)
}

func (s *Store) AllSymbols() ([]*Symbol, error) {
	return s.querySymbols("SELECT " + symbolCols + " FROM symbols ORDER BY location_uri")
}

func (s *Store) AllCalls() ([]*CallRelationship, error) {
	rows, err := s.db.Query(
		"SELECT from_uri, to_uri, line FROM calls ORDER BY from_uri, to_uri, line",
	)
	if err != nil {
		return nil, fmt.Errorf("all calls: %w", err)
	}
	defer rows.Close()
	var calls []*CallRelationship
	for rows.Next() {
		c := &CallRelationship{}
		if err := rows.Scan(&c.FromLocationURI, &c.ToLocationURI, &c.Line); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// Stats returns aggregate symbol and edge counts.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{ByKind: make(map[string]int)}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&st.Symbols); err != nil {
		return nil, fmt.Errorf("count symbols: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM calls").Scan(&st.Calls); err != nil {
		return nil, fmt.Errorf("count calls: %w", err)
	}
	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM symbols GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		st.ByKind[kind] = n
	}
	return st, rows.Err()
}
