package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// eachStore runs the same subtest against both GraphStore implementations,
// so SQLite and memory stay behaviorally interchangeable.
func eachStore(t *testing.T, fn func(t *testing.T, gs GraphStore)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		fn(t, newTestStore(t))
	})
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		fn(t, NewMemStore())
	})
}

func mustSymbol(t *testing.T, gs GraphStore, name, kind, path string, line int) *Symbol {
	t.Helper()
	sym, err := NewSymbol(name, kind, FormatLocation(path, line), "", "")
	require.NoError(t, err)
	require.NoError(t, gs.UpsertSymbol(sym))
	return sym
}

func mustCall(t *testing.T, gs GraphStore, from, to *Symbol, line int) {
	t.Helper()
	call, err := NewCallRelationship(from.LocationURI, to.LocationURI, line)
	require.NoError(t, err)
	require.NoError(t, gs.UpsertCall(call))
}

func TestUpsertSymbol_Idempotent(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		sym := mustSymbol(t, gs, "process", KindFunction, "/src/app.py", 10)

		// Second upsert at the same URI with new metadata refreshes in place.
		updated, err := NewSymbol("process", KindFunction, sym.LocationURI, "Worker", "(self)")
		require.NoError(t, err)
		require.NoError(t, gs.UpsertSymbol(updated))

		stats, err := gs.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Symbols)

		got, err := gs.SymbolByURI(sym.LocationURI)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Worker", got.Scope)
		assert.Equal(t, "(self)", got.Signature)
	})
}

func TestUpsertCall_Idempotent(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		a := mustSymbol(t, gs, "a", KindFunction, "/src/app.py", 1)
		b := mustSymbol(t, gs, "b", KindFunction, "/src/app.py", 5)

		mustCall(t, gs, a, b, 2)
		mustCall(t, gs, a, b, 2)
		mustCall(t, gs, a, b, 3) // different line, distinct edge

		calls, err := gs.AllCalls()
		require.NoError(t, err)
		require.Len(t, calls, 2)
		assert.Equal(t, 2, calls[0].Line)
		assert.Equal(t, 3, calls[1].Line)
	})
}

func TestSymbolByURI_Missing(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		got, err := gs.SymbolByURI(FormatLocation("/nowhere.py", 1))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSymbolsByName_OrderedByURI(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		mustSymbol(t, gs, "helper", KindFunction, "/src/b.py", 3)
		mustSymbol(t, gs, "helper", KindFunction, "/src/a.py", 7)
		mustSymbol(t, gs, "other", KindFunction, "/src/a.py", 1)

		got, err := gs.SymbolsByName("helper")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, FormatLocation("/src/a.py", 7), got[0].LocationURI)
		assert.Equal(t, FormatLocation("/src/b.py", 3), got[1].LocationURI)
	})
}

func TestSymbolsByFile_OrderedByLine(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		mustSymbol(t, gs, "late", KindFunction, "/src/app.py", 30)
		mustSymbol(t, gs, "early", KindFunction, "/src/app.py", 2)
		mustSymbol(t, gs, "elsewhere", KindFunction, "/src/other.py", 1)

		got, err := gs.SymbolsByFile("/src/app.py")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "early", got[0].Name)
		assert.Equal(t, "late", got[1].Name)
	})
}

func TestSymbolsByKind(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		mustSymbol(t, gs, "fn", KindFunction, "/src/app.py", 1)
		mustSymbol(t, gs, "Cls", KindClass, "/src/app.py", 5)
		mustSymbol(t, gs, "meth", KindMethod, "/src/app.py", 6)

		fns, err := gs.SymbolsByKind(KindFunction)
		require.NoError(t, err)
		require.Len(t, fns, 1)
		assert.Equal(t, "fn", fns[0].Name)
	})
}

func TestStats_ByKind(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		a := mustSymbol(t, gs, "a", KindFunction, "/src/app.py", 1)
		b := mustSymbol(t, gs, "b", KindFunction, "/src/app.py", 5)
		mustSymbol(t, gs, "C", KindClass, "/src/app.py", 9)
		mustCall(t, gs, a, b, 2)

		stats, err := gs.Stats()
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Symbols)
		assert.Equal(t, 1, stats.Calls)
		assert.Equal(t, 2, stats.ByKind[KindFunction])
		assert.Equal(t, 1, stats.ByKind[KindClass])
	})
}

func TestAllCalls_Ordered(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, gs GraphStore) {
		a := mustSymbol(t, gs, "a", KindFunction, "/src/a.py", 1)
		b := mustSymbol(t, gs, "b", KindFunction, "/src/b.py", 1)
		c := mustSymbol(t, gs, "c", KindFunction, "/src/c.py", 1)

		mustCall(t, gs, b, c, 2)
		mustCall(t, gs, a, c, 4)
		mustCall(t, gs, a, b, 2)

		calls, err := gs.AllCalls()
		require.NoError(t, err)
		require.Len(t, calls, 3)
		assert.Equal(t, a.LocationURI, calls[0].FromLocationURI)
		assert.Equal(t, b.LocationURI, calls[0].ToLocationURI)
		assert.Equal(t, c.LocationURI, calls[1].ToLocationURI)
		assert.Equal(t, b.LocationURI, calls[2].FromLocationURI)
	})
}
