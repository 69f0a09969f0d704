package ctags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/store"
)

func TestAdaptRecords(t *testing.T) {
	t.Parallel()
	records := []TagRecord{
		{Name: "process", Kind: "function", Path: "/src/app.py", Line: 10, Signature: "(data)"},
		{Name: "Worker", Kind: "class", Path: "/src/app.py", Line: 20},
		{Name: "run", Kind: "member", Path: "/src/app.py", Line: 22, Scope: "Worker", ScopeKind: "class"},
	}

	symbols := AdaptRecords(records)
	require.Len(t, symbols, 3)

	assert.Equal(t, "process", symbols[0].Name)
	assert.Equal(t, store.KindFunction, symbols[0].Kind)
	assert.Equal(t, store.FormatLocation("/src/app.py", 10), symbols[0].LocationURI)
	assert.Equal(t, "(data)", symbols[0].Signature)

	assert.Equal(t, store.KindClass, symbols[1].Kind)

	// "member" normalizes to method.
	assert.Equal(t, store.KindMethod, symbols[2].Kind)
	assert.Equal(t, "Worker", symbols[2].Scope)
}

func TestAdaptRecords_QualifiedDuplicatesDropped(t *testing.T) {
	t.Parallel()
	records := []TagRecord{
		{Name: "run", Kind: "member", Path: "/src/app.py", Line: 22, Scope: "Worker", ScopeKind: "class"},
		{Name: "Worker.run", Kind: "member", Path: "/src/app.py", Line: 22, Scope: "Worker", ScopeKind: "class"},
	}

	symbols := AdaptRecords(records)
	require.Len(t, symbols, 1)
	assert.Equal(t, "run", symbols[0].Name)
}

func TestAdaptRecords_ClassScopedFunctionIsMethod(t *testing.T) {
	t.Parallel()
	records := []TagRecord{
		{Name: "save", Kind: "function", Path: "/src/app.py", Line: 8, Scope: "Model", ScopeKind: "class"},
	}

	symbols := AdaptRecords(records)
	require.Len(t, symbols, 1)
	assert.Equal(t, store.KindMethod, symbols[0].Kind)
}

func TestAdaptRecords_SkipsInvalid(t *testing.T) {
	t.Parallel()
	records := []TagRecord{
		{Name: "", Kind: "function", Path: "/src/app.py", Line: 5},
		{Name: "noline", Kind: "function", Path: "/src/app.py", Line: 0},
		{Name: "ok", Kind: "function", Path: "/src/app.py", Line: 5},
	}

	symbols := AdaptRecords(records)
	require.Len(t, symbols, 1)
	assert.Equal(t, "ok", symbols[0].Name)
}

func TestAdaptRecords_PreservesOrder(t *testing.T) {
	t.Parallel()
	records := []TagRecord{
		{Name: "z", Kind: "function", Path: "/src/z.py", Line: 1},
		{Name: "a", Kind: "function", Path: "/src/a.py", Line: 1},
	}

	symbols := AdaptRecords(records)
	require.Len(t, symbols, 2)
	assert.Equal(t, "z", symbols[0].Name)
	assert.Equal(t, "a", symbols[1].Name)
}
