package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/arbor/internal/store"
	"github.com/jward/arbor/internal/toolerr"
)

// sym builds an indexed symbol for the test file.
func sym(t *testing.T, name, kind string, line int) *store.Symbol {
	t.Helper()
	s, err := store.NewSymbol(name, kind, store.FormatLocation("/src/app.py", line), "", "")
	require.NoError(t, err)
	return s
}

func names(syms ...*store.Symbol) map[string]bool {
	out := make(map[string]bool, len(syms))
	for _, s := range syms {
		out[s.Name] = true
	}
	return out
}

func detectPython(t *testing.T, src string, fileSymbols []*store.Symbol, knownNames map[string]bool) []RawCall {
	t.Helper()
	d := NewDetector(nil)
	calls, err := d.DetectSource(context.Background(), Python{}, []byte(src), fileSymbols, knownNames)
	require.NoError(t, err)
	return calls
}

func TestDetectSource_SimpleCall(t *testing.T) {
	t.Parallel()
	src := `def helper():
    pass

def process():
    helper()
`
	helper := sym(t, "helper", store.KindFunction, 1)
	process := sym(t, "process", store.KindFunction, 4)

	calls := detectPython(t, src, []*store.Symbol{helper, process}, names(helper, process))
	require.Len(t, calls, 1)
	assert.Equal(t, process.LocationURI, calls[0].FromLocationURI)
	assert.Equal(t, "helper", calls[0].CalleeName)
	assert.Equal(t, 5, calls[0].Line)
}

func TestDetectSource_ModuleLevelCallsNotRecorded(t *testing.T) {
	t.Parallel()
	src := `def helper():
    pass

helper()
`
	helper := sym(t, "helper", store.KindFunction, 1)

	calls := detectPython(t, src, []*store.Symbol{helper}, names(helper))
	assert.Empty(t, calls)
}

func TestDetectSource_UnknownCalleeSkipped(t *testing.T) {
	t.Parallel()
	src := `def process():
    print("x")
    unknown_fn()
`
	process := sym(t, "process", store.KindFunction, 1)

	calls := detectPython(t, src, []*store.Symbol{process}, names(process))
	assert.Empty(t, calls)
}

func TestDetectSource_MethodCallByAttribute(t *testing.T) {
	t.Parallel()
	src := `class Worker:
    def run(self):
        pass

def main():
    w = Worker()
    w.run()
`
	worker := sym(t, "Worker", store.KindClass, 1)
	run := sym(t, "run", store.KindMethod, 2)
	main := sym(t, "main", store.KindFunction, 5)
	all := []*store.Symbol{worker, run, main}

	calls := detectPython(t, src, all, names(all...))
	require.Len(t, calls, 2)

	// Worker() constructor call resolves by bare name.
	assert.Equal(t, "Worker", calls[0].CalleeName)
	assert.Equal(t, main.LocationURI, calls[0].FromLocationURI)
	// w.run() resolves by attribute name.
	assert.Equal(t, "run", calls[1].CalleeName)
	assert.Equal(t, main.LocationURI, calls[1].FromLocationURI)
}

func TestDetectSource_NestedDefsAttributeInner(t *testing.T) {
	t.Parallel()
	src := `def helper():
    pass

def outer():
    def inner():
        helper()
    inner()
`
	helper := sym(t, "helper", store.KindFunction, 1)
	outer := sym(t, "outer", store.KindFunction, 4)
	inner := sym(t, "inner", store.KindFunction, 5)
	all := []*store.Symbol{helper, outer, inner}

	calls := detectPython(t, src, all, names(all...))
	require.Len(t, calls, 2)
	assert.Equal(t, inner.LocationURI, calls[0].FromLocationURI)
	assert.Equal(t, "helper", calls[0].CalleeName)
	assert.Equal(t, outer.LocationURI, calls[1].FromLocationURI)
	assert.Equal(t, "inner", calls[1].CalleeName)
}

// A nested def that was never indexed must not leak its calls to the
// enclosing function.
func TestDetectSource_UnindexedNestedDefMasksOuter(t *testing.T) {
	t.Parallel()
	src := `def helper():
    pass

def outer():
    def shadow():
        helper()
`
	helper := sym(t, "helper", store.KindFunction, 1)
	outer := sym(t, "outer", store.KindFunction, 4)

	calls := detectPython(t, src, []*store.Symbol{helper, outer}, names(helper, outer))
	assert.Empty(t, calls)
}

func TestDetectSource_DecoratedDefWithinTolerance(t *testing.T) {
	t.Parallel()
	src := `def helper():
    pass

@decorated
def process():
    helper()
`
	helper := sym(t, "helper", store.KindFunction, 1)
	// ctags reports the decorator line, one above the def.
	process := sym(t, "process", store.KindFunction, 4)

	calls := detectPython(t, src, []*store.Symbol{helper, process}, names(helper, process))
	require.Len(t, calls, 1)
	assert.Equal(t, process.LocationURI, calls[0].FromLocationURI)
}

func TestDetectSource_AsyncDef(t *testing.T) {
	t.Parallel()
	src := `def helper():
    pass

async def fetch():
    helper()
`
	helper := sym(t, "helper", store.KindFunction, 1)
	fetch := sym(t, "fetch", store.KindFunction, 4)

	calls := detectPython(t, src, []*store.Symbol{helper, fetch}, names(helper, fetch))
	require.Len(t, calls, 1)
	assert.Equal(t, fetch.LocationURI, calls[0].FromLocationURI)
}

func TestDetectSource_SyntaxErrorYieldsEmpty(t *testing.T) {
	t.Parallel()
	src := `def broken(:
    helper(
`
	calls := detectPython(t, src, nil, map[string]bool{"helper": true})
	assert.Empty(t, calls)
}

func TestDetectFile_Unreadable(t *testing.T) {
	t.Parallel()
	d := NewDetector(nil)
	_, err := d.DetectFile(context.Background(), filepath.Join(t.TempDir(), "missing.py"), nil, nil)
	require.Error(t, err)
	var terr *toolerr.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, toolerr.CodeFileRead, terr.Code)
}

func TestDetectFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()
	d := NewDetector(nil)
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("not code"), 0o644))

	calls, err := d.DetectFile(context.Background(), path, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestSupports(t *testing.T) {
	t.Parallel()
	d := NewDetector(nil)
	assert.True(t, d.Supports("/src/app.py"))
	assert.False(t, d.Supports("/src/app.txt"))
}
