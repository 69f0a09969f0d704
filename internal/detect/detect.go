// Package detect walks per-file syntax trees to recover call sites and
// attribute each to its enclosing function. Traversal carries an explicit
// stack of enclosing definitions, so detection over independent files has
// no shared mutable state and can run in parallel.
package detect

import (
	"context"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/arbor/internal/store"
	"github.com/jward/arbor/internal/toolerr"
)

// RawCall is one detected call site: the enclosing symbol's identity, the
// bare callee name, and the 1-based call line. Resolution into graph edges
// happens later, against the global symbol table.
type RawCall struct {
	FromLocationURI string
	CalleeName      string
	Line            int
}

// ctags and tree-sitter may disagree by one line on decorated or annotated
// definitions, so symbol matching tolerates that much drift.
const lineTolerance = 1

// Detector recovers raw call tuples from source files.
type Detector struct {
	languages *Languages
}

// NewDetector creates a Detector over the given language registry. A nil
// registry means all built-in grammars.
func NewDetector(languages *Languages) *Detector {
	if languages == nil {
		languages = DefaultLanguages()
	}
	return &Detector{languages: languages}
}

// Supports reports whether any registered grammar claims the file.
func (d *Detector) Supports(path string) bool {
	_, ok := d.languages.ForFile(path)
	return ok
}

// DetectFile reads and analyzes one file. fileSymbols are the symbols
// already indexed for this file; knownNames is the global symbol-name set.
// Unreadable files yield a *toolerr.Error; files whose parse tree contains
// syntax errors yield an empty result. Neither aborts the overall scan —
// that is the caller's policy.
func (d *Detector) DetectFile(ctx context.Context, path string, fileSymbols []*store.Symbol, knownNames map[string]bool) ([]RawCall, error) {
	lang, ok := d.languages.ForFile(path)
	if !ok {
		return nil, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, toolerr.New(toolerr.CodeFileRead,
			"reading source file: "+err.Error(),
			map[string]any{"path": path})
	}
	return d.DetectSource(ctx, lang, src, fileSymbols, knownNames)
}

// DetectSource analyzes in-memory source with the given grammar.
func (d *Detector) DetectSource(ctx context.Context, lang Language, src []byte, fileSymbols []*store.Symbol, knownNames map[string]bool) ([]RawCall, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang.Sitter())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		// Unparseable file: empty result, not an error.
		return nil, nil
	}

	w := &walker{
		lang:       lang,
		src:        src,
		symsByLine: indexSymbolsByLine(fileSymbols),
		knownNames: knownNames,
	}
	w.walk(root, nil)
	return w.calls, nil
}

// indexSymbolsByLine maps declaration lines to symbols for this file.
func indexSymbolsByLine(symbols []*store.Symbol) map[int]*store.Symbol {
	byLine := make(map[int]*store.Symbol, len(symbols))
	for _, sym := range symbols {
		loc, err := sym.Location()
		if err != nil {
			continue
		}
		if _, taken := byLine[loc.Line]; !taken {
			byLine[loc.Line] = sym
		}
	}
	return byLine
}

// frame is one level of the enclosing-definition stack. sym is nil when the
// definition matched no indexed symbol; such frames still mask the outer
// context, so calls inside an unindexed nested redefinition are not
// misattributed to the outer function.
type frame struct {
	sym *store.Symbol
}

type walker struct {
	lang       Language
	src        []byte
	symsByLine map[int]*store.Symbol
	knownNames map[string]bool
	calls      []RawCall
}

// walk traverses the tree depth-first. The stack is passed per frame rather
// than mutated in place, keeping the traversal re-entrant.
func (w *walker) walk(node *sitter.Node, stack []frame) {
	if w.lang.IsFunctionDef(node) {
		line := int(node.StartPoint().Row) + 1
		stack = append(stack, frame{sym: w.symbolAtLine(line)})
	}

	if w.lang.IsCall(node) {
		w.recordCall(node, stack)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		w.walk(node.NamedChild(i), stack)
	}
}

// symbolAtLine finds the indexed symbol declared at or within lineTolerance
// of the given line.
func (w *walker) symbolAtLine(line int) *store.Symbol {
	for delta := 0; delta <= lineTolerance; delta++ {
		if sym := w.symsByLine[line+delta]; sym != nil {
			return sym
		}
		if delta > 0 {
			if sym := w.symsByLine[line-delta]; sym != nil {
				return sym
			}
		}
	}
	return nil
}

// recordCall emits a raw tuple when a known-name call occurs inside an
// attributable context. Module-level calls (empty stack) are deliberately
// not recorded.
func (w *walker) recordCall(node *sitter.Node, stack []frame) {
	if len(stack) == 0 {
		return
	}
	current := stack[len(stack)-1]
	if current.sym == nil {
		return
	}
	name, ok := w.lang.CalleeName(node, w.src)
	if !ok || !w.knownNames[name] {
		return
	}
	w.calls = append(w.calls, RawCall{
		FromLocationURI: current.sym.LocationURI,
		CalleeName:      name,
		Line:            int(node.StartPoint().Row) + 1,
	})
}
