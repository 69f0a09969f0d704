package ctags

import (
	"path/filepath"

	"github.com/jward/arbor/internal/store"
)

// kindAliases normalizes ctags kind names onto the symbol model's open kind
// set. Unlisted kinds pass through as-is.
var kindAliases = map[string]string{
	"member": store.KindMethod,
	"func":   store.KindFunction,
}

// AdaptRecords maps indexer records onto validated Symbols. Identity is
// derived from (file, line): the first record for a location wins, which
// drops the qualified duplicates --extras=+q emits at the same position.
// Records without a line or with a relative path ctags didn't absolutize
// are resolved or skipped; a record that still fails validation is skipped
// rather than aborting the run. Output order matches input order, since the
// resolver's first-match policy depends on registration order.
func AdaptRecords(records []TagRecord) []*store.Symbol {
	seen := make(map[string]bool, len(records))
	var symbols []*store.Symbol
	for _, rec := range records {
		if rec.Line < 1 || rec.Name == "" {
			continue
		}
		path := rec.Path
		if !filepath.IsAbs(path) {
			abs, err := filepath.Abs(path)
			if err != nil {
				continue
			}
			path = abs
		}
		uri := store.FormatLocation(path, rec.Line)
		if seen[uri] {
			continue
		}
		kind := rec.Kind
		if alias, ok := kindAliases[kind]; ok {
			kind = alias
		}
		// Functions scoped to a class are methods regardless of how the
		// grammar's ctags parser labels them.
		if kind == store.KindFunction && rec.ScopeKind == "class" {
			kind = store.KindMethod
		}
		sym, err := store.NewSymbol(rec.Name, kind, uri, rec.Scope, rec.Signature)
		if err != nil {
			continue
		}
		seen[uri] = true
		symbols = append(symbols, sym)
	}
	return symbols
}
