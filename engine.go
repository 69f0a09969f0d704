package arbor

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/arbor/internal/ctags"
	"github.com/jward/arbor/internal/detect"
	"github.com/jward/arbor/internal/store"
	"github.com/jward/arbor/internal/toolerr"
)

// Engine orchestrates the pipeline: file discovery, symbol indexing via
// ctags, call detection, resolution, and persistence. Every run is a full
// rebuild; upserts keyed by location URI make reruns idempotent.
type Engine struct {
	store       store.GraphStore
	runner      *ctags.Runner
	detector    *detect.Detector
	logger      *slog.Logger
	extensions  map[string]bool
	ctagsPath   string
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParallel controls parallel call detection. When true (default),
// detection runs on a worker pool; store writes stay serialized either way.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithCtagsPath overrides the Universal Ctags executable path.
func WithCtagsPath(path string) Option {
	return func(e *Engine) {
		e.ctagsPath = path
	}
}

// WithExtensions restricts which file extensions are indexed. Defaults to
// the extensions the built-in grammars support.
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			e.extensions[strings.ToLower(ext)] = true
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("arbor: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("arbor: migrate: %w", err)
	}
	return NewWithStore(s, opts...), nil
}

// NewWithStore creates an Engine over any GraphStore implementation. The
// in-memory store satisfies the same contract as SQLite, so the full
// pipeline runs without a database file.
func NewWithStore(gs store.GraphStore, opts ...Option) *Engine {
	e := &Engine{
		store:       gs,
		detector:    detect.NewDetector(nil),
		logger:      slog.New(slog.DiscardHandler),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.extensions == nil {
		e.extensions = map[string]bool{".py": true}
	}
	e.runner = ctags.NewRunner(e.ctagsPath)
	return e
}

// Close releases the Engine's store resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying GraphStore for direct access.
func (e *Engine) Store() store.GraphStore {
	return e.store
}

// Analyzer returns a new Analyzer over the engine's store.
func (e *Engine) Analyzer() *Analyzer {
	return &Analyzer{store: e.store}
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Files        int
	SkippedFiles int
	Symbols      int
	Edges        int
	Resolve      ResolveStats
}

// Run executes the full pipeline over root: discover files, index symbols,
// detect calls, resolve, persist. Per-file detection failures are logged
// and skipped; indexing and persistence failures abort the run.
func (e *Engine) Run(ctx context.Context, root string) (*RunStats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, toolerr.New(toolerr.CodePathNotFound,
			"scan root: "+err.Error(),
			map[string]any{"path": absRoot})
	}

	paths, err := e.listFiles(absRoot)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	e.logger.Info("discovered files", "root", absRoot, "count", len(paths))

	// Index: one ctags pass over the whole file set.
	records, err := e.runner.Run(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("run indexer: %w", err)
	}
	symbols := ctags.AdaptRecords(records)
	e.logger.Info("indexed symbols", "records", len(records), "symbols", len(symbols))

	// Persist symbols through the single writer before detection starts:
	// resolution needs the complete global name index.
	for _, sym := range symbols {
		if err := e.store.UpsertSymbol(sym); err != nil {
			return nil, fmt.Errorf("store symbol: %w", err)
		}
	}

	rawCalls, skipped, err := e.detectCalls(ctx, paths, symbols)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(symbols)
	edges, resolveStats, err := resolver.Resolve(rawCalls)
	if err != nil {
		return nil, fmt.Errorf("resolve calls: %w", err)
	}
	if resolveStats.AmbiguousNames > 0 {
		e.logger.Warn("ambiguous callee names resolved first-match",
			"names", resolveStats.AmbiguousNames)
	}

	for _, edge := range edges {
		if err := e.store.UpsertCall(edge); err != nil {
			return nil, fmt.Errorf("store call edge: %w", err)
		}
	}

	return &RunStats{
		Files:        len(paths),
		SkippedFiles: skipped,
		Symbols:      len(symbols),
		Edges:        len(edges),
		Resolve:      resolveStats,
	}, nil
}

// detectCalls walks every supported file and collects raw call tuples.
// Returns the tuples, the number of files skipped due to detection errors,
// and any fatal error.
func (e *Engine) detectCalls(ctx context.Context, paths []string, symbols []*store.Symbol) ([]detect.RawCall, int, error) {
	symbolsByFile, knownNames := groupSymbols(symbols)

	var detectable []string
	for _, path := range paths {
		if e.detector.Supports(path) {
			detectable = append(detectable, path)
		}
	}
	sort.Strings(detectable)

	if e.useParallel {
		return e.detectCallsParallel(ctx, detectable, symbolsByFile, knownNames)
	}

	var calls []detect.RawCall
	skipped := 0
	for _, path := range detectable {
		fileCalls, err := e.detector.DetectFile(ctx, path, symbolsByFile[path], knownNames)
		if err != nil {
			e.logger.Warn("skipping file", "path", path, "err", err)
			skipped++
			continue
		}
		calls = append(calls, fileCalls...)
	}
	return calls, skipped, nil
}

// groupSymbols partitions symbols by file path and collects the global
// name set the detector filters against.
func groupSymbols(symbols []*store.Symbol) (map[string][]*store.Symbol, map[string]bool) {
	byFile := make(map[string][]*store.Symbol)
	names := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		names[sym.Name] = true
		loc, err := sym.Location()
		if err != nil {
			continue
		}
		byFile[loc.Path] = append(byFile[loc.Path], sym)
	}
	return byFile, names
}

// skipDirs are directories excluded from the fallback filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// listFiles enumerates candidate source files under root. Inside a git
// repository it uses git ls-files so .gitignore is respected; otherwise it
// walks the filesystem, skipping hidden directories and honoring a root
// .gitignore if present.
func (e *Engine) listFiles(root string) ([]string, error) {
	paths, err := e.gitListFiles(root)
	if err != nil {
		paths, err = e.walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to configured extensions.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if e.wantsFile(line) {
			paths = append(paths, filepath.Join(root, line))
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used when git is
// unavailable. A .gitignore at root is honored via compiled match rules.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var matcher *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		matcher = gi
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			if matcher != nil && path != root && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if e.wantsFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func (e *Engine) wantsFile(path string) bool {
	return e.extensions[strings.ToLower(filepath.Ext(path))]
}
