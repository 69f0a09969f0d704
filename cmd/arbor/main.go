package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
)

var (
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// cfg holds settings loaded from .arbor.yml, if present. Flags win over
// config values.
var cfg Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "arbor",
	Short:         "Static call-graph recovery and structural analysis",
	Long:          "Arbor indexes source code with Universal Ctags and tree-sitter, persists a call graph to SQLite, and answers structural-quality queries over it.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		cfg = LoadConfig(findRepoRoot(cwd))
		return nil
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .arbor/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(queryCmd)
}

var (
	flagExtensions string
	flagCtags      string
	flagSerial     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory and build its call graph",
	Long:  "Extracts symbols with Universal Ctags, detects calls with tree-sitter, resolves them by name, and writes the graph to the SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagExtensions, "extensions", "", "comma-separated file extensions to index (e.g. .py)")
	indexCmd.Flags().StringVar(&flagCtags, "ctags", "", "path to the Universal Ctags executable")
	indexCmd.Flags().BoolVar(&flagSerial, "serial", false, "disable parallel call detection")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	arborDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(arborDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", arborDir, err)
	}

	opts := []arbor.Option{arbor.WithLogger(newLogger())}
	if exts := splitList(flagExtensions, cfg.Extensions); len(exts) > 0 {
		opts = append(opts, arbor.WithExtensions(exts...))
	}
	if path := firstNonEmpty(flagCtags, cfg.Ctags); path != "" {
		opts = append(opts, arbor.WithCtagsPath(path))
	}
	if flagSerial {
		opts = append(opts, arbor.WithParallel(false))
	}

	engine, err := arbor.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	stats, err := engine.Run(context.Background(), targetDir)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s (%d files, %d symbols, %d call edges)\n",
		targetDir, time.Since(start).Round(time.Millisecond),
		stats.Files, stats.Symbols, stats.Edges)
	if stats.SkippedFiles > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d unreadable files\n", stats.SkippedFiles)
	}
	if stats.Resolve.AmbiguousNames > 0 {
		fmt.Fprintf(os.Stderr, "Resolved %d ambiguous names first-match\n", stats.Resolve.AmbiguousNames)
	}
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	return nil
}

// newLogger builds the CLI logger: human-readable on stderr when --verbose,
// discarded otherwise.
func newLogger() *slog.Logger {
	if !flagVerbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file, or the default.
func resolveDBPath(repoRoot string) string {
	db := firstNonEmpty(flagDB, cfg.DB)
	if db != "" {
		if filepath.IsAbs(db) {
			return db
		}
		return filepath.Join(repoRoot, db)
	}
	return filepath.Join(repoRoot, ".arbor", "index.db")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// splitList parses a comma-separated flag value, falling back to the config
// list when the flag is unset.
func splitList(flag string, fallback []string) []string {
	if flag == "" {
		return fallback
	}
	parts := strings.Split(flag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
