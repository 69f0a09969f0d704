package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/store"
)

var (
	flagLimit    int
	flagMaxDepth int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the indexed call graph",
	Long:  "Run individual structural queries against an indexed codebase.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 10, "maximum results for ranked queries")
	queryCmd.PersistentFlags().IntVar(&flagMaxDepth, "max-depth", arbor.DefaultCycleDepth, "maximum cycle length in edges")

	queryCmd.AddCommand(deadCodeCmd)
	queryCmd.AddCommand(mostCalledCmd)
	queryCmd.AddCommand(cyclesCmd)
	queryCmd.AddCommand(fileDepsCmd)
	queryCmd.AddCommand(functionsCmd)
	queryCmd.AddCommand(hierarchyCmd)
	queryCmd.AddCommand(entryPointsCmd)
	queryCmd.AddCommand(statsCmd)
}

// openAnalyzer opens the store at the resolved DB path and wraps it in an
// Analyzer. The caller must Close the returned store.
func openAnalyzer() (*arbor.Analyzer, *store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'arbor index' first)", dbPath)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return arbor.NewAnalyzer(s), s, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

var deadCodeCmd = &cobra.Command{
	Use:   "dead-code",
	Short: "List functions nothing calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("dead-code", err)
		}
		defer s.Close()

		dead, err := analyzer.DeadCode(policyFromFlags())
		if err != nil {
			return outputError("dead-code", err)
		}
		return outputResult(CLIResult{Command: "dead-code", Results: toCLISymbols(dead)})
	},
}

var mostCalledCmd = &cobra.Command{
	Use:   "most-called",
	Short: "Rank symbols by inbound call count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("most-called", err)
		}
		defer s.Close()

		counts, err := analyzer.MostCalled(flagLimit)
		if err != nil {
			return outputError("most-called", err)
		}
		return outputResult(CLIResult{Command: "most-called", Results: toCLICallCounts(counts)})
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Detect circular call dependencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("cycles", err)
		}
		defer s.Close()

		cycles, err := analyzer.CircularDependencies(flagMaxDepth)
		if err != nil {
			return outputError("cycles", err)
		}
		return outputResult(CLIResult{Command: "cycles", Results: cycles})
	},
}

var fileDepsCmd = &cobra.Command{
	Use:   "file-deps <file>",
	Short: "Show a file's cross-file call dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := resolveFilePath(args[0])
		if err != nil {
			return outputError("file-deps", err)
		}
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("file-deps", err)
		}
		defer s.Close()

		deps, err := analyzer.FileDependencies(file)
		if err != nil {
			return outputError("file-deps", err)
		}
		return outputResult(CLIResult{Command: "file-deps", Results: deps})
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions <file>",
	Short: "List the functions defined in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := resolveFilePath(args[0])
		if err != nil {
			return outputError("functions", err)
		}
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("functions", err)
		}
		defer s.Close()

		fns, err := analyzer.FunctionsInFile(file)
		if err != nil {
			return outputError("functions", err)
		}
		return outputResult(CLIResult{Command: "functions", Results: toCLISymbols(fns)})
	},
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <name>",
	Short: "Show a symbol's direct callers and callees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("hierarchy", err)
		}
		defer s.Close()

		h, err := analyzer.CallHierarchy(args[0])
		if err != nil {
			return outputError("hierarchy", err)
		}
		if h == nil {
			return outputError("hierarchy", fmt.Errorf("no symbol named %q", args[0]))
		}
		result := CLIHierarchy{
			Symbol:  toCLISymbol(h.Symbol),
			Callers: toCLISymbols(h.Callers),
			Callees: toCLISymbols(h.Callees),
		}
		return outputResult(CLIResult{Command: "hierarchy", Results: result})
	},
}

var entryPointsCmd = &cobra.Command{
	Use:   "entry-points",
	Short: "List uncalled functions classified by role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, s, err := openAnalyzer()
		if err != nil {
			return outputError("entry-points", err)
		}
		defer s.Close()

		entries, err := analyzer.EntryPoints()
		if err != nil {
			return outputError("entry-points", err)
		}
		out := make([]CLIEntryPoint, 0, len(entries))
		for _, e := range entries {
			out = append(out, CLIEntryPoint{CLISymbol: toCLISymbol(e.Symbol), Type: e.Type})
		}
		return outputResult(CLIResult{Command: "entry-points", Results: out})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate graph counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, err := openAnalyzer()
		if err != nil {
			return outputError("stats", err)
		}
		defer s.Close()

		stats, err := s.Stats()
		if err != nil {
			return outputError("stats", err)
		}
		result := CLIStats{Symbols: stats.Symbols, Calls: stats.Calls, ByKind: stats.ByKind}
		return outputResult(CLIResult{Command: "stats", Results: result})
	},
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as
// a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
