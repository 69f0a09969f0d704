package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jward/arbor"
)

var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResultText dispatches to the appropriate text formatter based on the
// result's concrete type.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLICallCount:
		formatCallCountsText(w, v)
	case []CLIEntryPoint:
		formatEntryPointsText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case [][]string:
		formatCyclesText(w, v)
	case *arbor.FileDeps:
		formatFileDepsText(w, v)
	case CLIStats:
		formatStatsText(w, v)
	case CLIReport:
		formatReportText(w, v)
	case nil:
		// No output for nil results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatSymbolsText formats symbols as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tSCOPE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Kind, s.File, s.Line, s.Scope)
	}
	tw.Flush()
}

// formatCallCountsText formats ranked symbols as aligned columns.
func formatCallCountsText(w io.Writer, counts []CLICallCount) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CALLS\tNAME\tKIND\tFILE\tLINE")
	for _, c := range counts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", c.Count, c.Name, c.Kind, c.File, c.Line)
	}
	tw.Flush()
}

// formatEntryPointsText formats entry points as aligned columns.
func formatEntryPointsText(w io.Writer, entries []CLIEntryPoint) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tFILE\tLINE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Type, e.Name, e.File, e.Line)
	}
	tw.Flush()
}

// formatHierarchyText formats a call hierarchy as readable text.
func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "Symbol: %s (%s) %s:%d\n", h.Symbol.Name, h.Symbol.Kind, h.Symbol.File, h.Symbol.Line)
	fmt.Fprintf(w, "Callers (%d):\n", len(h.Callers))
	for _, s := range h.Callers {
		fmt.Fprintf(w, "  %s %s:%d\n", s.Name, s.File, s.Line)
	}
	fmt.Fprintf(w, "Callees (%d):\n", len(h.Callees))
	for _, s := range h.Callees {
		fmt.Fprintf(w, "  %s %s:%d\n", s.Name, s.File, s.Line)
	}
}

// formatCyclesText formats cycles one per line as a -> b -> a chains.
func formatCyclesText(w io.Writer, cycles [][]string) {
	for _, cycle := range cycles {
		if len(cycle) == 0 {
			continue
		}
		chain := append(append([]string(nil), cycle...), cycle[0])
		fmt.Fprintln(w, strings.Join(chain, " -> "))
	}
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No circular dependencies found")
	}
}

// formatFileDepsText formats file dependencies as readable text.
func formatFileDepsText(w io.Writer, deps *arbor.FileDeps) {
	fmt.Fprintf(w, "File: %s\n", deps.File)
	fmt.Fprintf(w, "Imports (%d):\n", len(deps.Imports))
	for _, f := range deps.Imports {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintf(w, "Imported by (%d):\n", len(deps.ImportedBy))
	for _, f := range deps.ImportedBy {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

// formatStatsText formats graph counts as readable text.
func formatStatsText(w io.Writer, stats CLIStats) {
	fmt.Fprintf(w, "Symbols: %d\n", stats.Symbols)
	fmt.Fprintf(w, "Calls: %d\n", stats.Calls)
	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", kind, stats.ByKind[kind])
	}
}

// formatReportText formats the combined report as readable text.
func formatReportText(w io.Writer, report CLIReport) {
	fmt.Fprintln(w, "Structural Quality Report")
	fmt.Fprintln(w, "=========================")
	if m := report.Metrics; m != nil {
		fmt.Fprintf(w, "Symbols: %d (functions: %d, methods: %d, classes: %d)\n",
			m.TotalSymbols, m.TotalFunctions, m.TotalMethods, m.TotalClasses)
		fmt.Fprintf(w, "Call edges: %d\n", m.TotalCalls)
		fmt.Fprintf(w, "Avg outgoing calls per function: %.2f\n", m.AvgOutgoingCalls)
		fmt.Fprintf(w, "Ambiguous names: %d\n", m.AmbiguousNames)
		if len(m.MostComplex) > 0 {
			fmt.Fprintln(w, "\nMost complex functions:")
			for _, c := range m.MostComplex {
				fmt.Fprintf(w, "  %s - %d outgoing calls\n", c.Symbol.Name, c.Count)
			}
		}
	}

	fmt.Fprintf(w, "\nDead code (%d):\n", len(report.DeadCode))
	for _, s := range report.DeadCode {
		fmt.Fprintf(w, "  %s %s:%d\n", s.Name, s.File, s.Line)
	}

	if len(report.MostCalled) > 0 {
		fmt.Fprintln(w, "\nMost called:")
		for _, c := range report.MostCalled {
			fmt.Fprintf(w, "  %s - %d calls\n", c.Name, c.Count)
		}
	}

	fmt.Fprintf(w, "\nCircular dependencies (%d):\n", len(report.CircularDependencies))
	formatCyclesText(w, report.CircularDependencies)
}
