package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/arbor"
)

var (
	flagEntryPoints      string
	flagTestPrefixes     string
	flagInternalPrefixes string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the combined structural-quality report",
	Long:  "Composes complexity metrics, dead code, most-called symbols, and circular dependencies into one report.",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, deadCodeCmd} {
		cmd.Flags().StringVar(&flagEntryPoints, "entry-points", "", "comma-separated names never reported dead (default main)")
		cmd.Flags().StringVar(&flagTestPrefixes, "test-prefixes", "", "comma-separated prefixes never reported dead (default test_)")
		cmd.Flags().StringVar(&flagInternalPrefixes, "internal-prefixes", "", "comma-separated prefixes never reported dead (default __)")
	}
	analyzeCmd.Flags().IntVar(&flagLimit, "limit", 10, "maximum most-called results")
	analyzeCmd.Flags().IntVar(&flagMaxDepth, "max-depth", arbor.DefaultCycleDepth, "maximum cycle length in edges")
}

// policyFromFlags builds the dead-code exclusion policy from flags, config
// file, and defaults, in that order of precedence.
func policyFromFlags() arbor.Policy {
	policy := arbor.DefaultPolicy()
	if v := splitList(flagEntryPoints, cfg.Analysis.EntryPoints); len(v) > 0 {
		policy.EntryPoints = v
	}
	if v := splitList(flagTestPrefixes, cfg.Analysis.TestPrefixes); len(v) > 0 {
		policy.TestPrefixes = v
	}
	if v := splitList(flagInternalPrefixes, cfg.Analysis.InternalPrefixes); len(v) > 0 {
		policy.InternalPrefixes = v
	}
	return policy
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	analyzer, s, err := openAnalyzer()
	if err != nil {
		return outputError("analyze", err)
	}
	defer s.Close()

	metrics, err := analyzer.ComplexityMetrics()
	if err != nil {
		return outputError("analyze", err)
	}
	dead, err := analyzer.DeadCode(policyFromFlags())
	if err != nil {
		return outputError("analyze", err)
	}
	most, err := analyzer.MostCalled(flagLimit)
	if err != nil {
		return outputError("analyze", err)
	}
	cycles, err := analyzer.CircularDependencies(flagMaxDepth)
	if err != nil {
		return outputError("analyze", err)
	}

	report := CLIReport{
		Metrics:              metrics,
		DeadCode:             toCLISymbols(dead),
		MostCalled:           toCLICallCounts(most),
		CircularDependencies: cycles,
	}
	return outputResult(CLIResult{Command: "analyze", Results: report})
}
