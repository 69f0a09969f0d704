package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jward/arbor"
)

func TestPolicyFromFlags_Defaults(t *testing.T) {
	cfg = Config{}
	flagEntryPoints, flagTestPrefixes, flagInternalPrefixes = "", "", ""

	assert.Equal(t, arbor.DefaultPolicy(), policyFromFlags())
}

func TestPolicyFromFlags_ConfigOverrides(t *testing.T) {
	cfg = Config{Analysis: AnalysisConfig{
		EntryPoints:  []string{"serve", "handler"},
		TestPrefixes: []string{"check_"},
	}}
	flagEntryPoints, flagTestPrefixes, flagInternalPrefixes = "", "", ""
	t.Cleanup(func() { cfg = Config{} })

	policy := policyFromFlags()
	assert.Equal(t, []string{"serve", "handler"}, policy.EntryPoints)
	assert.Equal(t, []string{"check_"}, policy.TestPrefixes)
	// Unset config fields keep the defaults.
	assert.Equal(t, []string{"__"}, policy.InternalPrefixes)
}

func TestPolicyFromFlags_FlagBeatsConfig(t *testing.T) {
	cfg = Config{Analysis: AnalysisConfig{EntryPoints: []string{"serve"}}}
	flagEntryPoints = "run"
	t.Cleanup(func() {
		cfg = Config{}
		flagEntryPoints = ""
	})

	assert.Equal(t, []string{"run"}, policyFromFlags().EntryPoints)
}
