package main

import (
	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/store"
)

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Scope       string `json:"scope,omitempty"`
	Signature   string `json:"signature,omitempty"`
	LocationURI string `json:"location_uri"`
}

// CLICallCount pairs a symbol with a call count.
type CLICallCount struct {
	CLISymbol
	Count int `json:"count"`
}

// CLIEntryPoint is a zero-inbound function with its classification.
type CLIEntryPoint struct {
	CLISymbol
	Type string `json:"type"`
}

// CLIHierarchy is the one-hop neighborhood of a symbol.
type CLIHierarchy struct {
	Symbol  CLISymbol   `json:"symbol"`
	Callers []CLISymbol `json:"callers"`
	Callees []CLISymbol `json:"callees"`
}

// CLIReport is the combined analysis report.
type CLIReport struct {
	Metrics              *arbor.Metrics `json:"metrics"`
	DeadCode             []CLISymbol    `json:"dead_code"`
	MostCalled           []CLICallCount `json:"most_called_functions"`
	CircularDependencies [][]string     `json:"circular_dependencies"`
}

// CLIStats reports aggregate graph counts.
type CLIStats struct {
	Symbols int            `json:"symbols"`
	Calls   int            `json:"calls"`
	ByKind  map[string]int `json:"by_kind"`
}

func toCLISymbol(sym *store.Symbol) CLISymbol {
	out := CLISymbol{
		Name:        sym.Name,
		Kind:        sym.Kind,
		Scope:       sym.Scope,
		Signature:   sym.Signature,
		LocationURI: sym.LocationURI,
	}
	if loc, err := sym.Location(); err == nil {
		out.File = loc.Path
		out.Line = loc.Line
	}
	return out
}

func toCLISymbols(syms []*store.Symbol) []CLISymbol {
	out := make([]CLISymbol, 0, len(syms))
	for _, sym := range syms {
		out = append(out, toCLISymbol(sym))
	}
	return out
}

func toCLICallCounts(counts []arbor.CallCount) []CLICallCount {
	out := make([]CLICallCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, CLICallCount{CLISymbol: toCLISymbol(c.Symbol), Count: c.Count})
	}
	return out
}
