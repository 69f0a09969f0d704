// Package arbor recovers symbol definitions and call relationships from a
// source tree and answers structural-quality questions over the resulting
// call graph.
//
// # Pipeline
//
// Arbor operates in three phases:
//
//  1. Index: enumerate source files, run Universal Ctags over them, and
//     upsert the resulting Symbol records keyed by location URI
//     (file://<abs-path>#L<line>).
//
//  2. Detect and resolve: for each file, parse with tree-sitter and walk
//     the syntax tree with an explicit enclosing-function stack, producing
//     raw (caller, callee-name, line) tuples. The resolver turns tuples
//     into call edges against the global name index using a deterministic
//     first-registered-wins policy. Resolution is name-only by design: a
//     documented heuristic, not a type checker.
//
//  3. Analyze: read-only graph queries — dead code, most-called functions,
//     circular dependencies, per-file dependency sets, complexity metrics —
//     composed into a single report.
//
// # Usage
//
// Create an Engine, run the pipeline, and query:
//
//	e, err := arbor.New("arbor.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	stats, err := e.Run(ctx, "path/to/project")
//
//	a := e.Analyzer()
//	report, err := a.Report()
//
// # Storage
//
// The engine depends only on the [GraphStore] capability: symbol upsert,
// edge upsert, and a handful of read queries. The SQLite store and an
// in-memory store both satisfy it, so analysis is testable without an
// external database.
//
// Call detection over independent files runs on a worker pool; all store
// writes funnel through a single serialized writer.
package arbor
