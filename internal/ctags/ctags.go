// Package ctags runs Universal Ctags as a subprocess and adapts its JSON
// tag stream into symbol records. The engine consumes only the flat record
// list; ctags internals (field flags, language maps) stay here.
package ctags

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	"github.com/jward/arbor/internal/toolerr"
)

// DefaultBinary is the ctags executable looked up on PATH when no explicit
// path is configured.
const DefaultBinary = "ctags"

// TagRecord is one symbol record from the indexer: name, kind, absolute file
// path, 1-based line, optional scope and signature.
type TagRecord struct {
	Name      string
	Kind      string
	Path      string
	Line      int
	Scope     string
	ScopeKind string
	Signature string
	Language  string
}

// tagJSON mirrors one line of `ctags --output-format=json`.
type tagJSON struct {
	Type      string `json:"_type"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Kind      string `json:"kind"`
	Scope     string `json:"scope"`
	ScopeKind string `json:"scopeKind"`
	Signature string `json:"signature"`
	Language  string `json:"language"`
}

// Runner invokes Universal Ctags over explicit file lists.
type Runner struct {
	binPath string
}

// NewRunner creates a Runner. An empty binPath means "ctags" on PATH.
func NewRunner(binPath string) *Runner {
	if binPath == "" {
		binPath = DefaultBinary
	}
	return &Runner{binPath: binPath}
}

// Run indexes the given files and returns their tag records in ctags output
// order. The file list is fed over stdin (-L -) to sidestep argv limits.
// Failures surface as *toolerr.Error with a stable code.
func (r *Runner) Run(ctx context.Context, paths []string) ([]TagRecord, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	args := []string{
		"--output-format=json",
		"--fields=+KZlnsSt",
		"--extras=+q",
		"--recurse=no",
		"-L", "-",
	}
	if langs := languageFilter(paths); langs != "" {
		args = append(args, "--languages="+langs)
	}

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	cmd.Stdin = strings.NewReader(strings.Join(paths, "\n") + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, toolerr.New(toolerr.CodeCtagsNotFound,
				"ctags executable not found; install Universal Ctags",
				map[string]any{"ctags_path": r.binPath})
		}
		return nil, toolerr.New(toolerr.CodeCtagsExecution,
			"ctags failed: "+err.Error(),
			map[string]any{"stderr": stderr.String(), "args": args})
	}

	return parseTags(&stdout)
}

// parseTags decodes the JSON-lines tag stream, skipping non-tag records.
func parseTags(out *bytes.Buffer) ([]TagRecord, error) {
	var records []TagRecord
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var tag tagJSON
		if err := json.Unmarshal(line, &tag); err != nil {
			return nil, toolerr.New(toolerr.CodeCtagsOutput,
				"malformed ctags output line: "+err.Error(),
				map[string]any{"line": string(line)})
		}
		if tag.Type != "tag" {
			continue
		}
		records = append(records, TagRecord{
			Name:      tag.Name,
			Kind:      tag.Kind,
			Path:      tag.Path,
			Line:      tag.Line,
			Scope:     tag.Scope,
			ScopeKind: tag.ScopeKind,
			Signature: tag.Signature,
			Language:  tag.Language,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, toolerr.New(toolerr.CodeCtagsOutput,
			"reading ctags output: "+err.Error(), nil)
	}
	return records, nil
}

// languageFilter builds a comma-separated --languages value from the
// distinct extensions in paths. Empty when any extension is unmapped, so
// ctags falls back to its own detection.
func languageFilter(paths []string) string {
	seen := map[string]bool{}
	var langs []string
	for _, p := range paths {
		idx := strings.LastIndex(p, ".")
		if idx < 0 {
			return ""
		}
		lang := LanguageForExtension(p[idx:])
		if lang == "" {
			return ""
		}
		for _, l := range strings.Split(lang, ",") {
			if !seen[l] {
				seen[l] = true
				langs = append(langs, l)
			}
		}
	}
	return strings.Join(langs, ",")
}
