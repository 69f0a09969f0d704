package detect

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Language is the traversal contract a grammar must satisfy for call
// detection: which nodes define functions, which are call expressions, and
// how to pull the callee name out of a call node. Additional grammars plug
// in behind this interface without touching the detector.
type Language interface {
	// Name is the language identifier (e.g. "python").
	Name() string

	// Extensions lists the file extensions this language claims, with dots.
	Extensions() []string

	// Sitter returns the tree-sitter grammar.
	Sitter() *sitter.Language

	// IsFunctionDef reports whether node defines a function or method.
	// Synchronous and asynchronous definitions must both answer true.
	IsFunctionDef(node *sitter.Node) bool

	// CalleeName extracts the called name from a call-expression node:
	// a bare identifier, or the trailing attribute of a method-style call
	// (obj.method(...) yields "method"). ok is false for call shapes that
	// carry no extractable name.
	CalleeName(node *sitter.Node, src []byte) (name string, ok bool)

	// IsCall reports whether node is a call expression.
	IsCall(node *sitter.Node) bool
}

// Python implements the traversal contract for the tree-sitter Python
// grammar. Async functions parse as function_definition nodes with an async
// keyword child, so they need no special casing.
type Python struct{}

func (Python) Name() string { return "python" }

func (Python) Extensions() []string { return []string{".py"} }

func (Python) Sitter() *sitter.Language { return python.GetLanguage() }

func (Python) IsFunctionDef(node *sitter.Node) bool {
	return node.Type() == "function_definition"
}

func (Python) IsCall(node *sitter.Node) bool {
	return node.Type() == "call"
}

func (Python) CalleeName(node *sitter.Node, src []byte) (string, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Type() {
	case "identifier":
		return fn.Content(src), true
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return "", false
		}
		return attr.Content(src), true
	}
	return "", false
}

// Languages indexes traversal contracts by file extension.
type Languages struct {
	byExt map[string]Language
}

// NewLanguages builds a registry. Later languages win extension conflicts.
func NewLanguages(langs ...Language) *Languages {
	reg := &Languages{byExt: make(map[string]Language)}
	for _, lang := range langs {
		for _, ext := range lang.Extensions() {
			reg.byExt[strings.ToLower(ext)] = lang
		}
	}
	return reg
}

// DefaultLanguages returns the registry with every built-in grammar.
func DefaultLanguages() *Languages {
	return NewLanguages(Python{})
}

// ForFile returns the language claiming the file's extension.
func (r *Languages) ForFile(path string) (Language, bool) {
	lang, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
