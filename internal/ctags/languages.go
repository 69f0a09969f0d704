package ctags

import "strings"

// extensionLanguages maps file extensions to Universal Ctags language names,
// used to build --languages filters. Extensions without a mapping are passed
// to ctags unfiltered.
var extensionLanguages = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".java":  "Java",
	".c":     "C",
	".h":     "C,C++",
	".cpp":   "C++",
	".cc":    "C++",
	".cxx":   "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".rb":    "Ruby",
	".go":    "Go",
	".rs":    "Rust",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".scala": "Scala",
	".lua":   "Lua",
	".pl":    "Perl",
	".sh":    "Sh",
	".ex":    "Elixir",
	".exs":   "Elixir",
	".erl":   "Erlang",
	".ml":    "OCaml",
	".hs":    "Haskell",
	".dart":  "Dart",
	".jl":    "Julia",
	".zig":   "Zig",
}

// LanguageForExtension returns the ctags language name for an extension
// (with or without the leading dot), or "" when unknown.
func LanguageForExtension(ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return extensionLanguages[strings.ToLower(ext)]
}
