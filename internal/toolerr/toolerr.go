// Package toolerr defines the typed error shape for external-tool failures:
// a stable code, a human message, and free-form details. Indexer and
// detector failures both use it, so callers can branch on the code with
// errors.As instead of matching strings.
package toolerr

import "fmt"

// Stable error codes.
const (
	CodePathNotFound   = "PATH_NOT_FOUND"
	CodeCtagsNotFound  = "CTAGS_NOT_FOUND"
	CodeCtagsExecution = "CTAGS_EXECUTION_ERROR"
	CodeCtagsOutput    = "CTAGS_OUTPUT_ERROR"
	CodeFileRead       = "FILE_READ_ERROR"
)

// Error is a typed external-tool failure. A failed tool is distinct from an
// empty result: "no symbols found" and "no calls found" are not errors.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with optional details.
func New(code, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}
