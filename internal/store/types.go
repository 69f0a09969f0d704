package store

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// uriScheme is the only location scheme the system understands.
const uriScheme = "file://"

// Location is the decoded form of a location URI: an absolute file path and
// a 1-based line number. It round-trips bit-exactly through FormatLocation /
// ParseLocation, since the URI string is the join key across detection,
// resolution, and storage.
type Location struct {
	Path string
	Line int
}

// FormatLocation encodes a Location as "file://<abs-path>#L<line>".
func FormatLocation(path string, line int) string {
	return uriScheme + path + "#L" + strconv.Itoa(line)
}

// URI returns the canonical location URI for l.
func (l Location) URI() string {
	return FormatLocation(l.Path, l.Line)
}

// ParseLocation decodes a location URI. It rejects unrecognized schemes,
// relative paths, missing line fragments, and line numbers below 1.
func ParseLocation(uri string) (Location, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return Location{}, &ValidationError{Field: "location_uri", Reason: fmt.Sprintf("unrecognized scheme in %q, want %s", uri, uriScheme)}
	}
	rest := uri[len(uriScheme):]
	path, frag, ok := strings.Cut(rest, "#")
	if !ok || !strings.HasPrefix(frag, "L") {
		return Location{}, &ValidationError{Field: "location_uri", Reason: fmt.Sprintf("missing #L<line> fragment in %q", uri)}
	}
	line, err := strconv.Atoi(frag[1:])
	if err != nil || line < 1 {
		return Location{}, &ValidationError{Field: "location_uri", Reason: fmt.Sprintf("line number in %q must be a positive integer", uri)}
	}
	if !filepath.IsAbs(path) {
		return Location{}, &ValidationError{Field: "location_uri", Reason: fmt.Sprintf("path in %q must be absolute", uri)}
	}
	return Location{Path: path, Line: line}, nil
}

// ValidationError reports a malformed entity field at construction time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Symbol is a named code definition (function, method, class, ...) with a
// globally unique location identity. LocationURI is the only identity used
// for joins; everything else is an attribute refreshed on upsert.
type Symbol struct {
	Name        string
	Kind        string
	LocationURI string
	Scope       string // enclosing scope name, may be empty
	Signature   string // declaration signature, may be empty
}

// Common symbol kinds. The set is open: stores accept any non-empty kind.
const (
	KindFunction = "function"
	KindMethod   = "method"
	KindClass    = "class"
)

// NewSymbol validates inputs and returns a Symbol or a *ValidationError.
// Construction is pure: no side effects.
func NewSymbol(name, kind, locationURI, scope, signature string) (*Symbol, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if kind == "" {
		return nil, &ValidationError{Field: "kind", Reason: "must not be empty"}
	}
	if _, err := ParseLocation(locationURI); err != nil {
		return nil, err
	}
	return &Symbol{
		Name:        name,
		Kind:        kind,
		LocationURI: locationURI,
		Scope:       scope,
		Signature:   signature,
	}, nil
}

// Location decodes the symbol's location URI. The URI was validated at
// construction, so errors only occur on symbols built by hand.
func (s *Symbol) Location() (Location, error) {
	return ParseLocation(s.LocationURI)
}

// CallRelationship is a directed edge meaning "the symbol at
// FromLocationURI contains a call site naming the symbol at ToLocationURI".
// Self-loops (direct recursion) are permitted. Line is the 1-based call-site
// line, 0 when unknown.
type CallRelationship struct {
	FromLocationURI string
	ToLocationURI   string
	Line            int
}

// NewCallRelationship validates both endpoint URIs and returns the edge or
// a *ValidationError. Endpoint existence is the store's concern, not the
// constructor's.
func NewCallRelationship(fromURI, toURI string, line int) (*CallRelationship, error) {
	if _, err := ParseLocation(fromURI); err != nil {
		return nil, &ValidationError{Field: "from_location_uri", Reason: err.Error()}
	}
	if _, err := ParseLocation(toURI); err != nil {
		return nil, &ValidationError{Field: "to_location_uri", Reason: err.Error()}
	}
	if line < 0 {
		return nil, &ValidationError{Field: "line", Reason: "must not be negative"}
	}
	return &CallRelationship{FromLocationURI: fromURI, ToLocationURI: toURI, Line: line}, nil
}

// Stats holds aggregate graph counts.
type Stats struct {
	Symbols int
	Calls   int
	ByKind  map[string]int
}
