package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLocation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "file:///src/app.py#L10", FormatLocation("/src/app.py", 10))
	assert.Equal(t, "file:///a#L1", FormatLocation("/a", 1))
}

func TestParseLocation_RoundTrip(t *testing.T) {
	t.Parallel()
	uri := FormatLocation("/src/pkg/util.py", 42)
	loc, err := ParseLocation(uri)
	require.NoError(t, err)
	assert.Equal(t, "/src/pkg/util.py", loc.Path)
	assert.Equal(t, 42, loc.Line)
	assert.Equal(t, uri, loc.URI())
}

func TestParseLocation_Invalid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"wrong scheme", "http:///src/app.py#L10"},
		{"no fragment", "file:///src/app.py"},
		{"bad fragment", "file:///src/app.py#10"},
		{"zero line", "file:///src/app.py#L0"},
		{"negative line", "file:///src/app.py#L-3"},
		{"non-numeric line", "file:///src/app.py#Labc"},
		{"relative path", "file://src/app.py#L10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseLocation(tc.uri)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestNewSymbol_Valid(t *testing.T) {
	t.Parallel()
	sym, err := NewSymbol("process", KindFunction, FormatLocation("/src/app.py", 5), "", "(data)")
	require.NoError(t, err)
	assert.Equal(t, "process", sym.Name)
	assert.Equal(t, KindFunction, sym.Kind)

	loc, err := sym.Location()
	require.NoError(t, err)
	assert.Equal(t, "/src/app.py", loc.Path)
	assert.Equal(t, 5, loc.Line)
}

func TestNewSymbol_Invalid(t *testing.T) {
	t.Parallel()
	uri := FormatLocation("/src/app.py", 5)

	_, err := NewSymbol("", KindFunction, uri, "", "")
	assert.Error(t, err)

	_, err = NewSymbol("process", "", uri, "", "")
	assert.Error(t, err)

	_, err = NewSymbol("process", KindFunction, "not-a-uri", "", "")
	assert.Error(t, err)
}

func TestNewCallRelationship(t *testing.T) {
	t.Parallel()
	from := FormatLocation("/src/a.py", 1)
	to := FormatLocation("/src/b.py", 9)

	call, err := NewCallRelationship(from, to, 3)
	require.NoError(t, err)
	assert.Equal(t, from, call.FromLocationURI)
	assert.Equal(t, to, call.ToLocationURI)
	assert.Equal(t, 3, call.Line)

	_, err = NewCallRelationship("bogus", to, 3)
	assert.Error(t, err)
	_, err = NewCallRelationship(from, "bogus", 3)
	assert.Error(t, err)
	_, err = NewCallRelationship(from, to, -1)
	assert.Error(t, err)

	// Line 0 means the call-site line is unknown.
	zero, err := NewCallRelationship(from, to, 0)
	require.NoError(t, err)
	assert.Zero(t, zero.Line)
}

// Two distinct symbols on the same line of the same file would collide on
// URI; distinct lines never do.
func TestLocationURI_IdentityPerLine(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for line := 1; line <= 100; line++ {
		uri := FormatLocation("/src/app.py", line)
		assert.False(t, seen[uri], fmt.Sprintf("duplicate URI at line %d", line))
		seen[uri] = true
	}
	assert.NotEqual(t,
		FormatLocation("/src/a.py", 7),
		FormatLocation("/src/b.py", 7))
}
