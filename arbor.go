package arbor

import (
	"github.com/jward/arbor/internal/detect"
	"github.com/jward/arbor/internal/store"
)

// Public type aliases for internal types. These are Go type aliases
// (=) — identical to the internal types at compile time, so external
// consumers use these names with no conversion.

type Symbol = store.Symbol
type CallRelationship = store.CallRelationship
type Location = store.Location
type GraphStore = store.GraphStore
type Stats = store.Stats
type ValidationError = store.ValidationError
type RawCall = detect.RawCall
