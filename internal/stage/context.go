package stage

import (
	"time"

	"ctlmapper/internal/layermask"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/snapshot"
)

// Context is the read-only state passed into every Apply call.
type Context struct {
	Snapshot *snapshot.Snapshot
	Time     time.Time
	Layers   layermask.Mask
	Probes   map[ID]probe.Value

	// Tick is incremented once per mapper tick (including disengagement
	// passes) and drives per-stage memoization: a stage recomputes only
	// when Tick advances past the tick it last computed for.
	Tick uint64
}

// Vec2 is the pipeline engine's 2-D value type (touchpad/stick samples,
// cartesian and polar alike).
type Vec2 struct{ X, Y float32 }

// OptU8 is the pipeline engine's optional menu-index value type.
type OptU8 struct {
	Value   uint8
	Present bool
}

func SomeU8(v uint8) OptU8 { return OptU8{Value: v, Present: true} }
func NoneU8() OptU8        { return OptU8{} }

// Unit is the terminal pipeline's output type — terminal stages only emit
// Actions.
type Unit struct{}
