// Package mapper implements the tick loop that turns controller snapshots
// into host effects: it runs every active pipeline once per tick, reifies
// the actions they emit into keyboard/mouse/haptic/overlay calls, and
// manages the layer-transition disengagement pass (§4.6). Grounded directly
// on original_source/mapper/src/mapper.rs's Mapper struct, translated field
// for field; the phase-by-phase tick structure mirrors the teacher's
// internal/clock.MasterClock (explicit per-phase methods, no scheduler
// abstraction).
package mapper

import (
	"fmt"
	"sync/atomic"
	"time"

	"ctlmapper/internal/action"
	"ctlmapper/internal/config"
	"ctlmapper/internal/diag"
	"ctlmapper/internal/hostio"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/snapshot"
	"ctlmapper/internal/stage"
)

const (
	maxShapesPerLayer = 64
	maxShapeLayers    = 256
)

// pipelineState pairs one closed pipeline with the layer mask it fires
// under and whether it owes a disengagement pass at the start of the next
// tick (set when its mask stops intersecting the active layer mask).
type pipelineState struct {
	mask            layermask.Mask
	pipeline        stage.Stage[stage.Unit]
	needsDisengage  bool
}

// layer is a declared layer's display name, indexed by its bit position.
type layer struct{ name string }

// ExitReason is why Run returned: the knobs menu produced a change that
// must be persisted, an external reload was requested (the knobs file
// changed underneath the running mapper), or a probe/shape registration
// needed an overlay that wasn't supplied.
type ExitReason struct {
	Kind  ExitKind
	Knobs []config.Knob
}

type ExitKind int

const (
	ExitKnobsChanged ExitKind = iota
	ExitOverlayRequired
	ExitReloadRequested
)

// Mapper is the tick-loop engine: one instance per running configuration.
type Mapper struct {
	controller hostio.ControllerSink // nil if no controller attached
	overlaySnk overlay.Sink          // nil if no overlay attached
	output     hostio.KeyMouseSink

	log *diag.Logger

	currLayerMask layermask.Mask
	nextLayerMask layermask.Mask
	hasNextLayer  bool

	layers    []layer
	pipelines []pipelineState

	actions           []action.Action
	discardedActions  []action.Action

	probes       map[stage.ID]probe.Descriptor
	probeValues  map[stage.ID]probe.Value

	screenRecv  map[stage.ID]chan overlay.ScreenScrapingResult
	memRecv     map[stage.ID]chan uint64
	overlayRecv map[stage.ID]chan bool

	shapes          map[stage.ID][][]overlay.Shape
	currShapeState  map[stage.ID][]uint64
	nextShapeState  map[stage.ID][]uint64

	currKeyState []bool
	nextKeyState []bool

	currMouseState []bool
	nextMouseState []bool

	relMouseX float32
	relMouseY float32

	alloc *stage.Allocator
	tick  uint64

	knobs        []config.Knob
	knobsChanged bool

	// reloadRequested is set by RequestReload, called from outside the
	// tick-loop goroutine (cmd/ctlmapper's load loop), so it's atomic
	// rather than a plain bool like knobsChanged.
	reloadRequested atomic.Bool
}

// RequestReload asks Run to exit with ExitReloadRequested once its next
// tick has run. Safe to call concurrently with Run from another
// goroutine — the usual caller is cmd/ctlmapper's load loop, when its
// knobsfile.Watcher reports the knobs file changing on disk out from under
// the running mapper.
func (m *Mapper) RequestReload() { m.reloadRequested.Store(true) }

var (
	keyCount         = len(action.AllKeys())
	mouseButtonCount = len(action.AllMouseButtons())
)

// New builds a Mapper from a fully evaluated configuration. alloc must be
// the same allocator used to build cfg's pipelines, so stage IDs line up
// with the Inspect traversal below.
func New(cfg config.Config, alloc *stage.Allocator, controller hostio.ControllerSink, overlaySnk overlay.Sink, output hostio.KeyMouseSink, log *diag.Logger) *Mapper {
	firstLayer, err := layermask.UserLayer(0)
	if err != nil {
		panic(err) // layermask.MaxUserLayers is always > 0
	}

	m := &Mapper{
		controller:    controller,
		overlaySnk:    overlaySnk,
		output:        output,
		log:           log,
		currLayerMask: firstLayer,
		probes:        map[stage.ID]probe.Descriptor{},
		probeValues:   map[stage.ID]probe.Value{},
		screenRecv:    map[stage.ID]chan overlay.ScreenScrapingResult{},
		memRecv:       map[stage.ID]chan uint64{},
		overlayRecv:   map[stage.ID]chan bool{},
		shapes:        map[stage.ID][][]overlay.Shape{},
		currShapeState: map[stage.ID][]uint64{},
		nextShapeState: map[stage.ID][]uint64{},
		currKeyState:   make([]bool, keyCount),
		nextKeyState:   make([]bool, keyCount),
		currMouseState: make([]bool, mouseButtonCount),
		nextMouseState: make([]bool, mouseButtonCount),
		alloc:         alloc,
		knobs:         cfg.Knobs,
	}

	for _, name := range cfg.Layers {
		i := len(m.layers)
		if i >= layermask.MaxLayers {
			panic(fmt.Sprintf("mapper: too many layers (%d)", i))
		}
		m.layers = append(m.layers, layer{name: name})
		log.Printf(diag.Mapper, "layer %q: user bit %d", name, i)
	}

	meta := map[stage.ID]stage.Description{}
	for _, binding := range cfg.Pipelines {
		binding.Pipeline.Inspect(meta)
		m.pipelines = append(m.pipelines, pipelineState{mask: binding.Mask, pipeline: binding.Pipeline})
	}

	for id, desc := range meta {
		if desc.HasProbe {
			m.probes[id] = desc.Probe
			m.probeValues[id] = probe.Value{}
		}

		layerCount := len(desc.Shapes)
		if layerCount == 0 {
			continue
		}
		if layerCount > maxShapeLayers {
			panic(fmt.Sprintf("mapper: stage %q (id %d) registers %d shape layers, max %d", desc.Name, id, layerCount, maxShapeLayers))
		}
		v := make([][]overlay.Shape, layerCount)
		for i, layerShapes := range desc.Shapes {
			if len(layerShapes) <= maxShapesPerLayer {
				v[i] = layerShapes
				continue
			}
			log.Printf(diag.Mapper, "too many shapes (%d) in stage %q (id %d) layer %d, truncated", len(layerShapes), desc.Name, id, i)
			v[i] = layerShapes[:maxShapesPerLayer]
		}
		m.shapes[id] = v
	}

	return m
}

// ctxAt builds the per-tick read-only Context every pipeline sees.
func (m *Mapper) ctxAt(snap *snapshot.Snapshot, now time.Time) *stage.Context {
	return &stage.Context{Snapshot: snap, Time: now, Layers: m.currLayerMask, Probes: m.probeValues, Tick: m.tick}
}
