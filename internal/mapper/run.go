package mapper

import (
	"fmt"
	"math/rand"
	"time"

	"ctlmapper/internal/diag"
	"ctlmapper/internal/hostio"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/snapshot"
)

// InitProbes registers every probe and shape layer collected at New time
// with the overlay, and seeds the current/next shape-visibility state.
// Returns false if a probe or a menu's shapes require an overlay that
// wasn't supplied, matching init_probes' early-return behavior.
func (m *Mapper) InitProbes() bool {
	if m.overlaySnk != nil {
		m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdResetOverlay})
	}

	for id, desc := range m.probes {
		if m.overlaySnk == nil {
			m.log.Printf(diag.Mapper, "probe %v requires overlay to be present", desc)
			return false
		}

		switch desc.Kind {
		case probe.KindScreen:
			reply := make(chan overlay.ScreenScrapingResult, 1)
			m.screenRecv[id] = reply
			m.overlaySnk.Send(overlay.Command{
				Kind: overlay.CmdAddScreenScrapingArea,
				ScreenArea: overlay.ScreenScrapingArea{
					X1: float32(desc.Area.X1), Y1: float32(desc.Area.Y1),
					X2: float32(desc.Area.X2), Y2: float32(desc.Area.Y2),
					MinHue: float32(desc.HSV.MinHue), MaxHue: float32(desc.HSV.MaxHue),
					MinSat: float32(desc.HSV.MinSat), MaxSat: float32(desc.HSV.MaxSat),
					MinVal: float32(desc.HSV.MinVal), MaxVal: float32(desc.HSV.MaxVal),
				},
				ReplyScreen: reply,
			})

		case probe.KindMemory:
			reply := make(chan uint64, 1)
			m.memRecv[id] = reply
			offsets := make([]int32, len(desc.Memory.Offsets))
			for i, o := range desc.Memory.Offsets {
				offsets[i] = int32(o)
			}
			m.overlaySnk.Send(overlay.Command{
				Kind:       overlay.CmdAddMemoryCheck,
				MemPtrSize: uint8(desc.Memory.PtrSize),
				MemBase:    desc.Memory.Base,
				MemOffsets: offsets,
				ReplyU64:   reply,
			})

		case probe.KindOverlay:
			reply := make(chan bool, 1)
			m.overlayRecv[id] = reply
			m.overlaySnk.Send(overlay.Command{
				Kind:             overlay.CmdAddOverlayCheck,
				OverlayCheckName: desc.Overlay,
				ReplyBool:        reply,
			})
		}
	}

	if len(m.shapes) > 0 {
		if m.overlaySnk == nil {
			m.log.Printf(diag.Mapper, "menus require overlay to be present")
			return false
		}
		for id, layers := range m.shapes {
			m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdRegisterShapes, ShapeStageID: uint64(id), ShapeLayers: layers})
			m.currShapeState[id] = make([]uint64, len(layers))
			m.nextShapeState[id] = make([]uint64, len(layers))
		}
	}

	if m.overlaySnk != nil {
		names := make([]string, len(m.layers))
		for i, l := range m.layers {
			names[i] = l.name
		}
		m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdSetLayerNames, LayerNames: names})

		snaps := make([]overlay.KnobSnapshot, len(m.knobs))
		for i, k := range m.knobs {
			snaps[i] = knobToSnapshot(k)
		}
		m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdRegisterKnobs, Knobs: snaps})
	}

	return true
}

// pollProbes drains any pending probe results without blocking, matching
// poll_probes' try_recv loop.
func (m *Mapper) pollProbes() {
	for id, ch := range m.screenRecv {
		select {
		case r := <-ch:
			m.probeValues[id] = probe.NewXYValue(probe.KindScreen, float32(r.PixelsInRange), float32(r.Uniformity))
		default:
		}
	}
	for id, ch := range m.memRecv {
		select {
		case v := <-ch:
			m.probeValues[id] = probe.NewU64Value(probe.KindMemory, v)
		default:
		}
	}
	for id, ch := range m.overlayRecv {
		select {
		case v := <-ch:
			m.probeValues[id] = probe.NewBoolValue(probe.KindOverlay, v)
		default:
		}
	}
}

// Run blocks on src until the Steam/Guide button isn't held (so an
// in-progress overlay gesture doesn't immediately re-trigger), then ticks
// once per received snapshot until the knobs menu produces a change
// (ExitKnobsChanged) or RequestReload has been called (ExitReloadRequested).
// It returns ExitOverlayRequired without ticking when InitProbes fails, and
// an error when src is closed.
func (m *Mapper) Run(src hostio.SnapshotSource) (ExitReason, error) {
	if !m.InitProbes() {
		return ExitReason{Kind: ExitOverlayRequired}, nil
	}

	for {
		snap, ok := src.Recv()
		if !ok {
			return ExitReason{}, fmt.Errorf("mapper: snapshot source closed")
		}
		if !snap.Button(snapshot.Steam) {
			break
		}
	}

	for {
		snap, ok := src.Recv()
		if !ok {
			return ExitReason{}, fmt.Errorf("mapper: snapshot source closed")
		}
		m.Tick(&snap, time.Now())
		m.pollProbes()

		if m.knobsChanged {
			return ExitReason{Kind: ExitKnobsChanged, Knobs: m.knobs}, nil
		}
		if m.reloadRequested.Load() {
			return ExitReason{Kind: ExitReloadRequested}, nil
		}
	}
}

// Fuzz drives the tick loop with deterministically seeded random snapshots
// and probe values, for crash-only regression testing of the pipeline
// graph. Never exercises the knobs/overlay round trip since no overlay
// reply ever arrives for a fuzzed probe.
func (m *Mapper) Fuzz(maxIterations int) {
	rng := rand.New(rand.NewSource(42))

	for i := 1; i <= maxIterations; i++ {
		snap := randomSnapshot(rng)
		m.randomizeProbeValues(rng)
		m.Tick(&snap, time.Now())

		if i%10000 == 0 {
			m.log.Printf(diag.Mapper, "fuzz: %d/%d iterations", i, maxIterations)
		}
	}
}

func (m *Mapper) randomizeProbeValues(rng *rand.Rand) {
	for id, desc := range m.probes {
		switch desc.Kind {
		case probe.KindScreen:
			m.probeValues[id] = probe.NewXYValue(probe.KindScreen, rng.Float32(), rng.Float32())
		case probe.KindOverlay:
			m.probeValues[id] = probe.NewBoolValue(probe.KindOverlay, rng.Intn(2) == 1)
		default:
			m.probeValues[id] = probe.NewU64Value(desc.Kind, rng.Uint64())
		}
	}
}

func randomSnapshot(rng *rand.Rand) snapshot.Snapshot {
	var s snapshot.Snapshot
	for i := range s.Buttons {
		s.Buttons[i] = rng.Intn(2) == 1
	}
	for i := range s.Axes {
		s.Axes[i] = rng.Float32()*2 - 1
	}
	return s
}
