package mapper

import (
	"time"

	"ctlmapper/internal/action"
	"ctlmapper/internal/diag"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/snapshot"
)

// Tick runs one full mapper cycle: the disengagement pass for pipelines that
// fell out of scope last transition, the active pass for pipelines in scope
// now, sequential reification of every emitted action, the layer transition
// (if any pipeline requested one), keyboard/mouse edge emission, mouse
// motion truncation, and shape-visibility diffing. Mirrors
// Mapper::apply_actions phase for phase.
func (m *Mapper) Tick(snap *snapshot.Snapshot, now time.Time) {
	m.tick++

	m.actions = m.actions[:0]
	m.discardedActions = m.discardedActions[:0]

	for i := range m.nextKeyState {
		m.nextKeyState[i] = false
	}
	for i := range m.nextMouseState {
		m.nextMouseState[i] = false
	}
	for id := range m.nextShapeState {
		masks := m.nextShapeState[id]
		for i := range masks {
			masks[i] = 0
		}
	}

	empty := snapshot.Empty()

	for i := range m.pipelines {
		if m.pipelines[i].needsDisengage {
			m.pipelines[i].pipeline.Reset()
		}
	}
	for i := range m.pipelines {
		ps := &m.pipelines[i]
		if !ps.needsDisengage {
			continue
		}
		ctx := m.ctxAt(&empty, now)
		ps.pipeline.Apply(ctx, &m.discardedActions)
		ps.needsDisengage = false
	}

	// No explicit reset before this pass: unlike the original's Option-cache
	// memoization (cleared by an unconditional reset() every tick), Memo
	// here keys on ctx.Tick, so bumping m.tick above is what forces
	// recomputation — Reset is reserved for genuine disengagement, where
	// cross-tick FSM/timer state must also be wiped.
	for i := range m.pipelines {
		ps := &m.pipelines[i]
		if !ps.mask.Intersects(m.currLayerMask) {
			continue
		}
		ctx := m.ctxAt(snap, now)
		ps.pipeline.Apply(ctx, &m.actions)
	}

	for i := range m.actions {
		m.applyAction(m.actions[i])
	}

	if m.hasNextLayer {
		nextMask := m.nextLayerMask

		if m.overlaySnk != nil {
			m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdSetMode, Mode: uint64(nextMask)})
		}
		m.log.Printf(diag.Mapper, "switch to mode: %s", nextMask)

		for i := range m.pipelines {
			ps := &m.pipelines[i]
			if ps.mask.Intersects(m.currLayerMask) && !ps.mask.Intersects(nextMask) {
				ps.needsDisengage = true
			}
		}

		m.currLayerMask = nextMask
		m.hasNextLayer = false
	}

	for _, k := range action.AllKeys() {
		switch {
		case !m.currKeyState[k] && m.nextKeyState[k]:
			m.output.KeyDown(k)
		case m.currKeyState[k] && !m.nextKeyState[k]:
			m.output.KeyUp(k)
		}
		m.currKeyState[k] = m.nextKeyState[k]
	}

	for _, b := range action.AllMouseButtons() {
		switch {
		case !m.currMouseState[b] && m.nextMouseState[b]:
			m.output.MouseButtonDown(b)
		case m.currMouseState[b] && !m.nextMouseState[b]:
			m.output.MouseButtonUp(b)
		}
		m.currMouseState[b] = m.nextMouseState[b]
	}

	x := truncTowardZero(m.relMouseX)
	y := truncTowardZero(m.relMouseY)
	if x != 0 || y != 0 {
		m.output.MouseCursorRelXY(int32(x), int32(y))
		m.relMouseX -= x
		m.relMouseY -= y
	}

	m.output.Syn()

	if m.overlaySnk != nil {
		for id, masks := range m.nextShapeState {
			curr := m.currShapeState[id]
			for i, mask := range masks {
				if mask != curr[i] {
					m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdToggleShapes, ShapeStageID: uint64(id), ShapeLayer: uint8(i), ShapeMask: mask})
					curr[i] = mask
				}
			}
		}
	}
}

func truncTowardZero(f float32) float32 { return float32(int32(f)) }

// applyAction reifies one emitted action. SetLayerMask only records the
// request (last one wins within a tick, per the action loop order in Tick
// above); the transition itself happens after every action in the tick has
// run.
func (m *Mapper) applyAction(a action.Action) {
	switch a.Kind {
	case action.KindPressKey:
		m.nextKeyState[a.Key] = true

	case action.KindPressMouseButton:
		m.nextMouseState[a.MouseButton] = true

	case action.KindMoveMouse:
		switch a.MouseAxis {
		case action.MouseX:
			m.relMouseX += a.MouseDelta
		case action.MouseY:
			m.relMouseY += a.MouseDelta
		case action.MouseWheel:
			if a.MouseDelta != 0 {
				m.output.MouseWheelRel(int32(a.MouseDelta))
			}
		}

	case action.KindSetLayerMask:
		m.nextLayerMask = a.LayerMask
		m.hasNextLayer = true

	case action.KindToggleShapes:
		id := stageIDFromAction(a.ShapeStageID)
		m.nextShapeState[id][a.ShapeLayer] = a.ShapeMask

	case action.KindToggleOverlayUI:
		if m.overlaySnk != nil {
			m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdToggleUI})
		}

	case action.KindHapticFeedback:
		if m.controller != nil {
			m.controller.SendHaptic(a.HapticTarget, a.HapticEffect)
		}

	case action.KindSendOverlayMenuCommand:
		if m.overlaySnk == nil {
			return
		}
		m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdMenuCommand, MenuCommand: int(a.MenuCommand)})
		if a.MenuCommand != action.CloseKnobsMenu {
			return
		}

		reply := make(chan []overlay.KnobSnapshot, 1)
		m.overlaySnk.Send(overlay.Command{Kind: overlay.CmdGetKnobs, ReplyKnobs: reply})
		knobs := <-reply // blocking round trip, per the concurrency model
		if len(knobs) != len(m.knobs) {
			panic("mapper: overlay returned a different knob count than was registered")
		}

		for i := range m.knobs {
			if !knobEquals(m.knobs[i], knobs[i]) {
				m.knobsChanged = true
				break
			}
		}
		if m.knobsChanged {
			m.knobs = knobSnapshotsToKnobs(knobs, m.knobs)
		}
	}
}
