package sdlio

import (
	"github.com/veandco/go-sdl2/sdl"

	"ctlmapper/internal/action"
	"ctlmapper/internal/snapshot"
)

const axisScale = 1.0 / 32767.0

// Source implements hostio.SnapshotSource over a one-slot channel fed by
// PollLoop; it's lossy by construction: while one sample is waiting to be
// received, PollLoop drops the newer ones, so Recv returns the oldest
// unreceived sample and never a backlog of more than one.
type Source struct{ ch chan snapshot.Snapshot }

func (s *Source) Recv() (snapshot.Snapshot, bool) {
	v, ok := <-s.ch
	return v, ok
}

// Haptics implements hostio.ControllerSink as a non-blocking, lossy queue
// to PollLoop (§5: "drops on disconnect" is modeled as dropping on a full
// queue, since there's no disconnect signal to distinguish from backlog).
type Haptics struct{ ch chan hapticCmd }

type hapticCmd struct {
	target action.HapticTarget
	effect action.HapticEffect
}

func (h *Haptics) SendHaptic(target action.HapticTarget, effect action.HapticEffect) {
	select {
	case h.ch <- hapticCmd{target, effect}:
	default:
	}
}

// StartPolling launches PollLoop in its own goroutine and returns the
// SnapshotSource/ControllerSink pair the mapper is wired against.
func StartPolling(controller Controller) (*Source, *Haptics) {
	out := make(chan snapshot.Snapshot, 1)
	haptics := make(chan hapticCmd, 1)
	go PollLoop(controller, out, haptics)
	return &Source{ch: out}, &Haptics{ch: haptics}
}

// PollLoop drains controller's SDL event queue into a snapshot.Snapshot
// once per iteration, publishes it to out, and applies at most one queued
// haptic command, at roughly the original's 8ms poll interval. It blocks
// forever; run it in its own goroutine.
func PollLoop(controller Controller, out chan snapshot.Snapshot, haptics chan hapticCmd) {
	c, ok := controller.(*sdlController)
	if !ok {
		return
	}
	state := snapshot.Empty()

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.ControllerAxisEvent:
				applyAxis(&state, e)
			case *sdl.ControllerButtonEvent:
				applyButton(&state, e)
			}
		}

		select {
		case out <- state:
		default:
		}

		select {
		case cmd := <-haptics:
			applyHaptic(c.raw, cmd)
		default:
		}

		sdl.Delay(8)
	}
}

func applyAxis(s *snapshot.Snapshot, e *sdl.ControllerAxisEvent) {
	v := float32(e.Value) * axisScale
	switch sdl.GameControllerAxis(e.Axis) {
	case sdl.CONTROLLER_AXIS_LEFTX:
		s.Axes[snapshot.AxisLJoyX] = v
	case sdl.CONTROLLER_AXIS_LEFTY:
		s.Axes[snapshot.AxisLJoyY] = -v
	case sdl.CONTROLLER_AXIS_RIGHTX:
		s.Axes[snapshot.AxisRJoyX] = v
	case sdl.CONTROLLER_AXIS_RIGHTY:
		s.Axes[snapshot.AxisRJoyY] = -v
	case sdl.CONTROLLER_AXIS_TRIGGERLEFT:
		s.Axes[snapshot.AxisLTrig] = v
	case sdl.CONTROLLER_AXIS_TRIGGERRIGHT:
		s.Axes[snapshot.AxisRTrig] = v
	}
}

func applyButton(s *snapshot.Snapshot, e *sdl.ControllerButtonEvent) {
	down := e.State == sdl.PRESSED
	switch sdl.GameControllerButton(e.Button) {
	case sdl.CONTROLLER_BUTTON_A:
		s.Buttons[snapshot.A] = down
	case sdl.CONTROLLER_BUTTON_B:
		s.Buttons[snapshot.B] = down
	case sdl.CONTROLLER_BUTTON_X:
		s.Buttons[snapshot.X] = down
	case sdl.CONTROLLER_BUTTON_Y:
		s.Buttons[snapshot.Y] = down
	case sdl.CONTROLLER_BUTTON_BACK:
		s.Buttons[snapshot.Back] = down
	case sdl.CONTROLLER_BUTTON_GUIDE:
		s.Buttons[snapshot.Steam] = down
	case sdl.CONTROLLER_BUTTON_START:
		s.Buttons[snapshot.Start] = down
	case sdl.CONTROLLER_BUTTON_LEFTSTICK:
		s.Buttons[snapshot.LStick] = down
	case sdl.CONTROLLER_BUTTON_RIGHTSTICK:
		s.Buttons[snapshot.RStick] = down
	case sdl.CONTROLLER_BUTTON_LEFTSHOULDER:
		s.Buttons[snapshot.LBump] = down
	case sdl.CONTROLLER_BUTTON_RIGHTSHOULDER:
		s.Buttons[snapshot.RBump] = down
	case sdl.CONTROLLER_BUTTON_DPAD_UP:
		s.Buttons[snapshot.DPadUp] = down
	case sdl.CONTROLLER_BUTTON_DPAD_DOWN:
		s.Buttons[snapshot.DPadDown] = down
	case sdl.CONTROLLER_BUTTON_DPAD_LEFT:
		s.Buttons[snapshot.DPadLeft] = down
	case sdl.CONTROLLER_BUTTON_DPAD_RIGHT:
		s.Buttons[snapshot.DPadRight] = down
	case sdl.CONTROLLER_BUTTON_PADDLE1:
		s.Buttons[snapshot.RGrip] = down
	case sdl.CONTROLLER_BUTTON_PADDLE2:
		s.Buttons[snapshot.LGrip] = down
	case sdl.CONTROLLER_BUTTON_TOUCHPAD:
		s.Buttons[snapshot.RPad] = down
	}
}

// applyHaptic reproduces sdlgc.rs's amplitude/duration table and
// side-to-rumble-channel mapping.
func applyHaptic(ctrl *sdl.GameController, cmd hapticCmd) {
	var amplitude uint16
	switch cmd.effect {
	case action.SlightBump:
		amplitude = 3275
	case action.ModerateBump:
		amplitude = 6550
	}
	const durationMs = 50

	switch cmd.target {
	case action.LeftSide:
		_ = ctrl.Rumble(amplitude, 0, durationMs)
	case action.RightSide:
		_ = ctrl.Rumble(0, amplitude, durationMs)
	case action.LeftTrigger:
		_ = ctrl.RumbleTriggers(amplitude, 0, durationMs)
	case action.RightTrigger:
		_ = ctrl.RumbleTriggers(0, amplitude, durationMs)
	}
}
