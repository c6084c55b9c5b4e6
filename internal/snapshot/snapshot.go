// Package snapshot defines the fixed controller sample record consumed by
// the mapper each tick: 23 named buttons and 23 named axes.
package snapshot

// Button names a boolean controller input.
type Button int

const (
	LStick Button = iota
	RStick
	RPadTouch
	LPadTouch
	RPad
	LPad
	RGrip
	LGrip
	Start
	Steam
	Back
	DPadDown
	DPadLeft
	DPadRight
	DPadUp
	A
	X
	B
	Y
	LBump
	RBump
	LTrig
	RTrig
	buttonCount
)

// Axis names a float controller input. All axes normalize to -1.0..=1.0
// except LTrig/RTrig which normalize to 0.0..=1.0. Q0-Q3 are raw i16
// quaternion channels; AbsPitch/AbsRoll/AbsYaw are host-derived orientation.
type Axis int

const (
	AxisLTrig Axis = iota
	AxisRTrig
	AxisLJoyX
	AxisLJoyY
	AxisRJoyX
	AxisRJoyY
	AxisLPadX
	AxisLPadY
	AxisRPadX
	AxisRPadY
	AxisAX
	AxisAY
	AxisAZ
	AxisPitch
	AxisRoll
	AxisYaw
	AxisQ0
	AxisQ1
	AxisQ2
	AxisQ3
	AxisAbsPitch
	AxisAbsRoll
	AxisAbsYaw
	axisCount
)

var buttonNames = map[string]Button{
	"lstick": LStick, "rstick": RStick, "rpad_touch": RPadTouch, "lpad_touch": LPadTouch,
	"rpad": RPad, "lpad": LPad, "rgrip": RGrip, "lgrip": LGrip, "start": Start,
	"steam": Steam, "back": Back, "dpad_down": DPadDown, "dpad_left": DPadLeft,
	"dpad_right": DPadRight, "dpad_up": DPadUp, "a": A, "x": X, "b": B, "y": Y,
	"lbump": LBump, "rbump": RBump, "ltrig_btn": LTrig, "rtrig_btn": RTrig,
}

var axisNames = map[string]Axis{
	"ltrig": AxisLTrig, "rtrig": AxisRTrig, "ljoy_x": AxisLJoyX, "ljoy_y": AxisLJoyY,
	"rjoy_x": AxisRJoyX, "rjoy_y": AxisRJoyY, "lpad_x": AxisLPadX, "lpad_y": AxisLPadY,
	"rpad_x": AxisRPadX, "rpad_y": AxisRPadY, "ax": AxisAX, "ay": AxisAY, "az": AxisAZ,
	"pitch": AxisPitch, "roll": AxisRoll, "yaw": AxisYaw,
	"q0": AxisQ0, "q1": AxisQ1, "q2": AxisQ2, "q3": AxisQ3,
	"abs_pitch": AxisAbsPitch, "abs_roll": AxisAbsRoll, "abs_yaw": AxisAbsYaw,
}

// ButtonByName looks up a button by its config-language token.
func ButtonByName(name string) (Button, bool) { b, ok := buttonNames[name]; return b, ok }

// AxisByName looks up an axis by its config-language token.
func AxisByName(name string) (Axis, bool) { a, ok := axisNames[name]; return a, ok }

// Snapshot is one tick's worth of controller state.
type Snapshot struct {
	Buttons [buttonCount]bool
	Axes    [axisCount]float32
}

// Empty returns the all-zeros snapshot used for disengagement passes.
func Empty() Snapshot { return Snapshot{} }

// Button reads a named boolean input.
func (s *Snapshot) Button(b Button) bool { return s.Buttons[b] }

// AxisValue reads a named float input.
func (s *Snapshot) AxisValue(a Axis) float32 { return s.Axes[a] }
