// Package action defines the abstract effects terminal stages emit
// (§3 Action) and the overlay command set (§6) hosts reify into OS/IPC
// calls.
package action

import "ctlmapper/internal/layermask"

// Key is a synthetic keyboard key, named rather than using raw scancodes so
// host adapters (uinput/XTest/evdev) can each pick their own encoding.
type Key int

const (
	KeyA Key = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyLShift
	KeyRShift
	KeyLCtrl
	KeyRCtrl
	KeyLAlt
	KeyRAlt
	keyCount
)

var keyNames = map[Key]string{
	KeyA: "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F", KeyG: "G",
	KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L", KeyM: "M", KeyN: "N",
	KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R", KeyS: "S", KeyT: "T", KeyU: "U",
	KeyV: "V", KeyW: "W", KeyX: "X", KeyY: "Y", KeyZ: "Z",
	Key0: "0", Key1: "1", Key2: "2", Key3: "3", Key4: "4",
	Key5: "5", Key6: "6", Key7: "7", Key8: "8", Key9: "9",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	KeyUp: "Up", KeyDown: "Down", KeyLeft: "Left", KeyRight: "Right",
	KeySpace: "Space", KeyEnter: "Enter", KeyEscape: "Escape", KeyTab: "Tab",
	KeyBackspace: "Backspace", KeyLShift: "LShift", KeyRShift: "RShift",
	KeyLCtrl: "LCtrl", KeyRCtrl: "RCtrl", KeyLAlt: "LAlt", KeyRAlt: "RAlt",
}

// String returns the config-language token for k (e.g. "A", "F1", "LShift").
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// AllKeys enumerates every named key, in declaration order, for building the
// config language's `Kb` struct (one entry per key, keyed by its name).
func AllKeys() []Key {
	keys := make([]Key, 0, int(keyCount))
	for k := Key(0); k < keyCount; k++ {
		keys = append(keys, k)
	}
	return keys
}

// MouseButton is a synthetic mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	mouseButtonCount
)

// AllMouseButtons enumerates every mouse button, in declaration order, for
// the mapper's current/next edge-detection state arrays.
func AllMouseButtons() []MouseButton {
	buttons := make([]MouseButton, 0, int(mouseButtonCount))
	for b := MouseButton(0); b < mouseButtonCount; b++ {
		buttons = append(buttons, b)
	}
	return buttons
}

// MouseAxis selects which mouse channel MoveMouse targets.
type MouseAxis int

const (
	MouseX MouseAxis = iota
	MouseY
	MouseWheel
)

// HapticTarget names which physical actuator a haptic command addresses.
type HapticTarget int

const (
	LeftSide HapticTarget = iota
	RightSide
	LeftTrigger
	RightTrigger
)

// HapticEffect is a canned haptic waveform.
type HapticEffect int

const (
	SlightBump HapticEffect = iota
	ModerateBump
)

// Kind discriminates the Action tagged variant.
type Kind int

const (
	KindPressKey Kind = iota
	KindPressMouseButton
	KindMoveMouse
	KindSetLayerMask
	KindToggleShapes
	KindToggleOverlayUI
	KindHapticFeedback
	KindSendOverlayMenuCommand
)

// Action is the abstract effect terminal stages append to the tick's action
// buffer; see Mapper.reify for how each variant is consumed.
type Action struct {
	Kind Kind

	Key         Key
	MouseButton MouseButton
	MouseAxis   MouseAxis
	MouseDelta  float32

	LayerMask layermask.Mask

	ShapeStageID uint64
	ShapeLayer   uint8
	ShapeMask    uint64

	HapticTarget HapticTarget
	HapticEffect HapticEffect

	MenuCommand MenuCommand
}

func PressKey(k Key) Action              { return Action{Kind: KindPressKey, Key: k} }
func PressMouseButton(b MouseButton) Action { return Action{Kind: KindPressMouseButton, MouseButton: b} }
func MoveMouse(axis MouseAxis, delta float32) Action {
	return Action{Kind: KindMoveMouse, MouseAxis: axis, MouseDelta: delta}
}
func SetLayerMask(m layermask.Mask) Action { return Action{Kind: KindSetLayerMask, LayerMask: m} }
func ToggleShapes(stageID uint64, layer uint8, mask uint64) Action {
	return Action{Kind: KindToggleShapes, ShapeStageID: stageID, ShapeLayer: layer, ShapeMask: mask}
}
func ToggleOverlayUI() Action { return Action{Kind: KindToggleOverlayUI} }
func HapticFeedback(target HapticTarget, effect HapticEffect) Action {
	return Action{Kind: KindHapticFeedback, HapticTarget: target, HapticEffect: effect}
}
func SendOverlayMenuCommand(c MenuCommand) Action {
	return Action{Kind: KindSendOverlayMenuCommand, MenuCommand: c}
}

// MenuCommand is the overlay's knobs-menu navigation protocol.
type MenuCommand int

const (
	OpenKnobsMenu MenuCommand = iota
	SelectPrevMenuItem
	SelectNextMenuItem
	SelectPrevValue
	SelectNextValue
	CloseKnobsMenu
)
