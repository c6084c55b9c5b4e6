package sdlio

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"ctlmapper/internal/action"
)

// Linux uinput/evdev ioctl numbers, derived from the standard
// _IOW(UINPUT_IOCTL_BASE, nr, int)/_IO(UINPUT_IOCTL_BASE, nr) encoding
// ('U' == 0x55); not exposed by golang.org/x/sys/unix, which stops at the
// generic ioctl syscall wrapper.
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
)

// evdev event types/codes, from linux/input-event-codes.h. Kernel ABI
// constants, not a Go library surface, so they're declared locally rather
// than imported.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0

	relX     = 0x00
	relY     = 0x01
	relWheel = 0x08

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

var keyCodes = map[action.Key]uint16{
	action.KeyA: 30, action.KeyB: 48, action.KeyC: 46, action.KeyD: 32,
	action.KeyE: 18, action.KeyF: 33, action.KeyG: 34, action.KeyH: 35,
	action.KeyI: 23, action.KeyJ: 36, action.KeyK: 37, action.KeyL: 38,
	action.KeyM: 50, action.KeyN: 49, action.KeyO: 24, action.KeyP: 25,
	action.KeyQ: 16, action.KeyR: 19, action.KeyS: 31, action.KeyT: 20,
	action.KeyU: 22, action.KeyV: 47, action.KeyW: 17, action.KeyX: 45,
	action.KeyY: 21, action.KeyZ: 44,
	action.Key0: 11, action.Key1: 2, action.Key2: 3, action.Key3: 4,
	action.Key4: 5, action.Key5: 6, action.Key6: 7, action.Key7: 8,
	action.Key8: 9, action.Key9: 10,
	action.KeyF1: 59, action.KeyF2: 60, action.KeyF3: 61, action.KeyF4: 62,
	action.KeyF5: 63, action.KeyF6: 64, action.KeyF7: 65, action.KeyF8: 66,
	action.KeyF9: 67, action.KeyF10: 68, action.KeyF11: 87, action.KeyF12: 88,
	action.KeyUp: 103, action.KeyDown: 108, action.KeyLeft: 105, action.KeyRight: 106,
	action.KeySpace: 57, action.KeyEnter: 28, action.KeyEscape: 1, action.KeyTab: 15,
	action.KeyBackspace: 14,
	action.KeyLShift:    42, action.KeyRShift: 54,
	action.KeyLCtrl:     29, action.KeyRCtrl: 97,
	action.KeyLAlt:      56, action.KeyRAlt: 100,
}

var mouseButtonCodes = map[action.MouseButton]uint16{
	action.MouseLeft:   btnLeft,
	action.MouseRight:  btnRight,
	action.MouseMiddle: btnMiddle,
}

// inputEvent mirrors struct input_event on 64-bit Linux: two 8-byte
// timeval fields followed by a 2-byte type, 2-byte code and 4-byte value,
// 24 bytes total with no implicit padding.
type inputEvent struct {
	sec, usec   int64
	typ, code   uint16
	value       int32
}

// device is a single uinput virtual input node.
type device struct {
	f *os.File
}

func createDevice(name string, evBits []int, keyBits []uint16, relBits []int) (*device, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("sdlio: open /dev/uinput: %w", err)
	}
	fd := int(f.Fd())

	for _, bit := range evBits {
		if err := unix.IoctlSetInt(fd, uiSetEvBit, bit); err != nil {
			f.Close()
			return nil, fmt.Errorf("sdlio: UI_SET_EVBIT %d: %w", bit, err)
		}
	}
	for _, code := range keyBits {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
			f.Close()
			return nil, fmt.Errorf("sdlio: UI_SET_KEYBIT %d: %w", code, err)
		}
	}
	for _, bit := range relBits {
		if err := unix.IoctlSetInt(fd, uiSetRelBit, bit); err != nil {
			f.Close()
			return nil, fmt.Errorf("sdlio: UI_SET_RELBIT %d: %w", bit, err)
		}
	}

	var userDev struct {
		Name                               [80]byte
		Bustype, Vendor, Product, Version  uint16
		FFEffectsMax                       int32
		AbsMax, AbsMin, AbsFuzz, AbsFlat   [64]int32
	}
	copy(userDev.Name[:], name)
	if err := binary.Write(f, binary.LittleEndian, &userDev); err != nil {
		f.Close()
		return nil, fmt.Errorf("sdlio: write uinput_user_dev: %w", err)
	}

	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("sdlio: UI_DEV_CREATE: %w", err)
	}

	return &device{f: f}, nil
}

func (d *device) emit(typ, code uint16, value int32) {
	ev := inputEvent{typ: typ, code: code, value: value}
	_ = binary.Write(d.f, binary.LittleEndian, &ev)
}

func (d *device) close() {
	_ = unix.IoctlSetInt(int(d.f.Fd()), uiDevDestroy, 0)
	_ = d.f.Close()
}

// KeyMouse is the Linux uinput implementation of hostio.KeyMouseSink,
// backed by two virtual devices (keyboard, mouse) to mirror the original's
// output/uinput.rs split.
type KeyMouse struct {
	keyboard *device
	mouse    *device
}

// NewKeyMouse creates the keyboard and mouse uinput devices.
func NewKeyMouse() (*KeyMouse, error) {
	keys := make([]uint16, 0, len(keyCodes))
	for _, code := range keyCodes {
		keys = append(keys, code)
	}
	keyboard, err := createDevice("ctlmapper keyboard", []int{evKey}, keys, nil)
	if err != nil {
		return nil, err
	}

	mouseButtons := make([]uint16, 0, len(mouseButtonCodes))
	for _, code := range mouseButtonCodes {
		mouseButtons = append(mouseButtons, code)
	}
	mouse, err := createDevice("ctlmapper mouse", []int{evKey, evRel}, mouseButtons, []int{relX, relY, relWheel})
	if err != nil {
		keyboard.close()
		return nil, err
	}

	return &KeyMouse{keyboard: keyboard, mouse: mouse}, nil
}

func (k *KeyMouse) KeyDown(key action.Key) {
	if code, ok := keyCodes[key]; ok {
		k.keyboard.emit(evKey, code, 1)
	}
}

func (k *KeyMouse) KeyUp(key action.Key) {
	if code, ok := keyCodes[key]; ok {
		k.keyboard.emit(evKey, code, 0)
	}
}

func (k *KeyMouse) MouseButtonDown(b action.MouseButton) {
	if code, ok := mouseButtonCodes[b]; ok {
		k.mouse.emit(evKey, code, 1)
	}
}

func (k *KeyMouse) MouseButtonUp(b action.MouseButton) {
	if code, ok := mouseButtonCodes[b]; ok {
		k.mouse.emit(evKey, code, 0)
	}
}

func (k *KeyMouse) MouseCursorRelXY(dx, dy int32) {
	k.mouse.emit(evRel, relX, dx)
	k.mouse.emit(evRel, relY, dy)
}

func (k *KeyMouse) MouseWheelRel(delta int32) {
	k.mouse.emit(evRel, relWheel, delta)
}

// Syn flushes a SYN_REPORT to both devices, batching the tick's edges and
// motion into one input event group (the reason hostio.KeyMouseSink
// separates Syn from the per-edge calls).
func (k *KeyMouse) Syn() {
	k.keyboard.emit(evSyn, synReport, 0)
	k.mouse.emit(evSyn, synReport, 0)
}

// Close destroys both uinput devices.
func (k *KeyMouse) Close() {
	k.keyboard.close()
	k.mouse.close()
}
