// Package sdlio implements hostio's collaborators against the local
// machine: go-sdl2 controller enumeration/identification/haptics, and a
// Linux uinput virtual keyboard and mouse as the KeyMouseSink.
package sdlio

import (
	"fmt"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

// Controller identifies one attached game controller, mirroring the
// name/path/serial triple the controller-selection flag matches against.
type Controller interface {
	Name() string
	Path() string
	Serial() (string, bool)
}

type sdlController struct {
	raw  *sdl.GameController
	name string
	guid string
}

func (c *sdlController) Name() string { return c.name }

// Path has no OS device-path equivalent in this binding (unlike the
// FreeBSD /dev/uhid path the original reads via a raw SDL call), so it's
// built from the joystick GUID, which is stable per physical device.
func (c *sdlController) Path() string { return "//sdl/" + c.guid }

// Serial always reports absent: this binding doesn't expose
// SDL_GameControllerGetSerial, and the original's own SDL backend treats
// its GUID field as "is this actually useful?" rather than a real serial.
// Identification against --controller falls back to name/path matching.
func (c *sdlController) Serial() (string, bool) { return "", false }

// AvailableControllers enumerates every attached SDL game controller.
func AvailableControllers() ([]Controller, error) {
	if err := sdl.Init(sdl.INIT_GAMECONTROLLER | sdl.INIT_JOYSTICK | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdlio: sdl init: %w", err)
	}

	n := sdl.NumJoysticks()
	out := make([]Controller, 0, n)
	for i := 0; i < n; i++ {
		if !sdl.IsGameController(i) {
			continue
		}
		raw := sdl.GameControllerOpen(i)
		if raw == nil {
			continue
		}
		name := sdl.GameControllerNameForIndex(i)
		guid := sdl.JoystickGetGUIDString(sdl.JoystickGetDeviceGUID(i))
		out = append(out, &sdlController{raw: raw, name: name, guid: guid})
	}
	return out, nil
}

// Find looks up a controller by serial, then by path substring, then by
// name substring, matching the original find_controller's fallthrough
// order. A nil/empty query returns the first available controller.
func Find(controllers []Controller, query string) (Controller, bool) {
	if query == "" {
		if len(controllers) == 0 {
			return nil, false
		}
		return controllers[0], true
	}
	q := strings.ToLower(query)

	for _, c := range controllers {
		if serial, ok := c.Serial(); ok && strings.ToLower(serial) == q {
			return c, true
		}
	}
	for _, c := range controllers {
		if strings.Contains(strings.ToLower(c.Path()), q) {
			return c, true
		}
	}
	for _, c := range controllers {
		if strings.Contains(strings.ToLower(c.Name()), q) {
			return c, true
		}
	}
	return nil, false
}
