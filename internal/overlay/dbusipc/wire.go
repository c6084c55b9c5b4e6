// Package dbusipc carries overlay.Command/Sink across the mapper/overlay
// process boundary over the session bus: fire-and-forget commands go out
// as a "Command" signal, GetKnobs is a synchronous method call, and probe
// registrations (whose results can't cross a process boundary as a Go
// channel) are turned into a method call that returns a subscription id
// plus a recurring "ProbeResult" signal keyed by that id. Every payload is
// a single JSON string argument: the command set's tagged-union shape
// doesn't map cleanly onto the D-Bus type system, and the teacher's pack
// has no existing D-Bus wire-struct convention to follow instead.
package dbusipc

import "ctlmapper/internal/overlay"

const (
	BusName      = "com.ctlmapper.Overlay"
	ObjectPath   = "/com/ctlmapper/Overlay"
	InterfaceName = "com.ctlmapper.Overlay1"

	SignalCommand      = InterfaceName + ".Command"
	SignalProbeResult  = InterfaceName + ".ProbeResult"
	MethodGetKnobs     = InterfaceName + ".GetKnobs"
	MethodAddScreen    = InterfaceName + ".AddScreenScrapingArea"
	MethodAddMemory    = InterfaceName + ".AddMemoryCheck"
	MethodAddOverlay   = InterfaceName + ".AddOverlayCheck"
)

// commandDTO is the JSON-serializable subset of overlay.Command: every
// field except the reply channels, which never leave the process that
// created them.
type commandDTO struct {
	Kind overlay.CommandKind

	LayerNames []string `json:",omitempty"`
	Mode       uint64   `json:",omitempty"`
	StatusText string   `json:",omitempty"`
	HasStatus  bool     `json:",omitempty"`

	ShapeStageID uint64            `json:",omitempty"`
	ShapeLayers  [][]overlay.Shape `json:",omitempty"`
	ShapeLayer   uint8             `json:",omitempty"`
	ShapeMask    uint64            `json:",omitempty"`

	Knobs []overlay.KnobSnapshot `json:",omitempty"`

	MenuCommand int `json:",omitempty"`
}

func toDTO(cmd overlay.Command) commandDTO {
	return commandDTO{
		Kind:         cmd.Kind,
		LayerNames:   cmd.LayerNames,
		Mode:         cmd.Mode,
		StatusText:   cmd.StatusText,
		HasStatus:    cmd.HasStatus,
		ShapeStageID: cmd.ShapeStageID,
		ShapeLayers:  cmd.ShapeLayers,
		ShapeLayer:   cmd.ShapeLayer,
		ShapeMask:    cmd.ShapeMask,
		Knobs:        cmd.Knobs,
		MenuCommand:  cmd.MenuCommand,
	}
}

func (d commandDTO) toCommand() overlay.Command {
	return overlay.Command{
		Kind:         d.Kind,
		LayerNames:   d.LayerNames,
		Mode:         d.Mode,
		StatusText:   d.StatusText,
		HasStatus:    d.HasStatus,
		ShapeStageID: d.ShapeStageID,
		ShapeLayers:  d.ShapeLayers,
		ShapeLayer:   d.ShapeLayer,
		ShapeMask:    d.ShapeMask,
		Knobs:        d.Knobs,
		MenuCommand:  d.MenuCommand,
	}
}

// probeResultDTO is pushed by the overlay process on SignalProbeResult for
// a subscription id returned by one of the Add* methods.
type probeResultDTO struct {
	ID     string
	Screen *overlay.ScreenScrapingResult `json:",omitempty"`
	U64    *uint64                       `json:",omitempty"`
	Bool   *bool                         `json:",omitempty"`
}
