// Package overlay defines the abstract overlay command set (§6) and a
// transport-agnostic sink interface the mapper sends them through. Concrete
// transports live in the dbusipc and fyneui subpackages.
package overlay

// Length is a CSS-like measurement: absolute pixels plus viewport-relative
// components, resolved against the overlay's current screen size.
type Length struct {
	Px, Vw, Vh float32
}

func (l Length) ToPx(screenW, screenH uint32) float32 {
	return l.Px + float32(screenW)*0.01*l.Vw + float32(screenH)*0.01*l.Vh
}

// Point is a screen position in Length units.
type Point struct{ X, Y Length }

// Color is an RGBA overlay draw color.
type Color struct{ R, G, B, A uint8 }

// ShapeKind discriminates the Shape tagged variant used for menu/overlay
// rendering.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeRing
	ShapeRingSector
	ShapeRegularHexagon
)

// Shape is one overlay-drawn primitive, registered per stage/layer and
// toggled visible/hidden by ToggleShapes actions.
type Shape struct {
	Kind ShapeKind

	Center Point
	Color  Color
	Label  string
	HasLabel bool

	Radius      Length // Circle
	InnerRadius Length // Ring, RingSector
	OuterRadius Length // Ring, RingSector
	Direction   float32 // RingSector, radians
	Width       float32 // RingSector, radians
	Circumradius Length // RegularHexagon
}

// CommandKind discriminates the OverlayCommand tagged variant.
type CommandKind int

const (
	CmdResetOverlay CommandKind = iota
	CmdSetLayerNames
	CmdSetMode
	CmdSetStatusText
	CmdRegisterShapes
	CmdToggleShapes
	CmdRegisterKnobs
	CmdGetKnobs
	CmdMenuCommand
	CmdAddScreenScrapingArea
	CmdAddMemoryCheck
	CmdAddOverlayCheck
	CmdToggleUI
)

// Command is one message the mapper sends to the overlay sink. Reply
// channels are used only by the three Add* registration commands and by
// GetKnobs.
type Command struct {
	Kind CommandKind

	LayerNames []string
	Mode       uint64
	StatusText string
	HasStatus  bool

	ShapeStageID uint64
	ShapeLayers  [][]Shape
	ShapeLayer   uint8
	ShapeMask    uint64

	Knobs []KnobSnapshot

	MenuCommand int

	ScreenArea ScreenScrapingArea
	ReplyScreen chan ScreenScrapingResult

	MemPtrSize uint8
	MemBase    uint64
	MemOffsets []int32
	ReplyU64   chan uint64

	OverlayCheckName string
	ReplyBool        chan bool

	ReplyKnobs chan []KnobSnapshot
}

// KnobSnapshot mirrors action.Knob without importing the mapper's action
// package, keeping overlay a leaf dependency the way the teacher keeps
// internal/debug free of internal/cpu.
type KnobSnapshot struct {
	Kind        int
	Name        string
	Flag        bool
	EnumIndex   int
	EnumOptions []string
	NumberValue float32
	NumberMin   float32
	NumberMax   float32
}

// ScreenScrapingArea is a registered screen_probe region.
type ScreenScrapingArea struct {
	X1, Y1, X2, Y2                         float32
	MinHue, MaxHue, MinSat, MaxSat, MinVal, MaxVal float32
	Threshold1, Threshold2                 float32
}

// ScreenScrapingResult is what the overlay reports back per tick for a
// registered screen area.
type ScreenScrapingResult struct {
	PixelsInRange float64
	Uniformity    float64
}

// Sink is the send-only capability the mapper holds for the overlay
// channel; fire-and-forget except GetKnobs's synchronous round trip
// (§5 concurrency model).
type Sink interface {
	Send(cmd Command)
}
