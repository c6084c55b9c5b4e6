// Package fyneui is a concrete overlay.Sink backed by a Fyne window: status
// text, per-stage shape layers, and a keyboard-navigable knobs menu.
// Grounded on the teacher's internal/ui.FyneUI (fyne.App/Window setup,
// canvas.Image/widget.Label wiring, fyne.Do-marshaled updates from a
// non-UI goroutine).
package fyneui

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"ctlmapper/internal/action"
	"ctlmapper/internal/config"
	"ctlmapper/internal/diag"
	"ctlmapper/internal/hostio/memprobe"
	"ctlmapper/internal/hostio/screenprobe"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
)

// probePollInterval paces the screen/memory probe backends independently
// of the mapper's own tick rate — a full portal screenshot + HSV classify
// per controller tick would be far more capture bandwidth than any
// screen_probe use case needs.
const probePollInterval = 50 * time.Millisecond

// Renderer owns the Fyne window and is the mapper's concrete overlay.Sink.
// Send is called from the mapper's goroutine; every mutation of Fyne state
// is marshaled onto the UI goroutine with fyne.Do/fyne.DoAndWait, since
// Fyne canvas objects aren't safe to touch off-thread.
type Renderer struct {
	app    fyne.App
	window fyne.Window

	statusLabel *widget.Label
	layerLabel  *widget.Label
	layerNames  []string

	shapesRoot *fyne.Container
	shapes     map[uint64][][]fyne.CanvasObject // stage id -> layer -> shape objects
	shapeSpecs map[uint64][][]overlay.Shape

	knobsRoot *fyne.Container
	knobRows  []*knobRow
	knobs     []overlay.KnobSnapshot
	selected  int
	menuOpen  bool

	strings *localizer
	log     *diag.Logger

	screenCapturer screenprobe.Capturer
	memReader      *memprobe.Reader
}

type knobRow struct {
	nameLabel  *widget.Label
	valueLabel *widget.Label
	row        *fyne.Container
}

// NewRenderer builds an unshown Fyne window. Call Run on the main goroutine
// once the mapper has started sending commands from its own goroutine. The
// screen-scraping and memory-check probe backends read the overlay
// process's own address space and screen by default — see
// internal/hostio/memprobe's doc comment for why memory_probe's target
// can't be resolved any more precisely than that from the config DSL alone.
func NewRenderer(title string, log *diag.Logger) *Renderer {
	fyneApp := app.NewWithID("com.ctlmapper.overlay")
	window := fyneApp.NewWindow(title)
	window.SetFullScreen(true)

	r := &Renderer{
		app:            fyneApp,
		window:         window,
		statusLabel:    widget.NewLabel(""),
		layerLabel:     widget.NewLabel(""),
		shapesRoot:     container.NewWithoutLayout(),
		shapes:         map[uint64][][]fyne.CanvasObject{},
		shapeSpecs:     map[uint64][][]overlay.Shape{},
		knobsRoot:      container.NewVBox(),
		strings:        newLocalizer(),
		log:            log,
		screenCapturer: screenprobe.Capturer{},
		memReader:      memprobe.NewReader(os.Getpid()),
	}
	r.knobsRoot.Hide()
	r.statusLabel.SetText(r.strings.waitingForConnection())

	top := container.NewHBox(r.layerLabel, r.statusLabel)
	content := container.NewBorder(top, r.knobsRoot, nil, nil, r.shapesRoot)
	window.SetContent(content)
	window.Resize(fyne.NewSize(1280, 720))

	return r
}

// Run blocks showing the window until it's closed.
func (r *Renderer) Run() { r.window.ShowAndRun() }

// Knobs returns the most recently registered knob snapshots, for a dbusipc
// Listener's GetKnobs handler to read without the mapper process needing
// its own copy.
func (r *Renderer) Knobs() []overlay.KnobSnapshot { return r.knobs }

// Send implements overlay.Sink.
func (r *Renderer) Send(cmd overlay.Command) {
	switch cmd.Kind {
	case overlay.CmdResetOverlay:
		fyne.Do(r.reset)

	case overlay.CmdSetLayerNames:
		fyne.Do(func() {
			r.layerNames = cmd.LayerNames
		})

	case overlay.CmdSetMode:
		fyne.Do(func() {
			r.layerLabel.SetText(r.strings.modeLabel(layerNamesForMask(r.layerNames, cmd.Mode)))
		})

	case overlay.CmdSetStatusText:
		fyne.Do(func() {
			if cmd.HasStatus {
				r.statusLabel.SetText(cmd.StatusText)
			} else {
				r.statusLabel.SetText("")
			}
		})

	case overlay.CmdRegisterShapes:
		fyne.Do(func() { r.registerShapes(cmd.ShapeStageID, cmd.ShapeLayers) })

	case overlay.CmdToggleShapes:
		fyne.Do(func() { r.toggleShapes(cmd.ShapeStageID, cmd.ShapeLayer, cmd.ShapeMask) })

	case overlay.CmdRegisterKnobs:
		fyne.Do(func() { r.registerKnobs(cmd.Knobs) })

	case overlay.CmdGetKnobs:
		fyne.DoAndWait(func() {
			cmd.ReplyKnobs <- append([]overlay.KnobSnapshot(nil), r.knobs...)
		})

	case overlay.CmdMenuCommand:
		fyne.Do(func() { r.handleMenuCommand(cmd.MenuCommand) })

	case overlay.CmdToggleUI:
		fyne.Do(func() {
			if r.window.FullScreen() {
				r.window.SetFullScreen(false)
			} else {
				r.window.SetFullScreen(true)
			}
		})

	case overlay.CmdAddScreenScrapingArea:
		go r.pollScreenProbe(cmd)

	case overlay.CmdAddMemoryCheck:
		go r.pollMemoryProbe(cmd)

	case overlay.CmdAddOverlayCheck:
		go r.pollOverlayProbe(cmd)
	}
}

// pollScreenProbe services one registered screen_probe: capture the
// screen through the desktop portal, classify the HSV-bounded region
// against it at probePollInterval, and push results non-blocking so a
// mapper that hasn't drained the previous sample never stalls this loop.
func (r *Renderer) pollScreenProbe(cmd overlay.Command) {
	area := probe.ScreenArea{
		X1: float64(cmd.ScreenArea.X1), Y1: float64(cmd.ScreenArea.Y1),
		X2: float64(cmd.ScreenArea.X2), Y2: float64(cmd.ScreenArea.Y2),
	}
	hsv := probe.HSVBounds{
		MinHue: float64(cmd.ScreenArea.MinHue), MaxHue: float64(cmd.ScreenArea.MaxHue),
		MinSat: float64(cmd.ScreenArea.MinSat), MaxSat: float64(cmd.ScreenArea.MaxSat),
		MinVal: float64(cmd.ScreenArea.MinVal), MaxVal: float64(cmd.ScreenArea.MaxVal),
	}

	ticker := time.NewTicker(probePollInterval)
	defer ticker.Stop()
	for range ticker.C {
		frame, err := r.screenCapturer.Capture(context.Background())
		if err != nil {
			r.log.Printf(diag.Overlay, "screen probe capture: %v", err)
			continue
		}
		result := screenprobe.Analyze(frame, area, hsv)
		select {
		case cmd.ReplyScreen <- result:
		default:
		}
	}
}

// pollMemoryProbe services one registered memory_probe by walking its
// pointer chain through memprobe.Reader at probePollInterval.
func (r *Renderer) pollMemoryProbe(cmd overlay.Command) {
	ticker := time.NewTicker(probePollInterval)
	defer ticker.Stop()
	for range ticker.C {
		v, err := r.memReader.Follow(cmd.MemPtrSize, cmd.MemBase, cmd.MemOffsets)
		if err != nil {
			r.log.Printf(diag.Overlay, "memory probe read: %v", err)
			continue
		}
		select {
		case cmd.ReplyU64 <- v:
		default:
		}
	}
}

// pollOverlayProbe services a registered overlay-side named flag. The
// original checked whether a named layer of an active WASM screen-
// scraping compute plugin was on (overlay/src/lib.rs's AddOverlayCheck);
// that plugin system is the "overlay's screen-scraping compute itself"
// named in spec.md's non-goals, so there is no named layer this renderer
// can ever report as set and it always answers false.
func (r *Renderer) pollOverlayProbe(cmd overlay.Command) {
	ticker := time.NewTicker(probePollInterval)
	defer ticker.Stop()
	for range ticker.C {
		select {
		case cmd.ReplyBool <- false:
		default:
		}
	}
}

func (r *Renderer) reset() {
	r.shapesRoot.RemoveAll()
	r.shapes = map[uint64][][]fyne.CanvasObject{}
	r.shapeSpecs = map[uint64][][]overlay.Shape{}
	r.knobsRoot.RemoveAll()
	r.knobRows = nil
	r.knobs = nil
	r.menuOpen = false
	r.knobsRoot.Hide()
	r.statusLabel.SetText("")
	r.layerLabel.SetText("")
}

func layerNamesForMask(names []string, mask uint64) string {
	s := ""
	for i, name := range names {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		if s != "" {
			s += "+"
		}
		s += name
	}
	if s == "" {
		return fmt.Sprintf("0x%x", mask)
	}
	return s
}

func (r *Renderer) registerShapes(stageID uint64, layers [][]overlay.Shape) {
	r.shapeSpecs[stageID] = layers

	objLayers := make([][]fyne.CanvasObject, len(layers))
	size := r.window.Canvas().Size()
	for li, shapes := range layers {
		objs := make([]fyne.CanvasObject, len(shapes))
		for si, shape := range shapes {
			obj := shapeToCanvasObject(shape, size.Width, size.Height)
			objs[si] = obj
			obj.Hide()
			r.shapesRoot.Add(obj)
		}
		objLayers[li] = objs
	}
	r.shapes[stageID] = objLayers
}

func (r *Renderer) toggleShapes(stageID uint64, layer uint8, mask uint64) {
	layers, ok := r.shapes[stageID]
	if !ok || int(layer) >= len(layers) {
		return
	}
	objs := layers[layer]
	for i, obj := range objs {
		if mask&(1<<uint(i)) != 0 {
			obj.Show()
		} else {
			obj.Hide()
		}
	}
}

// shapeToCanvasObject approximates the abstract Shape set with Fyne's
// canvas primitives: Fyne has no arc or arbitrary-polygon primitive
// without dropping to a raster, so rings and ring sectors are drawn as a
// thick-stroked circle and regular hexagons as a plain circle of the same
// circumradius. Close enough for a selection indicator; an exact
// renderer would need canvas.Raster per shape.
func shapeToCanvasObject(s overlay.Shape, screenW, screenH float32) fyne.CanvasObject {
	col := color.NRGBA{R: s.Color.R, G: s.Color.G, B: s.Color.B, A: s.Color.A}

	switch s.Kind {
	case overlay.ShapeCircle:
		c := canvas.NewCircle(col)
		r := s.Radius.ToPx(uint32(screenW), uint32(screenH))
		placeCentered(c, s.Center, r, r, screenW, screenH)
		return c

	case overlay.ShapeRing, overlay.ShapeRingSector:
		inner := s.InnerRadius.ToPx(uint32(screenW), uint32(screenH))
		outer := s.OuterRadius.ToPx(uint32(screenW), uint32(screenH))
		c := canvas.NewCircle(color.Transparent)
		c.StrokeColor = col
		c.StrokeWidth = outer - inner
		radius := (outer + inner) / 2
		placeCentered(c, s.Center, radius, radius, screenW, screenH)
		return c

	case overlay.ShapeRegularHexagon:
		c := canvas.NewCircle(col)
		radius := s.Circumradius.ToPx(uint32(screenW), uint32(screenH))
		placeCentered(c, s.Center, radius, radius, screenW, screenH)
		return c

	default:
		return canvas.NewCircle(col)
	}
}

func placeCentered(obj fyne.CanvasObject, center overlay.Point, rx, ry, screenW, screenH float32) {
	cx := center.X.ToPx(uint32(screenW), uint32(screenH))
	cy := center.Y.ToPx(uint32(screenW), uint32(screenH))
	obj.Resize(fyne.NewSize(rx*2, ry*2))
	obj.Move(fyne.NewPos(cx-rx, cy-ry))
}

func (r *Renderer) registerKnobs(knobs []overlay.KnobSnapshot) {
	r.knobs = knobs
	r.knobsRoot.RemoveAll()
	r.knobRows = make([]*knobRow, len(knobs))

	for i, k := range knobs {
		nameLabel := widget.NewLabel(k.Name)
		valueLabel := widget.NewLabel(knobValueText(k))
		row := container.NewHBox(nameLabel, valueLabel)
		r.knobRows[i] = &knobRow{nameLabel: nameLabel, valueLabel: valueLabel, row: row}
		r.knobsRoot.Add(row)
	}
}

func knobValueText(k overlay.KnobSnapshot) string {
	switch config.KnobKind(k.Kind) {
	case config.KnobFlag:
		if k.Flag {
			return "on"
		}
		return "off"
	case config.KnobEnum:
		if k.EnumIndex >= 0 && k.EnumIndex < len(k.EnumOptions) {
			return k.EnumOptions[k.EnumIndex]
		}
		return ""
	case config.KnobNumber:
		return fmt.Sprintf("%.2f", k.NumberValue)
	default:
		return ""
	}
}

func (r *Renderer) highlight() {
	for i, row := range r.knobRows {
		if i == r.selected {
			row.nameLabel.TextStyle = fyne.TextStyle{Bold: true}
		} else {
			row.nameLabel.TextStyle = fyne.TextStyle{}
		}
		row.nameLabel.Refresh()
	}
}

func (r *Renderer) handleMenuCommand(cmd int) {
	switch action.MenuCommand(cmd) {
	case action.OpenKnobsMenu:
		r.menuOpen = true
		r.selected = 0
		r.knobsRoot.Show()
		r.highlight()

	case action.CloseKnobsMenu:
		r.menuOpen = false
		r.knobsRoot.Hide()

	case action.SelectPrevMenuItem:
		if len(r.knobs) > 0 {
			r.selected = (r.selected - 1 + len(r.knobs)) % len(r.knobs)
			r.highlight()
		}

	case action.SelectNextMenuItem:
		if len(r.knobs) > 0 {
			r.selected = (r.selected + 1) % len(r.knobs)
			r.highlight()
		}

	case action.SelectPrevValue:
		r.adjustSelected(-1)

	case action.SelectNextValue:
		r.adjustSelected(1)
	}
}

func (r *Renderer) adjustSelected(dir int) {
	if r.selected < 0 || r.selected >= len(r.knobs) {
		return
	}
	k := &r.knobs[r.selected]
	switch config.KnobKind(k.Kind) {
	case config.KnobFlag:
		k.Flag = !k.Flag
	case config.KnobEnum:
		if n := len(k.EnumOptions); n > 0 {
			k.EnumIndex = (k.EnumIndex + dir + n) % n
		}
	case config.KnobNumber:
		step := (k.NumberMax - k.NumberMin) / 20
		v := k.NumberValue + step*float32(dir)
		if v < k.NumberMin {
			v = k.NumberMin
		}
		if v > k.NumberMax {
			v = k.NumberMax
		}
		k.NumberValue = v
	}
	r.knobRows[r.selected].valueLabel.SetText(knobValueText(*k))
}
