package stagelib

import (
	"math"
	"time"

	"ctlmapper/internal/action"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/stage"
)

// TouchMenuLayout discriminates the two touch-menu geometries: a radial pie
// of ring sectors, or a hex grid of regular hexagons.
type TouchMenuLayout struct {
	HexGrid     bool
	InnerRadius float32 // Radial only
	OuterRadius float32 // Radial only
	Margin      float32
}

type touchMenuSelection struct {
	index uint8
	at    time.Time
}

// TouchMenu turns a touchpad position plus toggle/select buttons into an
// optional selected item index. While toggle is held, the finger's position
// selects an item by dwelling on it for 500ms (locking selection); once
// locked, moving far enough off the touch point unlocks it again. select
// reads out the locked selection with a one-tick delay so a touch-release
// gesture is captured before the menu clears.
type TouchMenu struct {
	id       stage.ID
	position stage.Stage[stage.Vec2]
	toggle   stage.Stage[bool]
	select_  stage.Stage[bool]
	layout   TouchMenuLayout
	items    []string

	memo     stage.Memo[stage.OptU8]
	selected *touchMenuSelection
	locked   bool
	lockPos  stage.Vec2
}

func NewTouchMenu(id stage.ID, position stage.Stage[stage.Vec2], toggle, select_ stage.Stage[bool], items []string, layout TouchMenuLayout) *TouchMenu {
	return &TouchMenu{id: id, position: position, toggle: toggle, select_: select_, layout: layout, items: items}
}

func (s *TouchMenu) ID() stage.ID       { return s.id }
func (s *TouchMenu) Name() string       { return "touch_menu" }
func (s *TouchMenu) Opts() string       { return "" }
func (s *TouchMenu) InputIDs() []stage.ID {
	return []stage.ID{s.position.ID(), s.toggle.ID(), s.select_.ID()}
}
func (s *TouchMenu) Probe() (probe.Descriptor, bool) { return probe.Descriptor{}, false }

func (s *TouchMenu) Reset() {
	s.memo.Reset()
	s.selected = nil
	s.locked = false
	s.position.Reset()
	s.toggle.Reset()
	s.select_.Reset()
}

func (s *TouchMenu) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.position.Inspect(out)
		s.toggle.Inspect(out)
		s.select_.Inspect(out)
	}
}

func distFromCenter(x, y float32) float32 {
	return float32(math.Hypot(float64(x), float64(y)))
}

func distFromPoint(x1, y1, x2, y2 float32) float32 {
	return float32(math.Hypot(float64(x2-x1), float64(y2-y1)))
}

func insideRing(x, y, inner, outer float32) bool {
	d := distFromCenter(x, y)
	return d >= inner && d <= outer
}

func insideSector(x, y, width, direction float32) bool {
	angle := float32(math.Atan2(float64(y), float64(x)))
	diff := angle - direction
	if diff > math.Pi {
		diff -= 2 * math.Pi
	}
	if diff < -math.Pi {
		diff += 2 * math.Pi
	}
	if diff < 0 {
		diff = -diff
	}
	return diff <= width/2
}

// touchPointClearance samples 4 points margin/2 away from (x,y) in each
// cardinal direction; a transition is only accepted once all four agree,
// damping finger jitter at a menu boundary.
type touchPointClearance struct{ x, y [4]float32 }

func newTouchPointClearance(x, y, margin float32) touchPointClearance {
	h := margin * 0.5
	return touchPointClearance{
		x: [4]float32{x + h, x - h, x, x},
		y: [4]float32{y, y, y + h, y - h},
	}
}

func (p touchPointClearance) insideRing(inner, outer float32) bool {
	for i := range p.x {
		if !insideRing(p.x[i], p.y[i], inner, outer) {
			return false
		}
	}
	return true
}

func (p touchPointClearance) insideSector(width, direction float32) bool {
	for i := range p.x {
		if !insideSector(p.x[i], p.y[i], width, direction) {
			return false
		}
	}
	return true
}

func numberOfHexGridCircles(n int) int {
	switch {
	case n == 0:
		return 0
	case n <= 6:
		return 1
	case n <= 18:
		return 2
	case n <= 36:
		return 3
	default:
		return 4
	}
}

// hexGridPositions lays out number_of_cells points in a spiral of
// concentric hexagonal rings around center, each ring's points
// circumradius*sqrt(3) apart along the six hex directions.
func hexGridPositions(centerX, centerY, circumradius float32, numberOfCells int) []stage.Vec2 {
	if numberOfCells <= 0 {
		return nil
	}
	sqrt3 := float32(math.Sqrt(3))
	v := make([]stage.Vec2, 0, numberOfCells)
	push := func(x, y float32) bool {
		v = append(v, stage.Vec2{X: x, Y: y})
		return len(v) == numberOfCells
	}

	circle := 1
	for {
		x, y := centerX, centerY+circumradius*sqrt3*float32(circle)
		if push(x, y) {
			return v
		}
		steps := [][2]float32{
			{circumradius * 1.5, -circumradius * sqrt3 * 0.5},
			{0, -circumradius * sqrt3},
			{-circumradius * 1.5, -circumradius * sqrt3 * 0.5},
			{-circumradius * 1.5, circumradius * sqrt3 * 0.5},
			{0, circumradius * sqrt3},
		}
		for _, step := range steps {
			for i := 0; i < circle; i++ {
				x += step[0]
				y += step[1]
				if push(x, y) {
					return v
				}
			}
		}
		for i := 0; i < circle-1; i++ {
			x += circumradius * 1.5
			y += circumradius * sqrt3 * 0.5
			if push(x, y) {
				return v
			}
		}
		circle++
	}
}

func (s *TouchMenu) selectedMask() uint64 {
	if s.selected == nil {
		return 0
	}
	return 1 << s.selected.index
}

func (s *TouchMenu) updateRadial(ctx *stage.Context, actions *[]action.Action, opts TouchMenuLayout, x, y float32) {
	sectorWidth := float32(2*math.Pi) / float32(len(s.items))
	p := newTouchPointClearance(x, y, opts.Margin)

	if s.locked {
		if !p.insideRing(opts.InnerRadius, opts.OuterRadius*1.2) || distFromPoint(x, y, s.lockPos.X, s.lockPos.Y) > opts.Margin*4 {
			s.locked = false
		}
		return
	}

	if !p.insideRing(opts.InnerRadius, opts.OuterRadius*1.2) {
		s.selected = nil
		return
	}

	direction := float32(math.Pi / 2)
	for i := 0; i < len(s.items); i++ {
		if p.insideSector(sectorWidth, direction) {
			s.bumpIfNewlySelected(ctx, actions, uint8(i))
			break
		}
		direction -= sectorWidth
	}
	s.lockIfDwelled(ctx, actions, x, y)
}

func (s *TouchMenu) updateHexGrid(ctx *stage.Context, actions *[]action.Action, opts TouchMenuLayout, x, y float32) {
	circumradius := 2.0 / float32(numberOfHexGridCircles(len(s.items))*2+1) / float32(math.Sqrt(3))
	inradius := float32(math.Sqrt(3)) / 2 * circumradius
	triggerDistance := inradius - opts.Margin

	if s.locked {
		if distFromCenter(x, y) < triggerDistance || distFromPoint(x, y, s.lockPos.X, s.lockPos.Y) > inradius+opts.Margin {
			s.locked = false
		}
		return
	}

	if distFromCenter(x, y) <= triggerDistance {
		s.selected = nil
		return
	}

	points := hexGridPositions(0, 0, circumradius, len(s.items))
	for i, pt := range points {
		if distFromPoint(x, y, pt.X, pt.Y) < triggerDistance {
			s.bumpIfNewlySelected(ctx, actions, uint8(i))
			break
		}
	}
	s.lockIfDwelled(ctx, actions, x, y)
}

func (s *TouchMenu) bumpIfNewlySelected(ctx *stage.Context, actions *[]action.Action, i uint8) {
	if s.selected != nil && s.selected.index == i {
		return
	}
	*actions = append(*actions,
		action.HapticFeedback(action.LeftSide, action.SlightBump),
		action.HapticFeedback(action.RightSide, action.SlightBump),
	)
	s.selected = &touchMenuSelection{index: i, at: ctx.Time}
}

func (s *TouchMenu) lockIfDwelled(ctx *stage.Context, actions *[]action.Action, x, y float32) {
	if s.selected == nil || ctx.Time.Sub(s.selected.at) < 500*time.Millisecond {
		return
	}
	s.locked = true
	s.lockPos = stage.Vec2{X: x, Y: y}
	*actions = append(*actions,
		action.HapticFeedback(action.LeftSide, action.ModerateBump),
		action.HapticFeedback(action.RightSide, action.ModerateBump),
	)
}

func (s *TouchMenu) Apply(ctx *stage.Context, actions *[]action.Action) stage.OptU8 {
	return s.memo.Get(ctx, func() stage.OptU8 {
		var out stage.OptU8
		// selection is read with a one-tick delay so a release gesture on
		// the same tick as the final dwell is captured.
		if s.select_.Apply(ctx, actions) {
			if s.locked && s.selected != nil {
				out = stage.SomeU8(s.selected.index)
			}
		}

		if s.toggle.Apply(ctx, actions) {
			pos := s.position.Apply(ctx, actions)
			if s.layout.HexGrid {
				s.updateHexGrid(ctx, actions, s.layout, pos.X, pos.Y)
			} else {
				s.updateRadial(ctx, actions, s.layout, pos.X, pos.Y)
			}

			*actions = append(*actions, action.ToggleShapes(uint64(s.id), 0, ^uint64(0)))
			mask := s.selectedMask()
			*actions = append(*actions, action.ToggleShapes(uint64(s.id), 1, ^uint64(0)&^mask))
			if s.locked {
				*actions = append(*actions, action.ToggleShapes(uint64(s.id), 3, mask))
			} else {
				*actions = append(*actions, action.ToggleShapes(uint64(s.id), 2, mask))
			}
		} else {
			s.selected = nil
			s.locked = false
		}

		return out
	})
}

// Shapes renders the four fixed layers (background, unselected items,
// selected-unlocked items, selected-locked items) for either layout.
func (s *TouchMenu) Shapes() [][]overlay.Shape {
	center := overlay.Point{X: overlay.Length{Vw: 50}, Y: overlay.Length{Vh: 50}}
	menuHeight := overlay.Length{Vh: 50}

	if s.layout.HexGrid {
		circumradius := overlay.Length{Vh: 50.0 / float32(numberOfHexGridCircles(len(s.items))*2+1) / float32(math.Sqrt(3))}
		points := hexGridPositionsOverlay(center, circumradius, len(s.items))

		background := []overlay.Shape{{
			Kind: overlay.ShapeRing, Center: center,
			InnerRadius: circumradius, OuterRadius: menuHeight,
			Color: overlay.Color{G: 51, A: 102},
		}}
		normal := make([]overlay.Shape, len(s.items))
		selected := make([]overlay.Shape, len(s.items))
		locked := make([]overlay.Shape, len(s.items))
		for i, item := range s.items {
			normal[i] = overlay.Shape{Kind: overlay.ShapeRegularHexagon, Center: points[i], Circumradius: circumradius, Color: overlay.Color{R: 26, G: 26, B: 26, A: 77}, Label: item, HasLabel: true}
			selected[i] = overlay.Shape{Kind: overlay.ShapeRegularHexagon, Center: points[i], Circumradius: circumradius, Color: overlay.Color{G: 204, A: 204}, Label: item, HasLabel: true}
			locked[i] = overlay.Shape{Kind: overlay.ShapeRegularHexagon, Center: points[i], Circumradius: circumradius, Color: overlay.Color{R: 204, G: 204, A: 204}, Label: item, HasLabel: true}
		}
		return [][]overlay.Shape{background, normal, selected, locked}
	}

	inner, outer := overlay.Length{Vh: 50 * 0.5 * s.layout.InnerRadius}, overlay.Length{Vh: 50 * 0.5 * s.layout.OuterRadius}
	sectorWidth := float32(2*math.Pi) / float32(len(s.items))

	background := []overlay.Shape{{Kind: overlay.ShapeRing, Center: center, InnerRadius: inner, OuterRadius: outer, Color: overlay.Color{G: 51, A: 102}}}
	normal := make([]overlay.Shape, len(s.items))
	selected := make([]overlay.Shape, len(s.items))
	locked := make([]overlay.Shape, len(s.items))
	direction := float32(math.Pi / 2)
	for i, item := range s.items {
		normal[i] = overlay.Shape{Kind: overlay.ShapeRingSector, Center: center, Direction: -direction, Width: sectorWidth, InnerRadius: inner, OuterRadius: outer, Color: overlay.Color{}, Label: item, HasLabel: true}
		selected[i] = overlay.Shape{Kind: overlay.ShapeRingSector, Center: center, Direction: -direction, Width: sectorWidth, InnerRadius: inner, OuterRadius: outer, Color: overlay.Color{G: 204, A: 204}, Label: item, HasLabel: true}
		locked[i] = overlay.Shape{Kind: overlay.ShapeRingSector, Center: center, Direction: -direction, Width: sectorWidth, InnerRadius: inner, OuterRadius: outer, Color: overlay.Color{R: 204, G: 204, A: 204}, Label: item, HasLabel: true}
		direction -= sectorWidth
	}
	return [][]overlay.Shape{background, normal, selected, locked}
}

func scaleLength(l overlay.Length, factor float32) overlay.Length {
	return overlay.Length{Px: l.Px * factor, Vw: l.Vw * factor, Vh: l.Vh * factor}
}

func addLength(a, b overlay.Length) overlay.Length {
	return overlay.Length{Px: a.Px + b.Px, Vw: a.Vw + b.Vw, Vh: a.Vh + b.Vh}
}

func hexGridPositionsOverlay(center overlay.Point, circumradius overlay.Length, n int) []overlay.Point {
	raw := hexGridPositions(0, 0, 1, n)
	out := make([]overlay.Point, len(raw))
	for i, p := range raw {
		out[i] = overlay.Point{
			X: addLength(center.X, scaleLength(circumradius, p.X)),
			Y: addLength(center.Y, scaleLength(circumradius, p.Y)),
		}
	}
	return out
}
