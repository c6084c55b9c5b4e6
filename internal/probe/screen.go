package probe

import "fmt"

// ValidateHSV enforces the screen_probe parameter bounds at config load
// time. Per DESIGN.md, a violation is a config error, not silently clamped.
func ValidateHSV(b HSVBounds) error {
	switch {
	case b.MinHue < 0 || b.MaxHue > 360:
		return fmt.Errorf("screen_probe: hue bounds must be within [0,360], got [%g,%g]", b.MinHue, b.MaxHue)
	case b.MinHue > b.MaxHue:
		return fmt.Errorf("screen_probe: min_hue %g exceeds max_hue %g", b.MinHue, b.MaxHue)
	case b.MinSat < 0 || b.MaxSat > 1 || b.MinSat > b.MaxSat:
		return fmt.Errorf("screen_probe: invalid saturation bounds [%g,%g]", b.MinSat, b.MaxSat)
	case b.MinVal < 0 || b.MaxVal > 1 || b.MinVal > b.MaxVal:
		return fmt.Errorf("screen_probe: invalid value bounds [%g,%g]", b.MinVal, b.MaxVal)
	}
	return nil
}

// EvaluateScreen reproduces the screen_probe predicate: true iff the
// fraction of sampled pixels within the HSV range reaches threshold1, or
// the region's color uniformity reaches threshold2.
func EvaluateScreen(pixelsInRange, uniformity float64, threshold1, threshold2 float64) bool {
	return pixelsInRange >= threshold1 || uniformity >= threshold2
}
