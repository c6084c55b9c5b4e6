package screenprobe

import "image/color"

// rgbToHSV converts an RGBA pixel to hue degrees [0,360) and
// saturation/value in [0,1], the color space screen_probe's bounds are
// expressed in.
func rgbToHSV(c color.RGBA) (h, s, v float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}
	delta := max - min

	v = max
	if max == 0 {
		return 0, 0, 0
	}
	s = delta / max
	if delta == 0 {
		return 0, s, v
	}

	switch max {
	case r:
		h = 60 * (((g - b) / delta))
	case g:
		h = 60 * ((b-r)/delta + 2)
	case b:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
