package screenprobe

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"ctlmapper/internal/probe"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRGBToHSVPureRed(t *testing.T) {
	h, s, v := rgbToHSV(color.RGBA{R: 255, G: 0, B: 0, A: 255})
	assert.InDelta(t, 0, h, 0.01)
	assert.InDelta(t, 1, s, 0.01)
	assert.InDelta(t, 1, v, 0.01)
}

func TestRGBToHSVBlackIsZero(t *testing.T) {
	h, s, v := rgbToHSV(color.RGBA{A: 255})
	assert.Equal(t, 0.0, h)
	assert.Equal(t, 0.0, s)
	assert.Equal(t, 0.0, v)
}

func TestAnalyzeUniformGreenFrameIsFullyUniform(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	img := solidImage(64, 64, green)

	h, _, _ := rgbToHSV(green)
	bounds := probe.HSVBounds{MinHue: h - 1, MaxHue: h + 1, MinSat: 0, MaxSat: 1, MinVal: 0, MaxVal: 1}

	result := Analyze(img, probe.ScreenArea{X1: 0, Y1: 0, X2: 1, Y2: 1}, bounds)
	assert.InDelta(t, 1.0, result.PixelsInRange, 0.01)
	assert.InDelta(t, 1.0, result.Uniformity, 0.01)
}

func TestAnalyzeOutOfRangeColorIsExcluded(t *testing.T) {
	img := solidImage(32, 32, color.RGBA{B: 255, A: 255})
	bounds := probe.HSVBounds{MinHue: 0, MaxHue: 10, MinSat: 0, MaxSat: 1, MinVal: 0, MaxVal: 1}

	result := Analyze(img, probe.ScreenArea{X1: 0, Y1: 0, X2: 1, Y2: 1}, bounds)
	assert.Equal(t, 0.0, result.PixelsInRange)
}
