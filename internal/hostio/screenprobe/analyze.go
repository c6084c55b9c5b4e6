// Package screenprobe implements the host side of screen_probe: a portal
// screenshot capture, cropped and downsampled with nfnt/resize, then
// classified in HSV space to produce the pixels-in-range and uniformity
// figures probe.EvaluateScreen compares against the configured thresholds.
package screenprobe

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
)

// maxSampleDim bounds the downsampled analysis image's longer edge, so a
// probe's per-tick cost doesn't scale with the captured screen resolution.
const maxSampleDim = 96

// cropAndDownsample extracts area's normalized rectangle from frame and
// resizes it to at most maxSampleDim on its longer edge.
func cropAndDownsample(frame image.Image, area probe.ScreenArea) *image.RGBA {
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rect := image.Rect(
		bounds.Min.X+int(area.X1*float64(w)),
		bounds.Min.Y+int(area.Y1*float64(h)),
		bounds.Min.X+int(area.X2*float64(w)),
		bounds.Min.Y+int(area.Y2*float64(h)),
	)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), frame, rect.Min, draw.Src)

	dstW, dstH := cropped.Bounds().Dx(), cropped.Bounds().Dy()
	if dstW > dstH && dstW > maxSampleDim {
		dstH = dstH * maxSampleDim / dstW
		dstW = maxSampleDim
	} else if dstH > maxSampleDim {
		dstW = dstW * maxSampleDim / dstH
		dstH = maxSampleDim
	}
	resized := resize.Resize(uint(dstW), uint(dstH), cropped, resize.Lanczos3)

	out, ok := resized.(*image.RGBA)
	if ok {
		return out
	}
	out = image.NewRGBA(resized.Bounds())
	draw.Draw(out, out.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return out
}

// Analyze computes a screen_probe's ScreenScrapingResult against one
// captured frame.
func Analyze(frame image.Image, area probe.ScreenArea, hsv probe.HSVBounds) overlay.ScreenScrapingResult {
	sample := cropAndDownsample(frame, area)
	bounds := sample.Bounds()

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return overlay.ScreenScrapingResult{}
	}

	inRange := 0
	var hueSum, satSum, valSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := sample.RGBAAt(x, y)
			h, s, v := rgbToHSV(px)
			hueSum += h
			satSum += s
			valSum += v
			if h >= hsv.MinHue && h <= hsv.MaxHue && s >= hsv.MinSat && s <= hsv.MaxSat && v >= hsv.MinVal && v <= hsv.MaxVal {
				inRange++
			}
		}
	}

	n := float64(total)
	meanHue, meanSat, meanVal := hueSum/n, satSum/n, valSum/n

	var devSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := sample.RGBAAt(x, y)
			h, s, v := rgbToHSV(px)
			devSum += hueDelta(h, meanHue)*hueDelta(h, meanHue) + (s-meanSat)*(s-meanSat) + (v-meanVal)*(v-meanVal)
		}
	}
	variance := devSum / n

	return overlay.ScreenScrapingResult{
		PixelsInRange: float64(inRange) / n,
		Uniformity:    1 / (1 + variance),
	}
}

func hueDelta(a, b float64) float64 {
	d := a - b
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d / 360
}
