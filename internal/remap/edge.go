package remap

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// edgeMap runs a 3x3 edge detection over the image and returns one value
// per pixel in [0, 1], row-major: 0 for flat regions, approaching 1 on
// hard boundaries. The channel response is collapsed to ITU-R 601 luma.
func edgeMap(img image.Image) []float64 {
	edges := effect.EdgeDetection(img, 1.0)
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := edges.PixOffset(b.Min.X+x, b.Min.Y+y)
			luma := 0.299*float64(edges.Pix[i]) +
				0.587*float64(edges.Pix[i+1]) +
				0.114*float64(edges.Pix[i+2])
			out[y*w+x] = luma / 255.0
		}
	}
	return out
}
