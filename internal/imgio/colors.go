package imgio

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/nipponcolors/nipponize/internal/colorspace"
)

// UniqueColors returns the distinct 24-bit colors in the image, in scan
// order of first appearance. Alpha is ignored; a translucent and an
// opaque pixel of the same RGB count once.
func UniqueColors(img image.Image) []colorspace.Color {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	seen := make(map[colorspace.Color]struct{})
	var out []colorspace.Color
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			c := colorspace.New(row[x*4], row[x*4+1], row[x*4+2])
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// FitWithin shrinks the image proportionally so neither dimension
// exceeds maxDim, using Lanczos resampling. Images already small enough
// are returned unchanged.
func FitWithin(img image.Image, maxDim int) image.Image {
	if img == nil || maxDim < 1 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// ScanResult records one file of a batch color scan.
type ScanResult struct {
	Path     string
	Distinct int   // distinct colors in this file
	Err      error // load failure; the file contributed nothing
}

// CollectColors unions the distinct colors of the listed image files in
// first-appearance order, loading each through the cache. maxDim > 0
// downscales every image before its scan. A file that fails to load is
// recorded with its error and skipped; the union covers whatever
// decoded. Loaded images stay cached for later passes.
func CollectColors(c *Cache, paths []string, maxDim int) ([]colorspace.Color, []ScanResult) {
	seen := make(map[colorspace.Color]struct{})
	var colors []colorspace.Color
	scans := make([]ScanResult, 0, len(paths))
	for _, p := range paths {
		img, err := c.Load(p)
		if err != nil {
			scans = append(scans, ScanResult{Path: p, Err: err})
			continue
		}
		unique := UniqueColors(FitWithin(img, maxDim))
		for _, col := range unique {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			colors = append(colors, col)
		}
		scans = append(scans, ScanResult{Path: p, Distinct: len(unique)})
	}
	return colors, scans
}
