package remap

import (
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/nipponcolors/nipponize/internal/colorspace"
	"github.com/nipponcolors/nipponize/internal/similarity"
)

// Defaults for the adaptive mode, matching the tuning the artwork
// pipeline settled on.
const (
	DefaultSecondBestProbability = 0.10
	DefaultMinDitherStrength     = 0.4
	DefaultMaxDitherStrength     = 0.8
	DefaultPreBlurRadius         = 0.3
	DefaultPostBlurRadius        = 0.2
)

// Options configure a Remapper. The zero value selects ModeDirect; for
// ModeAdaptive, zero numeric fields select the package defaults.
type Options struct {
	// Mode selects the strategy. Empty means ModeDirect.
	Mode Mode

	// SecondBestProbability is the chance of picking the runner-up match
	// instead of the best one when a pixel has more than one match.
	// Adaptive mode only. Zero means DefaultSecondBestProbability; a
	// negative value disables the runner-up pick entirely.
	SecondBestProbability float64

	// MinDitherStrength and MaxDitherStrength bound the error diffusion
	// scale in adaptive mode: flat regions diffuse at the minimum, hard
	// edges at the maximum. Zero means the package defaults.
	MinDitherStrength float64
	MaxDitherStrength float64

	// PreBlurRadius and PostBlurRadius are Gaussian blur radii applied
	// before and after remapping. In adaptive mode zero means the
	// package defaults and a negative value disables the blur; in
	// dithered mode zero and below mean no blur.
	PreBlurRadius  float64
	PostBlurRadius float64

	// Seed seeds the runner-up random source. Zero draws a seed from
	// the clock; any other value makes adaptive output reproducible.
	Seed int64
}

func (o Options) normalized() Options {
	n := o
	if n.Mode == "" {
		n.Mode = ModeDirect
	}
	if n.Mode == ModeAdaptive {
		if n.SecondBestProbability == 0 {
			n.SecondBestProbability = DefaultSecondBestProbability
		}
		if n.SecondBestProbability < 0 {
			n.SecondBestProbability = 0
		}
		if n.MinDitherStrength == 0 {
			n.MinDitherStrength = DefaultMinDitherStrength
		}
		if n.MaxDitherStrength == 0 {
			n.MaxDitherStrength = DefaultMaxDitherStrength
		}
		if n.PreBlurRadius == 0 {
			n.PreBlurRadius = DefaultPreBlurRadius
		}
		if n.PostBlurRadius == 0 {
			n.PostBlurRadius = DefaultPostBlurRadius
		}
	}
	if n.PreBlurRadius < 0 {
		n.PreBlurRadius = 0
	}
	if n.PostBlurRadius < 0 {
		n.PostBlurRadius = 0
	}
	return n
}

// Remapper rewrites images into palette colors according to a similarity
// index. A Remapper is not safe for concurrent use; its random source is
// shared across calls.
type Remapper struct {
	ix   *similarity.Index
	opts Options
	rng  *rand.Rand
}

// New validates the options and returns a ready Remapper.
func New(ix *similarity.Index, opts Options) (*Remapper, error) {
	if ix == nil {
		return nil, fmt.Errorf("remap: index is nil")
	}
	n := opts.normalized()
	if !n.Mode.Valid() {
		return nil, fmt.Errorf("remap: unknown mode %q", n.Mode)
	}
	if n.SecondBestProbability > 1 {
		return nil, fmt.Errorf("remap: second-best probability %g out of range", n.SecondBestProbability)
	}
	if n.MinDitherStrength < 0 || n.MaxDitherStrength < n.MinDitherStrength {
		return nil, fmt.Errorf("remap: dither strength range [%g, %g] is invalid",
			n.MinDitherStrength, n.MaxDitherStrength)
	}
	seed := n.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Remapper{
		ix:   ix,
		opts: n,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// Mode returns the mode the Remapper was configured with.
func (r *Remapper) Mode() Mode { return r.opts.Mode }

// Remap rewrites one image and returns the result. The input is never
// modified; alpha passes through untouched.
func (r *Remapper) Remap(img image.Image) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("remap: image has no pixels")
	}
	switch r.opts.Mode {
	case ModeDirect:
		return r.direct(img), nil
	case ModeDithered:
		return r.dithered(img), nil
	case ModeAdaptive:
		return r.adaptive(img), nil
	}
	return nil, fmt.Errorf("remap: unknown mode %q", r.opts.Mode)
}

// direct replaces each pixel with its best match and keeps misses.
func (r *Remapper) direct(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			c := colorspace.New(row[x*4], row[x*4+1], row[x*4+2])
			if m, ok := r.ix.Best(c); ok {
				row[x*4] = m.Color.R
				row[x*4+1] = m.Color.G
				row[x*4+2] = m.Color.B
			}
		}
	}
	return out
}

// dithered runs plain Floyd-Steinberg diffusion, with optional blurs
// when the options ask for them.
func (r *Remapper) dithered(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	if r.opts.PreBlurRadius > 0 {
		src = imaging.Clone(blur.Gaussian(src, r.opts.PreBlurRadius))
	}
	out := r.diffuse(src, nil)
	if r.opts.PostBlurRadius > 0 {
		out = imaging.Clone(blur.Gaussian(out, r.opts.PostBlurRadius))
	}
	return out
}

// adaptive blurs, dithers with the edge-scaled strength and runner-up
// picks, then softens the result.
func (r *Remapper) adaptive(img image.Image) *image.NRGBA {
	blurred := imaging.Clone(img)
	if r.opts.PreBlurRadius > 0 {
		blurred = imaging.Clone(blur.Gaussian(img, r.opts.PreBlurRadius))
	}
	out := r.diffuse(blurred, edgeMap(blurred))
	if r.opts.PostBlurRadius > 0 {
		out = imaging.Clone(blur.Gaussian(out, r.opts.PostBlurRadius))
	}
	return out
}

// diffuse is the shared Floyd-Steinberg core. With edges == nil every
// replaced pixel diffuses its full error and the best match is always
// taken; with an edge map the error is scaled between the strength
// bounds and the runner-up match may be picked.
func (r *Remapper) diffuse(src *image.NRGBA, edges []float64) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()

	// Channel values accumulate fractional error, so the working copy
	// is float and only clamped when a value is used.
	buf := make([]float64, w*h*3)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			buf[i] = float64(row[x*4])
			buf[i+1] = float64(row[x*4+1])
			buf[i+2] = float64(row[x*4+2])
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			oldR, oldG, oldB := buf[i], buf[i+1], buf[i+2]

			key := colorspace.New(clamp8(oldR), clamp8(oldG), clamp8(oldB))
			ms := r.ix.Lookup(key)
			if len(ms) == 0 {
				continue
			}

			pick := ms[0].Color
			if edges != nil && len(ms) > 1 && r.rng.Float64() < r.opts.SecondBestProbability {
				pick = ms[1].Color
			}

			strength := 1.0
			if edges != nil {
				e := edges[y*w+x]
				strength = r.opts.MinDitherStrength + e*(r.opts.MaxDitherStrength-r.opts.MinDitherStrength)
			}

			errR := (oldR - float64(pick.R)) * strength
			errG := (oldG - float64(pick.G)) * strength
			errB := (oldB - float64(pick.B)) * strength

			buf[i] = float64(pick.R)
			buf[i+1] = float64(pick.G)
			buf[i+2] = float64(pick.B)

			// Floyd-Steinberg kernel: right 7/16, below-left 3/16,
			// below 5/16, below-right 1/16.
			if x+1 < w {
				spread(buf, (y*w+x+1)*3, errR, errG, errB, 7.0/16.0)
			}
			if y+1 < h {
				if x > 0 {
					spread(buf, ((y+1)*w+x-1)*3, errR, errG, errB, 3.0/16.0)
				}
				spread(buf, ((y+1)*w+x)*3, errR, errG, errB, 5.0/16.0)
				if x+1 < w {
					spread(buf, ((y+1)*w+x+1)*3, errR, errG, errB, 1.0/16.0)
				}
			}
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		outRow := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			outRow[x*4] = clamp8(buf[i])
			outRow[x*4+1] = clamp8(buf[i+1])
			outRow[x*4+2] = clamp8(buf[i+2])
			outRow[x*4+3] = srcRow[x*4+3]
		}
	}
	return out
}

func spread(buf []float64, i int, errR, errG, errB, weight float64) {
	buf[i] += errR * weight
	buf[i+1] += errG * weight
	buf[i+2] += errB * weight
}

// clamp8 clamps to the 8-bit range and truncates the fraction.
func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
