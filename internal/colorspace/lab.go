package colorspace

import (
	"math"
	"sync"
)

// Lab represents a color in the CIE L*a*b* color space.
//
// Perceptual distance formulas operate on Lab rather than RGB because
// Euclidean-ish geometry in Lab tracks human color perception far better
// than geometry in RGB does:
//   - L is lightness: 0 (black) to 100 (white)
//   - A is the green-red axis (negative = green, positive = red)
//   - B is the blue-yellow axis (negative = blue, positive = yellow)
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// D65 reference white, the standard illuminant for sRGB.
const (
	refWhiteX = 0.95047
	refWhiteY = 1.00000
	refWhiteZ = 1.08883
)

// CIE constants for the XYZ to Lab transfer function.
const (
	labEpsilon = 216.0 / 24389.0 // (6/29)^3
	labKappa   = 24389.0 / 27.0
)

// srgbToLinear removes the sRGB gamma curve from a single channel in [0,1].
func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// labF is the XYZ to Lab transfer function with the linear segment near zero.
func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16.0) / 116.0
}

// toLab converts an 8-bit sRGB color to Lab by way of linear RGB and XYZ.
//
// The conversion chain is fixed: sRGB gamma expansion, the sRGB/D65 matrix
// to XYZ, then the CIE transfer function against the D65 white point. Two
// colors always convert through the same chain, so cached and uncached
// conversions of the same Color are bit-identical.
func toLab(c Color) Lab {
	r := srgbToLinear(float64(c.R) / 255.0)
	g := srgbToLinear(float64(c.G) / 255.0)
	b := srgbToLinear(float64(c.B) / 255.0)

	// sRGB to XYZ under D65
	x := 0.4124564*r + 0.3575761*g + 0.1804375*b
	y := 0.2126729*r + 0.7151522*g + 0.0721750*b
	z := 0.0193339*r + 0.1191920*g + 0.9503041*b

	fx := labF(x / refWhiteX)
	fy := labF(y / refWhiteY)
	fz := labF(z / refWhiteZ)

	return Lab{
		L: 116.0*fy - 16.0,
		A: 500.0 * (fx - fy),
		B: 200.0 * (fy - fz),
	}
}

// LabCache converts colors to Lab and memoizes the results.
//
// Palette mapping converts the same handful of colors thousands of times
// (every palette entry against every distinct source color), so conversions
// are cached per distinct Color. The cache is safe for concurrent use; the
// index builder shares one instance across its workers and hands the same
// instance to the ranker so both sides hit warm entries.
type LabCache struct {
	mu  sync.RWMutex
	lab map[Color]Lab
}

// NewLabCache creates an empty Lab conversion cache.
func NewLabCache() *LabCache {
	return &LabCache{lab: make(map[Color]Lab)}
}

// ToLab returns the Lab representation of c, converting and caching it on
// first use.
func (lc *LabCache) ToLab(c Color) Lab {
	lc.mu.RLock()
	if l, ok := lc.lab[c]; ok {
		lc.mu.RUnlock()
		return l
	}
	lc.mu.RUnlock()

	l := toLab(c)

	lc.mu.Lock()
	lc.lab[c] = l
	lc.mu.Unlock()

	return l
}

// Size returns the number of cached conversions.
func (lc *LabCache) Size() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.lab)
}

// Clear removes all cached conversions.
func (lc *LabCache) Clear() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lab = make(map[Color]Lab)
}
