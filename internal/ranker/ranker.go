package ranker

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/nipponcolors/nipponize/internal/colorspace"
	"github.com/nipponcolors/nipponize/internal/deltae"
	"github.com/nipponcolors/nipponize/internal/nippon"
)

// Significance factor weights. Area dominates, saturation rewards vivid
// colors over large washes of gray, position favors colors near the
// visual center.
const (
	areaWeight     = 0.5
	saliencyWeight = 0.3
	positionWeight = 0.2
)

// DefaultDominantCount is how many dominant colors quantization aims for.
const DefaultDominantCount = 10

// DefaultAlternatives is how many palette entries each ranked color is
// annotated with.
const DefaultAlternatives = 5

// Options control ranking. The zero value selects the defaults.
type Options struct {
	// DominantCount is the quantization target. The quantizer may return
	// fewer colors for images with little variety. Zero means
	// DefaultDominantCount.
	DominantCount int

	// Alternatives is how many closest palette entries to attach to each
	// ranked color. Zero means DefaultAlternatives.
	Alternatives int

	// Method selects the perceptual distance used for the alternatives.
	// Empty means deltae.DefaultMethod.
	Method deltae.Method
}

func (o Options) normalized() Options {
	n := o
	if n.DominantCount < 1 {
		n.DominantCount = DefaultDominantCount
	}
	if n.Alternatives < 1 {
		n.Alternatives = DefaultAlternatives
	}
	if n.Method == "" {
		n.Method = deltae.DefaultMethod
	}
	return n
}

// ScoredColor is a dominant color with its significance score.
type ScoredColor struct {
	Color colorspace.Color `json:"color"`
	Score float64          `json:"score"`
}

// Alternative is a palette entry candidate for a ranked color.
type Alternative struct {
	Color    nippon.Entry `json:"color"`
	Distance float64      `json:"distance"`
}

// RankedColor is one entry of a ranking: a dominant color, its
// significance score and its closest palette entries, best first.
type RankedColor struct {
	Hex          string        `json:"hex_rgb_color"`
	Score        float64       `json:"significance_score"`
	Alternatives []Alternative `json:"nippon_colors_alternatives"`
}

// DominantColors reduces the image to at most n representative colors
// using median-cut quantization with mean aggregation. The result is
// deduplicated and may be shorter than n for images with few distinct
// colors.
func DominantColors(img image.Image, n int) []colorspace.Color {
	if n < 1 || img.Bounds().Empty() {
		return nil
	}
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	pal := q.Quantize(make(color.Palette, 0, n), img)

	seen := make(map[colorspace.Color]struct{}, len(pal))
	out := make([]colorspace.Color, 0, len(pal))
	for _, c := range pal {
		cc := colorspace.FromColor(c)
		if _, ok := seen[cc]; ok {
			continue
		}
		seen[cc] = struct{}{}
		out = append(out, cc)
	}
	return out
}

// Significance scores each dominant color by assigning every pixel to
// its nearest dominant (squared RGB distance, first wins on ties) and
// combining area share, HSL saturation and centroid closeness to the
// image center with the package weights. Dominants that own no pixels
// are dropped. The result is sorted by descending score; ties keep the
// dominant order.
func Significance(img image.Image, dominants []colorspace.Color) []ScoredColor {
	if len(dominants) == 0 || img.Bounds().Empty() {
		return nil
	}
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	type accum struct {
		count      int64
		sumX, sumY int64
	}
	accums := make([]accum, len(dominants))

	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			r := int(row[x*4])
			g := int(row[x*4+1])
			b := int(row[x*4+2])

			best := 0
			bestDist := math.MaxInt
			for i, d := range dominants {
				dr := r - int(d.R)
				dg := g - int(d.G)
				db := b - int(d.B)
				dist := dr*dr + dg*dg + db*db
				if dist < bestDist {
					bestDist = dist
					best = i
				}
			}
			accums[best].count++
			accums[best].sumX += int64(x)
			accums[best].sumY += int64(y)
		}
	}

	total := float64(w) * float64(h)
	centerX := float64(w) / 2
	centerY := float64(h) / 2
	maxDist := math.Sqrt(centerX*centerX + centerY*centerY)

	scores := make([]ScoredColor, 0, len(dominants))
	for i, d := range dominants {
		a := accums[i]
		if a.count == 0 {
			continue
		}
		proportion := float64(a.count) / total

		cf := colorful.Color{R: float64(d.R) / 255, G: float64(d.G) / 255, B: float64(d.B) / 255}
		_, saturation, _ := cf.Hsl()

		avgX := float64(a.sumX) / float64(a.count)
		avgY := float64(a.sumY) / float64(a.count)
		fromCenter := math.Sqrt((avgX-centerX)*(avgX-centerX) + (avgY-centerY)*(avgY-centerY))
		position := 1.0 - fromCenter/maxDist

		scores = append(scores, ScoredColor{
			Color: d,
			Score: areaWeight*proportion + saliencyWeight*saturation + positionWeight*position,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// Alternatives returns the n palette entries closest to c by the given
// distance method, nearest first. The whole palette is scanned; there is
// no distance cutoff, so even a color far from everything gets its least
// bad candidates.
func Alternatives(c colorspace.Color, pal nippon.Palette, cache *colorspace.LabCache, method deltae.Method, n int) []Alternative {
	if len(pal) == 0 || n < 1 {
		return nil
	}
	target := cache.ToLab(c)
	out := make([]Alternative, 0, len(pal))
	for _, e := range pal {
		out = append(out, Alternative{
			Color:    e,
			Distance: method.Distance(target, cache.ToLab(e.Color)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if n < len(out) {
		out = out[:n:n]
	}
	return out
}

// Rank runs the full pipeline on one image: dominant colors, significance
// scores, palette alternatives. cache may be nil.
func Rank(img image.Image, pal nippon.Palette, cache *colorspace.LabCache, opts Options) ([]RankedColor, error) {
	n := opts.normalized()
	if !n.Method.Valid() {
		return nil, fmt.Errorf("ranker: unsupported distance method %q", n.Method)
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("ranker: palette is empty")
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("ranker: image has no pixels")
	}
	if cache == nil {
		cache = colorspace.NewLabCache()
	}

	scored := Significance(img, DominantColors(img, n.DominantCount))
	out := make([]RankedColor, 0, len(scored))
	for _, s := range scored {
		out = append(out, RankedColor{
			Hex:          s.Color.Hex(),
			Score:        s.Score,
			Alternatives: Alternatives(s.Color, pal, cache, n.Method, n.Alternatives),
		})
	}
	return out, nil
}
