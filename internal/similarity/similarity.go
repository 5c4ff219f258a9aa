package similarity

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/nipponcolors/nipponize/internal/colorspace"
	"github.com/nipponcolors/nipponize/internal/deltae"
	"github.com/nipponcolors/nipponize/internal/nippon"
)

// DefaultThreshold is the maximum perceptual distance at which a palette
// entry still counts as a match. 15.0 on the CIEDE2000 scale admits
// colors a viewer would call "clearly related" while rejecting ones that
// read as a different hue family.
const DefaultThreshold = 15.0

// Match pairs a palette color with its perceptual distance from a source
// color. Slices of Match are always sorted by ascending Distance.
type Match struct {
	Color    colorspace.Color
	Distance float64
}

// BuildOptions control how an Index is built. The zero value selects the
// default method, the default threshold and one worker per available CPU.
type BuildOptions struct {
	// Method selects the distance formula. Empty means deltae.DefaultMethod.
	Method deltae.Method

	// Threshold is the maximum distance for a palette entry to be
	// recorded as a match. Zero means DefaultThreshold; a negative
	// value disables the tolerance entirely, keeping only exact
	// matches.
	Threshold float64

	// Workers bounds the number of goroutines comparing source colors.
	// Zero or negative means runtime.GOMAXPROCS(0).
	Workers int
}

func (o BuildOptions) normalized() BuildOptions {
	n := o
	if n.Method == "" {
		n.Method = deltae.DefaultMethod
	}
	if n.Threshold == 0 {
		n.Threshold = DefaultThreshold
	}
	if n.Threshold < 0 {
		n.Threshold = 0
	}
	if n.Workers < 1 {
		n.Workers = runtime.GOMAXPROCS(0)
		if n.Workers < 1 {
			n.Workers = 1
		}
	}
	return n
}

// Index maps source colors to their palette matches.
//
// An Index is immutable after Build returns and safe for concurrent
// lookups.
type Index struct {
	method    deltae.Method
	threshold float64
	matches   map[colorspace.Color][]Match
}

// Build computes the similarity index for the given source colors against
// the palette. Duplicate source colors are collapsed; every distinct
// source color gets an entry, even when nothing in the palette is within
// the threshold. cache may be nil, in which case a private Lab cache is
// used for the build.
func Build(sources []colorspace.Color, pal nippon.Palette, cache *colorspace.LabCache, opts BuildOptions) (*Index, error) {
	n := opts.normalized()
	if !n.Method.Valid() {
		return nil, fmt.Errorf("similarity: unsupported distance method %q", n.Method)
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("similarity: palette is empty")
	}
	if cache == nil {
		cache = colorspace.NewLabCache()
	}

	unique := dedupe(sources)

	// Palette Labs are shared read-only across all workers.
	palColors := make([]colorspace.Color, len(pal))
	palLabs := make([]colorspace.Lab, len(pal))
	for i, e := range pal {
		palColors[i] = e.Color
		palLabs[i] = cache.ToLab(e.Color)
	}

	ix := &Index{
		method:    n.Method,
		threshold: n.Threshold,
		matches:   make(map[colorspace.Color][]Match, len(unique)),
	}
	if len(unique) == 0 {
		return ix, nil
	}

	workers := n.Workers
	if workers > len(unique) {
		workers = len(unique)
	}

	partials := make([]map[colorspace.Color][]Match, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start, end := splitRange(len(unique), workers, w)
		wg.Add(1)
		go func(slot int, part []colorspace.Color) {
			defer wg.Done()
			local := make(map[colorspace.Color][]Match, len(part))
			for _, src := range part {
				srcLab := cache.ToLab(src)
				var ms []Match
				for i := range palLabs {
					d := n.Method.Distance(srcLab, palLabs[i])
					if d <= n.Threshold {
						ms = append(ms, Match{Color: palColors[i], Distance: d})
					}
				}
				sort.SliceStable(ms, func(a, b int) bool {
					return ms[a].Distance < ms[b].Distance
				})
				local[src] = ms
			}
			partials[slot] = local
		}(w, unique[start:end])
	}
	wg.Wait()

	for _, local := range partials {
		for src, ms := range local {
			ix.matches[src] = ms
		}
	}
	return ix, nil
}

// Lookup returns the matches for a source color, best first. It returns
// an empty slice both for colors that were never indexed and for indexed
// colors with no match inside the threshold; Contains distinguishes the
// two. Callers must not modify the returned slice.
func (ix *Index) Lookup(c colorspace.Color) []Match {
	return ix.matches[c]
}

// Best returns the closest palette match for a source color. ok is false
// when the color is unknown to the index or has no match within the
// threshold, in which case the caller should leave the color unchanged.
func (ix *Index) Best(c colorspace.Color) (Match, bool) {
	ms := ix.matches[c]
	if len(ms) == 0 {
		return Match{}, false
	}
	return ms[0], true
}

// Contains reports whether the color was part of the source set the
// index was built from, regardless of whether it has any match.
func (ix *Index) Contains(c colorspace.Color) bool {
	_, ok := ix.matches[c]
	return ok
}

// Len returns the number of indexed source colors.
func (ix *Index) Len() int { return len(ix.matches) }

// Sources returns the indexed source colors sorted by hex form.
func (ix *Index) Sources() []colorspace.Color {
	out := make([]colorspace.Color, 0, len(ix.matches))
	for c := range ix.matches {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hex() < out[j].Hex()
	})
	return out
}

// Method returns the distance method the index was built with. Indexes
// decoded from interchange form do not carry one and return the empty
// Method.
func (ix *Index) Method() deltae.Method { return ix.method }

// Threshold returns the distance threshold the index was built with, or
// zero for indexes decoded from interchange form.
func (ix *Index) Threshold() float64 { return ix.threshold }

// dedupe returns the distinct colors in order of first appearance.
func dedupe(colors []colorspace.Color) []colorspace.Color {
	seen := make(map[colorspace.Color]struct{}, len(colors))
	out := make([]colorspace.Color, 0, len(colors))
	for _, c := range colors {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// splitRange partitions length items into count contiguous chunks and
// returns the half-open bounds of chunk i. Leading chunks absorb the
// remainder so sizes differ by at most one.
func splitRange(length, count, i int) (start, end int) {
	size := length / count
	rem := length % count
	start = i*size + minInt(i, rem)
	end = start + size
	if i < rem {
		end++
	}
	return start, end
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
