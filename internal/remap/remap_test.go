package remap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/nipponcolors/nipponize/internal/colorspace"
	"github.com/nipponcolors/nipponize/internal/nippon"
	"github.com/nipponcolors/nipponize/internal/similarity"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// grayIndex maps every 8-bit gray to the given two entries with
// fabricated distances, best first. Dense keys keep error-shifted
// lookups resolvable during diffusion.
func grayIndex(t *testing.T, best, second string) *similarity.Index {
	t.Helper()
	tab := similarity.Table{}
	for g := 0; g < 256; g++ {
		tab[fmt.Sprintf("%02X%02X%02X", g, g, g)] = map[string]float64{
			best:   0,
			second: 1,
		}
	}
	ix, err := similarity.FromTable(tab)
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	return ix
}

// monoIndex maps every gray to black or white, whichever is nearer.
func monoIndex(t *testing.T) *similarity.Index {
	t.Helper()
	tab := similarity.Table{}
	for g := 0; g < 256; g++ {
		tab[fmt.Sprintf("%02X%02X%02X", g, g, g)] = map[string]float64{
			"000000": float64(g),
			"FFFFFF": float64(255 - g),
		}
	}
	ix, err := similarity.FromTable(tab)
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	return ix
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"direct", ModeDirect, false},
		{"dithered", ModeDithered, false},
		{"adaptive", ModeAdaptive, false},
		{"Adaptive", ModeAdaptive, false},
		{" direct ", ModeDirect, false},
		{"", "", true},
		{"floyd", "", true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	ix := monoIndex(t)

	if _, err := New(nil, Options{}); err == nil {
		t.Error("New accepted a nil index")
	}

	cases := []struct {
		name string
		opts Options
	}{
		{"unknown mode", Options{Mode: "magic"}},
		{"probability above one", Options{Mode: ModeAdaptive, SecondBestProbability: 1.5}},
		{"inverted strength range", Options{Mode: ModeAdaptive, MinDitherStrength: 0.9, MaxDitherStrength: 0.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(ix, tc.opts); err == nil {
				t.Error("New succeeded, want error")
			}
		})
	}
}

func TestNew_ZeroValueIsDirect(t *testing.T) {
	r, err := New(monoIndex(t), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Mode() != ModeDirect {
		t.Errorf("Mode = %s, want direct", r.Mode())
	}
}

func TestRemap_DirectReplacesMatchedPixels(t *testing.T) {
	pal := nippon.Palette{
		{Name: "red", Hex: "FF0000", Color: colorspace.New(255, 0, 0)},
		{Name: "green", Hex: "00FF00", Color: colorspace.New(0, 255, 0)},
	}
	sources := []colorspace.Color{colorspace.New(254, 1, 1), colorspace.New(2, 254, 2)}
	ix, err := similarity.Build(sources, pal, nil, similarity.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				img.SetNRGBA(x, y, color.NRGBA{R: 254, G: 1, B: 1, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 2, G: 254, B: 2, A: 255})
			}
		}
	}

	r, err := New(ix, Options{Mode: ModeDirect})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got := out.NRGBAAt(x, y)
			want := color.NRGBA{R: 255, A: 255}
			if x >= 4 {
				want = color.NRGBA{G: 255, A: 255}
			}
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRemap_DirectIdempotent(t *testing.T) {
	pal := nippon.Palette{{Name: "red", Hex: "FF0000", Color: colorspace.New(255, 0, 0)}}
	// Index both the off shade and the palette color itself, so the
	// second pass resolves every produced pixel.
	sources := []colorspace.Color{colorspace.New(254, 1, 1), colorspace.New(255, 0, 0)}
	ix, err := similarity.Build(sources, pal, nil, similarity.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	img := solidNRGBA(5, 5, color.NRGBA{R: 254, G: 1, B: 1, A: 255})
	r, err := New(ix, Options{Mode: ModeDirect})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	once, err := r.Remap(img)
	if err != nil {
		t.Fatalf("first Remap: %v", err)
	}
	if got := once.NRGBAAt(2, 2); got != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("first pass pixel = %v, want pure red", got)
	}
	twice, err := r.Remap(once)
	if err != nil {
		t.Fatalf("second Remap: %v", err)
	}
	if !bytes.Equal(once.Pix, twice.Pix) {
		t.Error("second direct pass changed pixels")
	}
}

func TestRemap_DirectKeepsUnmatchedPixels(t *testing.T) {
	pal := nippon.Palette{{Name: "red", Hex: "FF0000", Color: colorspace.New(255, 0, 0)}}
	src := colorspace.New(128, 128, 128)
	ix, err := similarity.Build([]colorspace.Color{src}, pal, nil, similarity.BuildOptions{Threshold: 1.0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	img := solidNRGBA(6, 6, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	r, err := New(ix, Options{Mode: ModeDirect})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("pixels without a match were modified")
	}
}

func TestRemap_DirectPreservesAlphaAndInput(t *testing.T) {
	ix := monoIndex(t)
	img := solidNRGBA(4, 4, color.NRGBA{R: 40, G: 40, B: 40, A: 128})
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	r, err := New(ix, Options{Mode: ModeDirect})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}

	if !bytes.Equal(img.Pix, before) {
		t.Error("Remap modified its input image")
	}
	got := out.NRGBAAt(2, 2)
	if got.A != 128 {
		t.Errorf("alpha = %d, want 128 preserved", got.A)
	}
	if got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("gray 40 mapped to %v, want black", got)
	}
}

func TestRemap_DitheredExactColorsDiffuseNothing(t *testing.T) {
	pal := nippon.Palette{{Name: "red", Hex: "FF0000", Color: colorspace.New(255, 0, 0)}}
	ix, err := similarity.Build([]colorspace.Color{colorspace.New(255, 0, 0)}, pal, nil, similarity.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	img := solidNRGBA(8, 8, color.NRGBA{R: 255, A: 255})
	r, err := New(ix, Options{Mode: ModeDithered})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("zero-error replacement changed pixels")
	}
}

func TestRemap_DitheredMixesTowardMeanLevel(t *testing.T) {
	ix := monoIndex(t)
	img := solidNRGBA(16, 16, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	r, err := New(ix, Options{Mode: ModeDithered})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}

	white, black := 0, 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			switch c := out.NRGBAAt(x, y); c {
			case color.NRGBA{R: 255, G: 255, B: 255, A: 255}:
				white++
			case color.NRGBA{A: 255}:
				black++
			default:
				t.Fatalf("pixel (%d,%d) = %v, want pure black or white", x, y, c)
			}
		}
	}
	if white == 0 || black == 0 {
		t.Fatalf("dithering collapsed: %d white, %d black", white, black)
	}
	frac := float64(white) / 256.0
	if frac < 0.35 || frac > 0.65 {
		t.Errorf("white fraction = %.2f, want near 0.5 for a mid gray", frac)
	}
}

func TestRemap_DitheredMissReceivesButStopsError(t *testing.T) {
	ix := monoIndex(t)

	// Left half is indexed mid gray; the right half's color has no
	// entry. Diffusion reaches only the first unmatched column, because
	// a miss forwards no error of its own.
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 254, G: 1, B: 1, A: 255})
			}
		}
	}

	r, err := New(ix, Options{Mode: ModeDithered})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := out.NRGBAAt(x, y)
			if c.R != c.G || c.G != c.B || (c.R != 0 && c.R != 255) {
				t.Fatalf("matched pixel (%d,%d) = %v, want pure black or white", x, y, c)
			}
		}
		// Column 8 absorbs error from its left neighbor; columns past it
		// must be untouched.
		for x := 9; x < 16; x++ {
			if c := out.NRGBAAt(x, y); c != (color.NRGBA{R: 254, G: 1, B: 1, A: 255}) {
				t.Fatalf("unmatched pixel (%d,%d) = %v, want original color", x, y, c)
			}
		}
	}
}

func TestRemap_AdaptiveRunnerUpPicks(t *testing.T) {
	// Best is always white, runner-up always black. With the runner-up
	// pick disabled every pixel lands on white; with probability 1 every
	// pixel lands on black. Both are stable through the closing blur.
	ix := grayIndex(t, "FFFFFF", "000000")
	img := solidNRGBA(12, 12, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	never, err := New(ix, Options{Mode: ModeAdaptive, SecondBestProbability: -1, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := never.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			c := out.NRGBAAt(x, y)
			if c.R < 254 || c.G < 254 || c.B < 254 {
				t.Fatalf("pixel (%d,%d) = %v, want white with the runner-up disabled", x, y, c)
			}
		}
	}

	always, err := New(ix, Options{Mode: ModeAdaptive, SecondBestProbability: 1, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err = always.Remap(img)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			c := out.NRGBAAt(x, y)
			if c.R != 0 || c.G != 0 || c.B != 0 {
				t.Fatalf("pixel (%d,%d) = %v, want black with the runner-up forced", x, y, c)
			}
		}
	}
}

func TestRemap_AdaptiveDeterministicWithSeed(t *testing.T) {
	ix := monoIndex(t)
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			g := uint8(x*16 + y)
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}

	run := func() []uint8 {
		r, err := New(ix, Options{Mode: ModeAdaptive, Seed: 7})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		out, err := r.Remap(img)
		if err != nil {
			t.Fatalf("Remap: %v", err)
		}
		return out.Pix
	}

	if !bytes.Equal(run(), run()) {
		t.Error("same seed produced different adaptive output")
	}
}

func TestRemap_AdaptiveDiffersFromDithered(t *testing.T) {
	ix := monoIndex(t)
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			g := uint8(x*16 + y)
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}

	dit, err := New(ix, Options{Mode: ModeDithered})
	if err != nil {
		t.Fatalf("New dithered: %v", err)
	}
	ada, err := New(ix, Options{Mode: ModeAdaptive, Seed: 3})
	if err != nil {
		t.Fatalf("New adaptive: %v", err)
	}

	outDit, err := dit.Remap(img)
	if err != nil {
		t.Fatalf("Remap dithered: %v", err)
	}
	outAda, err := ada.Remap(img)
	if err != nil {
		t.Fatalf("Remap adaptive: %v", err)
	}
	if bytes.Equal(outDit.Pix, outAda.Pix) {
		t.Error("adaptive output identical to dithered output")
	}
}

func TestRemap_AdaptiveNeutralizedMatchesDithered(t *testing.T) {
	// Runner-up picks off, strength pinned to 1 and both blurs disabled
	// leaves only the shared diffusion pass, so adaptive and dithered
	// must produce the same bytes.
	ix := monoIndex(t)
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			g := uint8(x*16 + y)
			img.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}

	dit, err := New(ix, Options{Mode: ModeDithered})
	if err != nil {
		t.Fatalf("New dithered: %v", err)
	}
	ada, err := New(ix, Options{
		Mode:                  ModeAdaptive,
		SecondBestProbability: -1,
		MinDitherStrength:     1,
		MaxDitherStrength:     1,
		PreBlurRadius:         -1,
		PostBlurRadius:        -1,
		Seed:                  3,
	})
	if err != nil {
		t.Fatalf("New adaptive: %v", err)
	}

	outDit, err := dit.Remap(img)
	if err != nil {
		t.Fatalf("Remap dithered: %v", err)
	}
	outAda, err := ada.Remap(img)
	if err != nil {
		t.Fatalf("Remap adaptive: %v", err)
	}
	if !bytes.Equal(outDit.Pix, outAda.Pix) {
		t.Error("neutralized adaptive output differs from dithered output")
	}
}

func TestRemap_RejectsEmptyImage(t *testing.T) {
	r, err := New(monoIndex(t), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Remap(nil); err == nil {
		t.Error("Remap accepted a nil image")
	}
	if _, err := r.Remap(image.NewNRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("Remap accepted an empty image")
	}
}

func TestEdgeMap(t *testing.T) {
	flat := solidNRGBA(10, 10, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	flatEdges := edgeMap(flat)
	for y := 1; y < 9; y++ {
		for x := 1; x < 9; x++ {
			if v := flatEdges[y*10+x]; v != 0 {
				t.Fatalf("flat image edge value at (%d,%d) = %g, want 0", x, y, v)
			}
		}
	}

	split := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := color.NRGBA{A: 255}
			if x >= 5 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			split.SetNRGBA(x, y, c)
		}
	}
	edges := edgeMap(split)
	if v := edges[5*10+5]; v < 0.999 {
		t.Errorf("boundary edge value = %g, want saturated", v)
	}
	if v := edges[5*10+8]; v != 0 {
		t.Errorf("interior edge value = %g, want 0", v)
	}
}
