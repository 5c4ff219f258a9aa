package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nipponcolors/nipponize/internal/colorspace"
	"github.com/nipponcolors/nipponize/internal/deltae"
	"github.com/nipponcolors/nipponize/internal/imgio"
	"github.com/nipponcolors/nipponize/internal/nippon"
	"github.com/nipponcolors/nipponize/internal/ranker"
	"github.com/nipponcolors/nipponize/internal/remap"
	"github.com/nipponcolors/nipponize/internal/similarity"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("nipponize %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	// Results go to stdout or files; logging stays on stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	var err error
	switch os.Args[1] {
	case "palette":
		err = runPalette(os.Args[2:])
	case "colors":
		err = runColors(os.Args[2:])
	case "index":
		err = runIndex(os.Args[2:])
	case "rank":
		err = runRank(os.Args[2:])
	case "remap":
		err = runRemap(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "nipponize: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Println("nipponize - map artwork colors onto the traditional Japanese palette")
	fmt.Println()
	fmt.Println("Usage: nipponize <command> [options] [images...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  palette   Print the palette (embedded by default)")
	fmt.Println("  colors    Collect the distinct colors of the input images")
	fmt.Println("  index     Build a color similarity index for the input images")
	fmt.Println("  rank      Score dominant colors and name their palette matches")
	fmt.Println("  remap     Rewrite images into palette colors")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run 'nipponize <command> -h' for command options.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  nipponize index -o works.msgpack artwork/")
	fmt.Println("  nipponize rank -o scores.jsonl artwork/")
	fmt.Println("  nipponize remap -mode adaptive -index works.msgpack -out mapped artwork/")
}

func debugEnabled() bool {
	return os.Getenv("NIPPONIZE_LOG_LEVEL") == "debug"
}

// loadPalette returns the embedded palette or one loaded from path.
func loadPalette(path string) (nippon.Palette, error) {
	if path == "" {
		return nippon.Default(), nil
	}
	return nippon.LoadFile(path)
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// expandImages resolves the positional arguments into image paths.
// Directory arguments contribute their image files, without recursion.
func expandImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input images")
	}
	return paths, nil
}

// collectColors unions the distinct colors of the given images. Images
// that fail to load are logged and skipped; only a batch with no usable
// image at all is an error.
func collectColors(cache *imgio.Cache, paths []string, maxDim int) ([]colorspace.Color, error) {
	colors, scans := imgio.CollectColors(cache, paths, maxDim)
	loaded := 0
	for _, s := range scans {
		if s.Err != nil {
			log.Printf("skipping %s: %v", s.Path, s.Err)
			continue
		}
		loaded++
		if debugEnabled() {
			log.Printf("%s: %d distinct colors", s.Path, s.Distinct)
		}
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no readable input images")
	}
	return colors, nil
}

func openOutput(path string) (*os.File, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

func runPalette(args []string) error {
	fs := flag.NewFlagSet("palette", flag.ExitOnError)
	palettePath := fs.String("palette", "", "palette JSON file (default: embedded)")
	find := fs.String("find", "", "print only the entry with this romanized name or hex value")
	asJSON := fs.Bool("json", false, "emit the palette as JSON")
	fs.Parse(args)

	pal, err := loadPalette(*palettePath)
	if err != nil {
		return err
	}
	if *find != "" {
		e, ok := pal.FindName(strings.ToUpper(*find))
		if !ok {
			if c, perr := colorspace.ParseHex(*find); perr == nil {
				e, ok = pal.Find(c)
			}
		}
		if !ok {
			return fmt.Errorf("no palette entry matches %q", *find)
		}
		pal = nippon.Palette{e}
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pal)
	}
	for _, e := range pal {
		fmt.Printf("#%s  %-16s %s\n", e.Hex, e.Name, e.Kanji)
	}
	return nil
}

func runColors(args []string) error {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	out := fs.String("o", "", "output file (default: stdout)")
	maxDim := fs.Int("max-dim", 0, "downscale images to at most this dimension before scanning (0: off)")
	fs.Parse(args)

	paths, err := expandImages(fs.Args())
	if err != nil {
		return err
	}
	colors, err := collectColors(imgio.NewCache(), paths, *maxDim)
	if err != nil {
		return err
	}

	hexes := make([]string, len(colors))
	for i, c := range colors {
		hexes[i] = c.Hex()
	}
	sort.Strings(hexes)

	w, closeOut, err := openOutput(*out)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(hexes); err != nil {
		closeOut()
		return fmt.Errorf("writing colors: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}
	log.Printf("%d distinct colors from %d images", len(hexes), len(paths))
	return nil
}

// readColorsFile loads a JSON array of hex colors, as written by the
// colors command.
func readColorsFile(path string) ([]colorspace.Color, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening colors file: %w", err)
	}
	defer f.Close()

	var hexes []string
	if err := json.NewDecoder(f).Decode(&hexes); err != nil {
		return nil, fmt.Errorf("parsing colors file %s: %w", path, err)
	}
	colors := make([]colorspace.Color, 0, len(hexes))
	for _, hx := range hexes {
		c, err := colorspace.ParseHex(hx)
		if err != nil {
			return nil, fmt.Errorf("colors file %s: %w", path, err)
		}
		colors = append(colors, c)
	}
	return colors, nil
}

func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	palettePath := fs.String("palette", "", "palette JSON file (default: embedded)")
	colorsPath := fs.String("colors", "", "read source colors from a JSON file instead of images")
	method := fs.String("method", string(deltae.DefaultMethod), "distance method (ciede2000, cie94)")
	threshold := fs.Float64("threshold", similarity.DefaultThreshold, "maximum distance for a palette match (0: the default, negative: exact matches only)")
	workers := fs.Int("workers", 0, "build workers (0: all CPUs)")
	maxDim := fs.Int("max-dim", 0, "downscale images before scanning (0: off)")
	out := fs.String("o", "color_similarity.json", "output file; .msgpack selects the binary form")
	fs.Parse(args)

	pal, err := loadPalette(*palettePath)
	if err != nil {
		return err
	}
	m, err := deltae.ParseMethod(*method)
	if err != nil {
		return err
	}

	var sources []colorspace.Color
	if *colorsPath != "" {
		sources, err = readColorsFile(*colorsPath)
	} else {
		var paths []string
		paths, err = expandImages(fs.Args())
		if err != nil {
			return err
		}
		sources, err = collectColors(imgio.NewCache(), paths, *maxDim)
	}
	if err != nil {
		return err
	}

	ix, err := similarity.Build(sources, pal, nil, similarity.BuildOptions{
		Method:    m,
		Threshold: *threshold,
		Workers:   *workers,
	})
	if err != nil {
		return err
	}
	if err := similarity.WriteFile(*out, ix); err != nil {
		return err
	}

	matched := 0
	for _, c := range ix.Sources() {
		if len(ix.Lookup(c)) > 0 {
			matched++
		}
	}
	log.Printf("indexed %d colors (%d with matches) -> %s", ix.Len(), matched, *out)
	return nil
}

// rankLine is one JSONL record of the rank command.
type rankLine struct {
	Image  string               `json:"image"`
	Colors []ranker.RankedColor `json:"significant_colors"`
}

func runRank(args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	palettePath := fs.String("palette", "", "palette JSON file (default: embedded)")
	method := fs.String("method", string(deltae.DefaultMethod), "distance method (ciede2000, cie94)")
	count := fs.Int("count", ranker.DefaultDominantCount, "dominant colors to extract per image")
	alts := fs.Int("alts", ranker.DefaultAlternatives, "palette alternatives per color")
	maxDim := fs.Int("max-dim", 0, "downscale images before ranking (0: off)")
	out := fs.String("o", "", "output JSONL file (default: stdout)")
	fs.Parse(args)

	pal, err := loadPalette(*palettePath)
	if err != nil {
		return err
	}
	m, err := deltae.ParseMethod(*method)
	if err != nil {
		return err
	}
	paths, err := expandImages(fs.Args())
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(*out)
	if err != nil {
		return err
	}
	defer closeOut()

	cache := imgio.NewCache()
	labs := colorspace.NewLabCache()
	enc := json.NewEncoder(w)
	opts := ranker.Options{DominantCount: *count, Alternatives: *alts, Method: m}

	processed := 0
	for _, p := range paths {
		img, err := cache.Load(p)
		if err != nil {
			log.Printf("skipping %s: %v", p, err)
			continue
		}
		records, err := ranker.Rank(imgio.FitWithin(img, *maxDim), pal, labs, opts)
		if err != nil {
			log.Printf("skipping %s: %v", p, err)
			cache.Evict(p)
			continue
		}
		if err := enc.Encode(rankLine{Image: p, Colors: records}); err != nil {
			return fmt.Errorf("writing record for %s: %w", p, err)
		}
		processed++
		cache.Evict(p)
		if debugEnabled() {
			log.Printf("%s: %d ranked colors", p, len(records))
		}
	}
	if processed == 0 {
		return fmt.Errorf("no images ranked")
	}
	log.Printf("ranked %d of %d images", processed, len(paths))
	return nil
}

func runRemap(args []string) error {
	fs := flag.NewFlagSet("remap", flag.ExitOnError)
	palettePath := fs.String("palette", "", "palette JSON file (default: embedded)")
	indexPath := fs.String("index", "", "similarity index file; built from the inputs when empty")
	saveIndex := fs.String("save-index", "", "write the built index to this file for reuse")
	modeName := fs.String("mode", string(remap.ModeAdaptive), "remap mode (direct, dithered, adaptive)")
	method := fs.String("method", string(deltae.DefaultMethod), "distance method for index building")
	threshold := fs.Float64("threshold", similarity.DefaultThreshold, "maximum distance for a palette match (0: the default, negative: exact matches only)")
	workers := fs.Int("workers", 0, "index build workers (0: all CPUs)")
	outDir := fs.String("out", ".", "output directory")
	seed := fs.Int64("seed", 0, "random seed for adaptive mode (0: from the clock)")
	secondBest := fs.Float64("second-best", 0, "runner-up pick probability (0: mode default, negative: off)")
	minStrength := fs.Float64("min-strength", 0, "dither strength in flat regions (0: mode default)")
	maxStrength := fs.Float64("max-strength", 0, "dither strength on edges (0: mode default)")
	preBlur := fs.Float64("pre-blur", 0, "blur radius before remapping (0: mode default)")
	postBlur := fs.Float64("post-blur", 0, "blur radius after remapping (0: mode default)")
	fs.Parse(args)

	mode, err := remap.ParseMode(*modeName)
	if err != nil {
		return err
	}
	paths, err := expandImages(fs.Args())
	if err != nil {
		return err
	}

	cache := imgio.NewCache()
	var ix *similarity.Index
	if *indexPath != "" {
		ix, err = similarity.ReadFile(*indexPath)
		if err != nil {
			return err
		}
		log.Printf("loaded index of %d colors from %s", ix.Len(), *indexPath)
	} else {
		pal, err := loadPalette(*palettePath)
		if err != nil {
			return err
		}
		m, err := deltae.ParseMethod(*method)
		if err != nil {
			return err
		}
		sources, err := collectColors(cache, paths, 0)
		if err != nil {
			return err
		}
		ix, err = similarity.Build(sources, pal, nil, similarity.BuildOptions{
			Method:    m,
			Threshold: *threshold,
			Workers:   *workers,
		})
		if err != nil {
			return err
		}
		log.Printf("built index of %d colors", ix.Len())
		if *saveIndex != "" {
			if err := similarity.WriteFile(*saveIndex, ix); err != nil {
				return err
			}
			log.Printf("saved index -> %s", *saveIndex)
		}
	}

	r, err := remap.New(ix, remap.Options{
		Mode:                  mode,
		SecondBestProbability: *secondBest,
		MinDitherStrength:     *minStrength,
		MaxDitherStrength:     *maxStrength,
		PreBlurRadius:         *preBlur,
		PostBlurRadius:        *postBlur,
		Seed:                  *seed,
	})
	if err != nil {
		return err
	}

	// An index loaded from disk may predate the inputs, so report its
	// coverage when debugging.
	if *indexPath != "" && debugEnabled() {
		colors, _ := imgio.CollectColors(cache, paths, 0)
		covered := 0
		for _, c := range colors {
			if ix.Contains(c) {
				covered++
			}
		}
		log.Printf("index covers %d of %d input colors", covered, len(colors))
	}

	processed := 0
	err = r.RemapFiles(cache, paths, *outDir, func(res remap.Result) {
		if res.Err != nil {
			log.Printf("skipping %s: %v", res.Path, res.Err)
			return
		}
		processed++
		log.Printf("%s -> %s", res.Path, res.Output)
	})
	if err != nil {
		return err
	}
	log.Printf("remapped %d of %d images", processed, len(paths))
	return nil
}
