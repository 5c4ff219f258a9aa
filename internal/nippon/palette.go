package nippon

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/nipponcolors/nipponize/internal/colorspace"
)

// Entry is one named color of the reference palette.
//
// The JSON field names follow the upstream nipponcolors records, so a file
// scraped from the site loads without translation. Hex is stored in
// canonical form (six uppercase digits, no "#") regardless of how it was
// spelled in the input.
type Entry struct {
	Kanji string    `json:"kanji_name"`     // e.g. "躑躅"
	Name  string    `json:"english_name"`   // romanized name, e.g. "TSUTSUJI"
	Hex   string    `json:"hex_rgb"`        // canonical "RRGGBB"
	CMYK  *[4]uint8 `json:"cmyk,omitempty"` // optional ink mix, percentages

	// Color is the parsed form of Hex, resolved once at load time.
	Color colorspace.Color `json:"-"`
}

// Palette is an immutable, ordered list of palette entries.
type Palette []Entry

//go:embed data/nippon_colors.json
var embeddedPalette []byte

var (
	defaultOnce sync.Once
	defaultPal  Palette
)

// Default returns the palette compiled into the binary.
//
// The embedded data is parsed once on first use and shared afterwards;
// callers must treat the returned palette as read-only. Parsing the
// embedded data cannot fail for any released binary, so a failure here
// panics rather than burdening every caller with an error path.
func Default() Palette {
	defaultOnce.Do(func() {
		pal, err := Load(bytes.NewReader(embeddedPalette))
		if err != nil {
			panic(fmt.Sprintf("nippon: embedded palette is corrupt: %v", err))
		}
		defaultPal = pal
	})
	return defaultPal
}

// Load reads a palette from JSON.
//
// Every entry is validated as it is read: the hex value must parse and the
// romanized name must be present. The first bad entry fails the whole load
// with its position in the file; a palette with a silently dropped or
// mangled color would poison every index built from it, so there is no
// lenient mode.
func Load(r io.Reader) (Palette, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("palette contains no entries")
	}

	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("palette entry %d (%q): missing english_name", i, e.Kanji)
		}
		c, err := colorspace.ParseHex(e.Hex)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d (%s): %w", i, e.Name, err)
		}
		e.Color = c
		e.Hex = c.Hex()
	}

	return entries, nil
}

// LoadFile reads a palette from a JSON file on disk.
func LoadFile(path string) (Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open palette file: %w", err)
	}
	defer f.Close()

	pal, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pal, nil
}

// Colors returns the palette's colors in entry order.
func (p Palette) Colors() []colorspace.Color {
	colors := make([]colorspace.Color, len(p))
	for i, e := range p {
		colors[i] = e.Color
	}
	return colors
}

// Find returns the first entry with the given color value.
func (p Palette) Find(c colorspace.Color) (Entry, bool) {
	for _, e := range p {
		if e.Color == c {
			return e, true
		}
	}
	return Entry{}, false
}

// FindName returns the entry with the given romanized name.
func (p Palette) FindName(name string) (Entry, bool) {
	for _, e := range p {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
