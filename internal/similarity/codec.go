package similarity

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nipponcolors/nipponize/internal/colorspace"
)

// Format identifies an index interchange encoding.
type Format string

const (
	// FormatJSON is indented UTF-8 JSON, readable and diffable.
	FormatJSON Format = "json"

	// FormatMsgpack is the msgpack binary form of the same mapping,
	// smaller and faster to decode.
	FormatMsgpack Format = "msgpack"
)

// Table is the interchange form of an Index: source hex to palette hex to
// distance. Hex keys are canonical six-digit uppercase without a leading
// "#". A source with no matches maps to an empty inner table.
type Table map[string]map[string]float64

// Table converts the index to its interchange form.
func (ix *Index) Table() Table {
	t := make(Table, len(ix.matches))
	for src, ms := range ix.matches {
		inner := make(map[string]float64, len(ms))
		for _, m := range ms {
			inner[m.Color.Hex()] = m.Distance
		}
		t[src.Hex()] = inner
	}
	return t
}

// FromTable reconstructs an Index from its interchange form, validating
// every key and score. The resulting index has no build method or
// threshold; lookups work exactly as on a freshly built index.
func FromTable(t Table) (*Index, error) {
	ix := &Index{matches: make(map[colorspace.Color][]Match, len(t))}
	for srcHex, inner := range t {
		src, err := colorspace.ParseHex(srcHex)
		if err != nil {
			return nil, fmt.Errorf("similarity: source key %q: %w", srcHex, err)
		}
		ms := make([]Match, 0, len(inner))
		for palHex, score := range inner {
			pc, err := colorspace.ParseHex(palHex)
			if err != nil {
				return nil, fmt.Errorf("similarity: palette key %q under %q: %w", palHex, srcHex, err)
			}
			if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
				return nil, fmt.Errorf("similarity: invalid distance %v for %q under %q", score, palHex, srcHex)
			}
			ms = append(ms, Match{Color: pc, Distance: score})
		}
		sort.SliceStable(ms, func(a, b int) bool {
			if ms[a].Distance != ms[b].Distance {
				return ms[a].Distance < ms[b].Distance
			}
			return ms[a].Color.Hex() < ms[b].Color.Hex()
		})
		if len(ms) == 0 {
			ms = nil
		}
		ix.matches[src] = ms
	}
	return ix, nil
}

// Write encodes the index to w in the given format.
func Write(w io.Writer, ix *Index, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ix.Table()); err != nil {
			return fmt.Errorf("similarity: encoding json index: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(ix.Table()); err != nil {
			return fmt.Errorf("similarity: encoding msgpack index: %w", err)
		}
	default:
		return fmt.Errorf("similarity: unsupported index format %q", f)
	}
	return nil
}

// Read decodes an index from r in the given format.
func Read(r io.Reader, f Format) (*Index, error) {
	var t Table
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("similarity: decoding json index: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("similarity: decoding msgpack index: %w", err)
		}
	default:
		return nil, fmt.Errorf("similarity: unsupported index format %q", f)
	}
	return FromTable(t)
}

// DetectFormat infers the interchange format from a file extension.
// ".json" selects JSON; ".msgpack" and ".mp" select msgpack.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("similarity: cannot infer index format from %q", path)
	}
}

// WriteFile writes the index to path in the format implied by its
// extension.
func WriteFile(path string, ix *Index) error {
	f, err := DetectFormat(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("similarity: creating %s: %w", path, err)
	}
	if err := Write(out, ix, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("similarity: closing %s: %w", path, err)
	}
	return nil
}

// ReadFile loads an index from path in the format implied by its
// extension.
func ReadFile(path string) (*Index, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("similarity: opening %s: %w", path, err)
	}
	defer in.Close()
	return Read(in, f)
}
