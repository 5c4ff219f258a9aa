package colorspace

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

// Color represents an RGB color with 8-bit components.
//
// Each component ranges from 0 to 255, where:
//   - 0 represents no intensity (black for all components)
//   - 255 represents full intensity (white for all components)
//
// Color is comparable and can be used directly as a map key, which the
// similarity index and the Lab cache both rely on.
type Color struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// New constructs a Color from individual 8-bit components.
func New(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromColor converts a standard library color to an 8-bit Color.
//
// The native color is read through the color.Color interface, which reports
// 16-bit alpha-premultiplied components; values are scaled down by
// right-shifting 8 bits. Alpha is discarded.
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// ParseHex parses a six-digit hexadecimal color string.
//
// Parameters:
//   - s: The hex string to parse. A leading "#" is optional and both upper
//     and lower case digits are accepted, so "d7003a", "#D7003A" and
//     "D7003A" all decode to the same Color.
//
// Returns:
//   - Color: The decoded color.
//   - error: Non-nil if the string is not exactly six hex digits after the
//     optional "#" prefix. Malformed input is rejected immediately rather
//     than coerced, so bad palette data surfaces at load time.
func ParseHex(s string) (Color, error) {
	raw := strings.TrimPrefix(s, "#")
	if len(raw) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q: want 6 hex digits", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

// Hex returns the canonical hex form of the color: six uppercase digits
// with no "#" prefix, e.g. "D7003A".
//
// This is the form used for palette data, index keys and interchange files.
// Every Color has exactly one canonical form, so Hex output can be compared
// byte-for-byte and round-trips through ParseHex unchanged.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// String returns the display form "#RRGGBB" used in logs and CLI output.
func (c Color) String() string {
	return "#" + c.Hex()
}

// RGBA implements the color.Color interface, allowing a Color to be written
// directly into standard library images.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xFFFF
}
