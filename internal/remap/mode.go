package remap

import (
	"fmt"
	"strings"
)

// Mode selects the remapping strategy.
type Mode string

const (
	// ModeDirect replaces each pixel with its best match, no dithering.
	ModeDirect Mode = "direct"

	// ModeDithered applies Floyd-Steinberg error diffusion at full
	// strength.
	ModeDithered Mode = "dithered"

	// ModeAdaptive dithers with edge-scaled strength, occasional
	// runner-up picks and softening blurs.
	ModeAdaptive Mode = "adaptive"
)

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("remap: unknown mode %q (supported: %s, %s, %s)",
			s, ModeDirect, ModeDithered, ModeAdaptive)
	}
	return m, nil
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDirect, ModeDithered, ModeAdaptive:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }
