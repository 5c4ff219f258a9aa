package deltae

import (
	"fmt"
	"strings"

	"github.com/nipponcolors/nipponize/internal/colorspace"
)

// Method identifies a color difference formula.
//
// The zero value is not a valid method; use ParseMethod to validate user
// input and DefaultMethod where no explicit choice was made.
type Method string

// Supported color difference formulas.
const (
	MethodCIEDE2000 Method = "ciede2000"
	MethodCIE94     Method = "cie94"
)

// DefaultMethod is the formula used when a caller does not pick one.
const DefaultMethod = MethodCIEDE2000

// ParseMethod validates a method identifier from configuration or CLI
// input. Matching is case-insensitive. Unknown identifiers are rejected
// rather than silently falling back to a default, so a typo in a config
// surfaces before any distances are computed.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(s)); m {
	case MethodCIEDE2000, MethodCIE94:
		return m, nil
	}
	return "", fmt.Errorf("unknown color distance method %q (supported: %s, %s)",
		s, MethodCIEDE2000, MethodCIE94)
}

// Valid reports whether m names a supported formula.
func (m Method) Valid() bool {
	return m == MethodCIEDE2000 || m == MethodCIE94
}

// Distance computes the color difference between a and b using formula m.
//
// Callers are expected to have validated m via ParseMethod; the zero value
// falls through to the default formula so that zero-valued option structs
// behave sensibly.
func (m Method) Distance(a, b colorspace.Lab) float64 {
	switch m {
	case MethodCIE94:
		return CIE94(a, b)
	default:
		return CIEDE2000(a, b)
	}
}
