package deltae

import (
	"math"

	"github.com/nipponcolors/nipponize/internal/colorspace"
)

// Graphic arts weighting constants for CIE94.
const (
	cie94K1 = 0.045
	cie94K2 = 0.015
)

// CIE94 computes the CIE 1994 difference between two Lab colors.
//
// The textbook formula weights chroma and hue by the chroma of the
// reference color, which makes it order-dependent. This implementation
// uses the geometric mean of both chromas instead, so the result is
// symmetric in its arguments like the other formulas in this package.
func CIE94(lab1, lab2 colorspace.Lab) float64 {
	dL := lab1.L - lab2.L

	c1 := math.Sqrt(lab1.A*lab1.A + lab1.B*lab1.B)
	c2 := math.Sqrt(lab2.A*lab2.A + lab2.B*lab2.B)
	dC := c1 - c2

	da := lab1.A - lab2.A
	db := lab1.B - lab2.B

	// Residual hue difference; guard the subtraction against rounding
	// pushing it below zero.
	dH2 := da*da + db*db - dC*dC
	if dH2 < 0 {
		dH2 = 0
	}

	cBar := math.Sqrt(c1 * c2)
	sc := 1.0 + cie94K1*cBar
	sh := 1.0 + cie94K2*cBar

	return math.Sqrt(dL*dL + (dC/sc)*(dC/sc) + dH2/(sh*sh))
}
