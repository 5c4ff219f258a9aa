package deltae

import (
	"math"

	"github.com/nipponcolors/nipponize/internal/colorspace"
)

const pow25To7 = 6103515625.0 // 25^7

// CIEDE2000 computes the CIE Delta E 2000 difference between two Lab
// colors with the parametric weights kL, kC and kH all fixed at 1.
//
// The formula corrects the known weaknesses of the older Delta E
// definitions: chroma is compensated so neutral colors are not
// over-separated, hue differences are weighted by chroma, and a rotation
// term fixes the formula's behavior in the blue region. The result is
// symmetric in its arguments and zero exactly when the inputs are equal.
func CIEDE2000(lab1, lab2 colorspace.Lab) float64 {
	c1 := math.Sqrt(lab1.A*lab1.A + lab1.B*lab1.B)
	c2 := math.Sqrt(lab2.A*lab2.A + lab2.B*lab2.B)
	cBar := (c1 + c2) / 2.0

	// Chroma compensation: G shrinks a* for near-neutral colors.
	cBar7 := math.Pow(cBar, 7)
	g := 0.5 * (1.0 - math.Sqrt(cBar7/(cBar7+pow25To7)))

	a1p := (1.0 + g) * lab1.A
	a2p := (1.0 + g) * lab2.A

	c1p := math.Sqrt(a1p*a1p + lab1.B*lab1.B)
	c2p := math.Sqrt(a2p*a2p + lab2.B*lab2.B)

	h1p := hueAngle(lab1.B, a1p)
	h2p := hueAngle(lab2.B, a2p)

	dLp := lab2.L - lab1.L
	dCp := c2p - c1p

	// Hue difference takes the short way around the hue circle.
	var dhp float64
	switch {
	case c1p*c2p == 0:
		dhp = 0
	case math.Abs(h2p-h1p) <= 180:
		dhp = h2p - h1p
	case h2p-h1p > 180:
		dhp = h2p - h1p - 360
	default:
		dhp = h2p - h1p + 360
	}
	dHp := 2.0 * math.Sqrt(c1p*c2p) * math.Sin(rad(dhp)/2.0)

	lBar := (lab1.L + lab2.L) / 2.0
	cBarP := (c1p + c2p) / 2.0

	// Mean hue, also taken the short way around.
	var hBarP float64
	switch {
	case c1p*c2p == 0:
		hBarP = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarP = (h1p + h2p) / 2.0
	case h1p+h2p < 360:
		hBarP = (h1p + h2p + 360) / 2.0
	default:
		hBarP = (h1p + h2p - 360) / 2.0
	}

	t := 1.0 -
		0.17*math.Cos(rad(hBarP-30)) +
		0.24*math.Cos(rad(2*hBarP)) +
		0.32*math.Cos(rad(3*hBarP+6)) -
		0.20*math.Cos(rad(4*hBarP-63))

	// Rotation term, active only in the blue region around 275 degrees.
	dTheta := 30.0 * math.Exp(-((hBarP-275)/25)*((hBarP-275)/25))
	cBarP7 := math.Pow(cBarP, 7)
	rc := 2.0 * math.Sqrt(cBarP7/(cBarP7+pow25To7))
	rt := -math.Sin(rad(2*dTheta)) * rc

	// Weighting functions.
	lBar50sq := (lBar - 50.0) * (lBar - 50.0)
	sl := 1.0 + 0.015*lBar50sq/math.Sqrt(20.0+lBar50sq)
	sc := 1.0 + 0.045*cBarP
	sh := 1.0 + 0.015*cBarP*t

	dL := dLp / sl
	dC := dCp / sc
	dH := dHp / sh

	return math.Sqrt(dL*dL + dC*dC + dH*dH + rt*dC*dH)
}

// hueAngle returns the hue angle of (a', b) in degrees within [0, 360).
// Colors on the neutral axis have no defined hue and report 0.
func hueAngle(b, ap float64) float64 {
	if b == 0 && ap == 0 {
		return 0
	}
	h := deg(math.Atan2(b, ap))
	if h < 0 {
		h += 360
	}
	return h
}

func rad(d float64) float64 { return d * math.Pi / 180.0 }

func deg(r float64) float64 { return r * 180.0 / math.Pi }
