// Package deltae implements perceptual color difference formulas over CIE
// L*a*b* inputs.
//
// Two formulas are available, selected by Method:
//   - ciede2000: the CIE Delta E 2000 formula with all correction terms
//     (chroma compensation, the rotation term for the blue region, and the
//     lightness, chroma and hue weighting functions). This is the default
//     and the formula the reference palette matching is tuned for.
//   - cie94: the CIE 1994 formula, cheaper to evaluate, computed with the
//     geometric mean of the two chromas so the result is symmetric in its
//     arguments.
//
// Plain Euclidean distance in RGB or Lab space is intentionally not
// offered; nearest neighbors under it diverge badly from what the eye
// considers close, and a palette built on it mismatches everything
// downstream.
//
// Both formulas guarantee d(a,b) == d(b,a) and d(a,a) == 0. Distances are
// on the conventional 0-100 scale where values under 1 are generally
// imperceptible and values around 2-10 read as the same color family.
package deltae
