// Package colorspace provides the color types and conversions the rest of
// the pipeline is built on.
//
// The package defines two representations and the bridge between them:
//   - Color: an 8-bit sRGB triple, the working currency of images, palettes
//     and index keys. Colors are comparable and map-key safe.
//   - Lab: the CIE L*a*b* representation that perceptual distance formulas
//     operate on.
//
// # Hex Forms
//
// The canonical textual form of a Color is six uppercase hex digits with no
// "#" prefix ("D7003A"). ParseHex is forgiving on input (optional "#", any
// case) but Hex always emits the canonical form, so hex strings written by
// this package can be compared byte-for-byte and used as interchange keys.
//
// # Conversion Chain
//
// RGB to Lab goes through a fixed chain: sRGB gamma expansion, the sRGB/D65
// matrix to XYZ, then the CIE transfer function against the D65 white point.
// The chain never varies, which keeps conversions deterministic and makes
// caching sound.
//
// # Thread Safety
//
// LabCache is safe for concurrent use. One cache instance is shared across
// the index builder's workers and the significance ranker so repeated
// conversions of the same color are computed once.
package colorspace
