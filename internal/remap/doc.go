// Package remap rewrites images into palette colors using a similarity
// index, in one of three modes. Remap handles one decoded image;
// RemapFiles drives a whole batch of files.
//
// # Modes
//
// Direct replaces each pixel with its best palette match and leaves
// pixels without a match untouched. It preserves hard edges exactly but
// produces flat banding in gradients.
//
// Dithered runs Floyd-Steinberg error diffusion in raster order: the
// quantization error of each replaced pixel spreads to its right and
// lower neighbors with the classic 7/16, 3/16, 5/16, 1/16 weights.
// Pixels without a match pass through and diffuse no error.
//
// Adaptive is dithered tuned for artwork: a light Gaussian blur first
// removes scanner noise, the diffused error is scaled between 0.4 in
// flat regions and 0.8 on edges (so gradients keep texture while flat
// fills stay calm), occasionally the runner-up match is chosen instead
// of the best to break up large uniform fills, and a final soft blur
// knits the dithering together.
//
// # Lookup Misses
//
// The index covers the source colors it was built from. Error diffusion
// shifts colors off that set, so the accumulated value is clamped to the
// 8-bit range and truncated to form the lookup key. A key still absent
// from the index leaves the pixel unchanged and diffuses nothing, which
// keeps unmapped regions (and anything the threshold rejected) intact.
package remap
