// Package ranker scores the dominant colors of an artwork by visual
// significance and names their closest traditional palette entries.
//
// # Pipeline
//
// Ranking runs in three stages. Median-cut quantization reduces the
// image to a small set of dominant colors. Every pixel is then assigned
// to its nearest dominant, and each dominant is scored from three
// factors: the share of pixels it owns, how saturated it is, and how
// close its pixel centroid sits to the image center. The weights are
// fixed at 0.5 area, 0.3 saturation and 0.2 position. Finally each
// scored color is annotated with the closest palette entries by
// perceptual distance.
//
// # Metrics
//
// Pixel assignment intentionally uses squared RGB distance, not the
// perceptual formula: it decides which bucket a pixel falls into, where
// cheap and monotonic is enough, and it keeps the area factor consistent
// with how the quantizer grouped the pixels. The palette alternatives
// use the perceptual distance from the deltae package, because there the
// number is shown to a human as "how far is this from the traditional
// color".
package ranker
