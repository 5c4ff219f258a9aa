// Package imgio handles image file I/O for the pipeline: decoding with
// a broad format set, caching, saving, and the pixel scans the indexing
// steps need.
//
// # Formats
//
// Importing this package registers decoders for PNG, JPEG, GIF, BMP,
// TIFF and WebP. Decoding picks the format from the file contents;
// saving picks the encoder from the file extension.
//
// # Caching
//
// Pipelines that both index and remap read every image twice. Cache
// keeps decoded images keyed by path so the second pass is free, and
// Evict releases an image once a batch step is done with it.
package imgio
