// Package nippon loads and serves the reference palette of traditional
// Japanese colors.
//
// The palette file format is a JSON array of entries with a kanji name, a
// romanized name and a bare six-digit hex value, matching the records
// published by nipponcolors.com. A usable default palette is compiled into
// the binary, so the tools work without any data file on disk; callers
// with their own curated palette can load it with Load or LoadFile.
//
// Palettes are loaded once and never mutated afterwards. All lookup
// structures downstream (the similarity index, ranked alternatives) are
// derived from the loaded palette, so mutating it mid-run would silently
// desynchronize them.
package nippon
