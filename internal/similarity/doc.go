// Package similarity builds and serves the color similarity index: for
// every distinct source color, the palette entries that are perceptually
// close to it.
//
// # Index Semantics
//
// The index is keyed by exact 24-bit source color. Each key maps to the
// palette matches within the build threshold, sorted by ascending
// distance, so the first match is always the best one and the second is
// the runner-up the adaptive remapper occasionally picks. A source color
// whose nearest palette entry is beyond the threshold keeps its (empty)
// entry: "no acceptable match" is recorded, not dropped, and remappers
// treat it as "leave the pixel alone".
//
// # Construction
//
// Build compares every distinct source color against every palette entry.
// The work is partitioned across workers by source color; each worker
// fills a private map and the partials are merged after all workers
// finish, so no locking happens on the hot path. Building is O(sources x
// palette) distance evaluations, which for a full artwork against the
// reference palette is the expensive step of the pipeline.
//
// # Interchange
//
// An index travels as a plain two-level mapping, hex to hex to distance,
// either as indented JSON or as the equivalent msgpack binary. The two
// encodings carry the same structure; msgpack is about a third the size
// and decodes faster, which matters once indexes hold tens of thousands
// of source colors. The mapping carries no build metadata, so a reloaded
// index does not know the method or threshold it was built with.
package similarity
