// Package imaging handles image access for the detection service: decoding
// uploaded blueprints, fetching blobs by content address and caching the
// decoded results.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions use the half-open
// convention: (x1,y1) inclusive, (x2,y2) exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The fetchers are
// stateless and can be shared freely.
//
// # Memory
//
// Decoded blueprints can be large; long-running processes should Evict
// entries for jobs they are done with, or Clear the cache periodically.
package imaging
