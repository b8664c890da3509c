// Package detect implements room-boundary detection for raster blueprints.
//
// The detector is a pure function from an image plus parameters to an
// ordered room list: binarize the image into a wall mask, trace contours
// with hierarchy, filter by area and containment, simplify each surviving
// boundary to a minimal polygon, and derive its geometry. Given identical
// input bytes and identical parameters the output is identical: there is no
// randomness and no hidden tuning state anywhere in the pipeline.
//
// Detection strategies are interchangeable behind the Detector interface;
// ContourDetector is the classical contour-analysis implementation.
package detect

import (
	"context"
	"fmt"
	"image"

	"roomscan/internal/contour"
	"roomscan/internal/geometry"
	"roomscan/internal/preprocess"
)

// Detector is the capability interface for room-boundary detection
// strategies.
type Detector interface {
	// Detect returns the rooms found in img. The room list may be empty;
	// a blank blueprint is a valid input. Implementations must be
	// deterministic for identical inputs and parameters.
	Detect(ctx context.Context, img image.Image, params Params) ([]Room, error)
}

// ContourDetector detects rooms via classical contour analysis on a
// binarized wall mask. The zero value is not usable; construct with
// NewContourDetector.
type ContourDetector struct {
	hinter NameHinter
}

// Option configures a ContourDetector.
type Option func(*ContourDetector)

// WithNameHinter installs a best-effort room name provider. Hint failures
// are ignored; they never fail a detection.
func WithNameHinter(h NameHinter) Option {
	return func(d *ContourDetector) {
		if h != nil {
			d.hinter = h
		}
	}
}

// NewContourDetector creates the classical contour-based detector.
func NewContourDetector(opts ...Option) *ContourDetector {
	d := &ContourDetector{hinter: noopHinter{}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect runs the full pipeline: preprocess, trace, filter, simplify,
// measure.
//
// Every returned room satisfies the output invariants: the polygon has at
// least 3 vertices, the bounding box contains every vertex, the area lies
// within [MinAreaPx, MaxAreaPx], and room ids are unique within the result.
// Degenerate intermediate shapes are silently filtered, never surfaced as
// errors.
func (d *ContourDetector) Detect(ctx context.Context, img image.Image, params Params) ([]Room, error) {
	if img == nil {
		return nil, fmt.Errorf("detect: nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params = params.Normalize()

	popts := preprocess.DefaultOptions()
	popts.MorphKernelSize = params.MorphKernelSize
	mask := preprocess.Binarize(img, popts)

	contours := contour.Trace(mask, minContourPoints)
	candidates := filterContours(contours, params)

	rooms := make([]Room, 0, len(candidates))
	for _, c := range candidates {
		epsilon := params.SimplifyEpsilonRatio * geometry.Perimeter(c.Points)
		polygon := geometry.Simplify(c.Points, epsilon)

		area := geometry.Area(polygon)
		if area < params.MinAreaPx || area > params.MaxAreaPx {
			// Simplification nudged the shape across an area bound; the
			// emitted set must honor the bounds exactly.
			continue
		}

		cx, cy := geometry.Centroid(polygon)
		room := Room{
			ID:              fmt.Sprintf("room_%03d", len(rooms)+1),
			Polygon:         polygon,
			BoundingBox:     geometry.BoundingBox(polygon),
			Area:            area,
			Perimeter:       geometry.Perimeter(polygon),
			CentroidX:       cx,
			CentroidY:       cy,
			SourceContourID: c.ID,
		}
		if hint, err := d.hinter.Hint(img, room); err == nil {
			room.NameHint = hint
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
