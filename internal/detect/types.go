package detect

import (
	"roomscan/internal/geometry"
)

// Room is one detected enclosed region, represented as a simplified polygon
// with derived geometry. All coordinates are in the source image's pixel
// space, so the polygon overlays directly onto the original image.
type Room struct {
	// ID is unique within one detection result, formatted room_001,
	// room_002, ... in detection order.
	ID string `json:"id"`

	// Polygon is the simplified boundary, always at least 3 vertices.
	Polygon []geometry.Point `json:"polygon"`

	// BoundingBox is the axis-aligned min/max vertex bounds of Polygon.
	BoundingBox geometry.Box `json:"bounding_box"`

	// Area is the polygon area in square pixels (shoelace, winding-order
	// independent).
	Area float64 `json:"area"`

	// Perimeter is the total polygon edge length in pixels.
	Perimeter float64 `json:"perimeter"`

	// CentroidX, CentroidY locate the polygon centroid; used as the label
	// anchor when rendering overlays.
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`

	// NameHint is an optional best-effort room name (e.g. recognized from
	// text printed inside the region). Empty when no hint is available.
	NameHint string `json:"name_hint,omitempty"`

	// SourceContourID traces the room back to the raw contour it came from.
	SourceContourID int `json:"source_contour_id"`
}

// Result is the complete output of one detection invocation. It is created
// atomically with the job's Completed transition and immutable thereafter.
type Result struct {
	// JobID identifies the job this result belongs to.
	JobID string `json:"job_id"`

	// Rooms is the ordered room list. May be empty: a blank blueprint or
	// over-strict parameters are a valid outcome, not an error.
	Rooms []Room `json:"rooms"`

	// ImageWidth, ImageHeight record the source image dimensions the room
	// coordinates refer to.
	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`

	// Params is the parameter set the detection ran with.
	Params Params `json:"params"`
}

// RoomCount returns the number of detected rooms.
func (r *Result) RoomCount() int {
	return len(r.Rooms)
}
