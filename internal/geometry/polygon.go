package geometry

import "math"

// Point represents a 2D coordinate in pixel space.
//
// All geometry in this package stays in the source image's pixel coordinate
// system: origin at the top-left corner, X increasing rightward, Y increasing
// downward. No normalization is applied, so derived polygons overlay directly
// onto the original image.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Box is the axis-aligned bounding rectangle of a polygon.
//
// Min and Max are both inclusive vertex bounds: every polygon vertex (x, y)
// satisfies MinX <= x <= MaxX and MinY <= y <= MaxY.
type Box struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Contains reports whether the point lies inside the box (inclusive).
func (b Box) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// BoundingBox computes the min/max vertex bounds of a polygon.
//
// Returns the zero Box for an empty polygon.
func BoundingBox(poly []Point) Box {
	if len(poly) == 0 {
		return Box{}
	}
	box := Box{MinX: poly[0].X, MinY: poly[0].Y, MaxX: poly[0].X, MaxY: poly[0].Y}
	for _, p := range poly[1:] {
		if p.X < box.MinX {
			box.MinX = p.X
		}
		if p.X > box.MaxX {
			box.MaxX = p.X
		}
		if p.Y < box.MinY {
			box.MinY = p.Y
		}
		if p.Y > box.MaxY {
			box.MaxY = p.Y
		}
	}
	return box
}

// SignedArea computes the signed area of a closed polygon via the shoelace
// formula. The sign depends on winding order: positive for counter-clockwise
// in a Y-down coordinate system when traversed clockwise on screen.
func SignedArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return sum / 2
}

// Area computes the absolute area of a closed polygon in square pixels.
//
// The result is independent of winding order, so contours traced clockwise
// and counter-clockwise yield the same value.
func Area(poly []Point) float64 {
	return math.Abs(SignedArea(poly))
}

// Perimeter computes the total edge length of a closed polygon, including the
// closing edge from the last vertex back to the first.
func Perimeter(poly []Point) float64 {
	if len(poly) < 2 {
		return 0
	}
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		dx := float64(q.X - p.X)
		dy := float64(q.Y - p.Y)
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	return sum
}

// Centroid computes the centroid of a closed polygon.
//
// Uses the standard area-weighted polygon centroid formula. For degenerate
// polygons with zero area (collinear vertices), it falls back to the
// arithmetic mean of the vertices so a usable anchor point is always returned.
func Centroid(poly []Point) (float64, float64) {
	if len(poly) == 0 {
		return 0, 0
	}
	a := SignedArea(poly)
	if a == 0 {
		var sx, sy float64
		for _, p := range poly {
			sx += float64(p.X)
			sy += float64(p.Y)
		}
		n := float64(len(poly))
		return sx / n, sy / n
	}
	var cx, cy float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		cross := float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
		cx += (float64(p.X) + float64(q.X)) * cross
		cy += (float64(p.Y) + float64(q.Y)) * cross
	}
	return cx / (6 * a), cy / (6 * a)
}

// ChainPerimeter computes the length of an open point chain without the
// closing edge. Used for scale-invariant simplification tolerances, where the
// tolerance is expressed as a fraction of the traced contour's length.
func ChainPerimeter(chain []Point) float64 {
	var sum float64
	for i := 1; i < len(chain); i++ {
		dx := float64(chain[i].X - chain[i-1].X)
		dy := float64(chain[i].Y - chain[i-1].Y)
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	return sum
}
