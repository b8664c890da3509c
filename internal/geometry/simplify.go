package geometry

import (
	"math"
	"sort"
)

// Simplify reduces a dense closed point chain to a polygon with fewer
// vertices, keeping every removed point within epsilon of the simplified
// outline.
//
// Parameters:
//   - chain: The traced contour points, in order. Treated as a closed ring
//     (the last point connects back to the first).
//   - epsilon: Maximum allowed deviation in pixels. Callers typically derive
//     this from the contour perimeter so the tolerance is scale-invariant
//     across image resolutions.
//
// Returns a polygon with at least 3 vertices. If Douglas-Peucker reduction
// would collapse the ring below 3 vertices, the convex hull of the original
// chain is returned instead; if even the hull is degenerate (collinear
// input), the axis-aligned bounding rectangle is returned. A detected region
// is therefore never silently dropped by simplification.
//
// # Algorithm
//
// Douglas-Peucker adapted to closed rings:
//
//  1. Anchor the ring at its first point and at the point farthest from it.
//     These two anchors split the ring into two open polylines.
//  2. Simplify each polyline recursively: find the point with maximum
//     perpendicular distance to the anchor segment; if it exceeds epsilon,
//     split there and recurse, otherwise drop all interior points.
//  3. Concatenate the two simplified halves back into a ring.
func Simplify(chain []Point, epsilon float64) []Point {
	if len(chain) <= 3 {
		return fallbackPolygon(chain)
	}
	if epsilon <= 0 {
		epsilon = 1
	}

	// Split the ring at the point farthest from chain[0].
	far := 0
	var farDist float64
	for i, p := range chain {
		dx := float64(p.X - chain[0].X)
		dy := float64(p.Y - chain[0].Y)
		if d := dx*dx + dy*dy; d > farDist {
			farDist = d
			far = i
		}
	}
	if far == 0 {
		// All points coincide.
		return fallbackPolygon(chain)
	}

	closing := make([]Point, 0, len(chain)-far+1)
	closing = append(closing, chain[far:]...)
	closing = append(closing, chain[0])

	first := douglasPeucker(chain[:far+1], epsilon)
	second := douglasPeucker(closing, epsilon)

	// Join, dropping the duplicated anchor points.
	poly := make([]Point, 0, len(first)+len(second)-2)
	poly = append(poly, first...)
	poly = append(poly, second[1:len(second)-1]...)

	if len(poly) < 3 {
		return fallbackPolygon(chain)
	}
	return poly
}

// douglasPeucker simplifies an open polyline, always keeping its endpoints.
func douglasPeucker(line []Point, epsilon float64) []Point {
	if len(line) < 3 {
		return append([]Point(nil), line...)
	}

	// Find the point with maximum distance from the anchor segment.
	var maxDist float64
	index := 0
	a, b := line[0], line[len(line)-1]
	for i := 1; i < len(line)-1; i++ {
		if d := perpendicularDistance(line[i], a, b); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []Point{a, b}
	}

	left := douglasPeucker(line[:index+1], epsilon)
	right := douglasPeucker(line[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// perpendicularDistance computes the distance from p to the segment ab.
// Degenerate segments (a == b) fall back to the point distance.
func perpendicularDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		px := float64(p.X - a.X)
		py := float64(p.Y - a.Y)
		return math.Sqrt(px*px + py*py)
	}
	num := math.Abs(dy*float64(p.X) - dx*float64(p.Y) + float64(b.X)*float64(a.Y) - float64(b.Y)*float64(a.X))
	return num / math.Sqrt(dx*dx+dy*dy)
}

// ConvexHull computes the convex hull of a point set using Andrew's monotone
// chain algorithm. The hull is returned in a consistent winding order without
// a repeated closing point.
//
// Returns fewer than 3 points when the input is degenerate (all points
// collinear or coincident).
func ConvexHull(points []Point) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}

	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// Deduplicate after sorting so coincident trace points cannot stall the hull.
	uniq := pts[:1]
	for _, p := range pts[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []Point
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// fallbackPolygon guarantees a polygon with at least 3 vertices for a chain
// that is too small or too degenerate to simplify: first the convex hull,
// then the axis-aligned bounding rectangle.
func fallbackPolygon(chain []Point) []Point {
	if len(chain) >= 3 {
		if hull := ConvexHull(chain); len(hull) >= 3 {
			return hull
		}
	}
	box := BoundingBox(chain)
	return []Point{
		{X: box.MinX, Y: box.MinY},
		{X: box.MaxX, Y: box.MinY},
		{X: box.MaxX, Y: box.MaxY},
		{X: box.MinX, Y: box.MaxY},
	}
}
