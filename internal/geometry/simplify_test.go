package geometry

import (
	"testing"
)

// denseRectangle builds the pixel chain of a rectangle outline, one point
// per pixel, the way a contour trace would produce it.
func denseRectangle(x1, y1, x2, y2 int) []Point {
	var chain []Point
	for x := x1; x < x2; x++ {
		chain = append(chain, Point{x, y1})
	}
	for y := y1; y < y2; y++ {
		chain = append(chain, Point{x2, y})
	}
	for x := x2; x > x1; x-- {
		chain = append(chain, Point{x, y2})
	}
	for y := y2; y > y1; y-- {
		chain = append(chain, Point{x1, y})
	}
	return chain
}

func TestSimplifyRectangleToCorners(t *testing.T) {
	chain := denseRectangle(10, 10, 110, 60)
	poly := Simplify(chain, 2.0)

	if len(poly) != 4 {
		t.Fatalf("Simplify() returned %d vertices, want 4: %v", len(poly), poly)
	}

	box := BoundingBox(poly)
	want := Box{MinX: 10, MinY: 10, MaxX: 110, MaxY: 60}
	if box != want {
		t.Errorf("simplified bounds = %+v, want %+v", box, want)
	}

	// The corners must survive simplification.
	corners := map[Point]bool{
		{10, 10}: false, {110, 10}: false, {110, 60}: false, {10, 60}: false,
	}
	for _, p := range poly {
		if _, ok := corners[p]; ok {
			corners[p] = true
		}
	}
	for c, seen := range corners {
		if !seen {
			t.Errorf("corner %+v missing from simplified polygon %v", c, poly)
		}
	}
}

func TestSimplifyPreservesArea(t *testing.T) {
	chain := denseRectangle(0, 0, 200, 100)
	before := Area(chain)
	poly := Simplify(chain, 0.01*ChainPerimeter(chain))
	after := Area(poly)

	if diff := after - before; diff > before*0.02 || diff < -before*0.02 {
		t.Errorf("area changed too much by simplification: %v -> %v", before, after)
	}
}

func TestSimplifyMinimumVertices(t *testing.T) {
	cases := []struct {
		name  string
		chain []Point
	}{
		{"two points", []Point{{0, 0}, {5, 0}}},
		{"collinear", []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}},
		{"coincident", []Point{{3, 3}, {3, 3}, {3, 3}, {3, 3}}},
		{"tiny triangle", []Point{{0, 0}, {2, 0}, {1, 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			poly := Simplify(tc.chain, 5.0)
			if len(poly) < 3 {
				t.Errorf("Simplify(%v) = %v, want at least 3 vertices", tc.chain, poly)
			}
		})
	}
}

func TestSimplifyDoesNotMutateInput(t *testing.T) {
	chain := denseRectangle(0, 0, 50, 50)
	orig := make([]Point, len(chain))
	copy(orig, chain)

	Simplify(chain, 2.0)

	for i := range chain {
		if chain[i] != orig[i] {
			t.Fatalf("Simplify mutated input at index %d: %+v != %+v", i, chain[i], orig[i])
		}
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}, {3, 7}}
	hull := ConvexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("ConvexHull() = %v, want the 4 square corners", hull)
	}
	for _, p := range hull {
		if p == (Point{5, 5}) || p == (Point{3, 7}) {
			t.Errorf("interior point %+v appeared on hull", p)
		}
	}
}

func TestConvexHullCollinear(t *testing.T) {
	pts := []Point{{0, 0}, {2, 0}, {4, 0}, {6, 0}}
	hull := ConvexHull(pts)
	if len(hull) >= 3 {
		t.Errorf("ConvexHull of collinear points = %v, want a degenerate hull", hull)
	}
}
