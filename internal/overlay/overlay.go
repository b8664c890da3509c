// Package overlay renders detection results on top of the source blueprint
// for visual inspection. Each room gets its own color, its simplified
// polygon drawn over the walls and a small cross at its centroid.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	colorful "github.com/lucasb-eyer/go-colorful"

	"roomscan/internal/detect"
	"roomscan/internal/geometry"
)

// Render draws the detected rooms over the source image and returns the
// annotated copy. The source is never modified. Colors are assigned
// deterministically by room index (evenly spaced hues), so the same result
// always renders the same overlay.
func Render(src image.Image, rooms []detect.Room) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)

	for i, room := range rooms {
		c := roomColor(i, len(rooms))
		drawPolygon(dst, room.Polygon, c)
		drawCross(dst, int(room.CentroidX+0.5), int(room.CentroidY+0.5), c)
	}
	return dst
}

// EncodePNG renders the overlay and encodes it as PNG bytes.
func EncodePNG(src image.Image, rooms []detect.Room) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(src, rooms)); err != nil {
		return nil, fmt.Errorf("encoding overlay png: %w", err)
	}
	return buf.Bytes(), nil
}

// roomColor picks a saturated, bright color for room i of n. Hues are
// spread evenly around the wheel so adjacent rooms stay distinguishable.
func roomColor(i, n int) color.RGBA {
	if n < 1 {
		n = 1
	}
	hue := float64(i) * 360.0 / float64(n)
	r, g, b := colorful.Hsv(hue, 0.85, 0.9).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawPolygon draws the closed ring through the polygon's vertices.
func drawPolygon(dst *image.RGBA, poly []geometry.Point, c color.RGBA) {
	n := len(poly)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		drawLine(dst, a.X, a.Y, b.X, b.Y, c)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(dst *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(dst, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawCross marks a point with a small plus sign.
func drawCross(dst *image.RGBA, x, y int, c color.RGBA) {
	const arm = 4
	for d := -arm; d <= arm; d++ {
		setPixel(dst, x+d, y, c)
		setPixel(dst, x, y+d, c)
	}
}

func setPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
