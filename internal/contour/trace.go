// Package contour extracts region boundaries from binary masks.
//
// The extractor traces the borders of connected foreground regions and
// records their nesting relationships, so a boundary inside another boundary
// (a hole, or a region inside a hole) is distinguishable from a sibling
// region at the same level. This topology is what lets a caller tell a
// furniture outline inside a room apart from an adjacent room.
package contour

import (
	"image"

	"roomscan/internal/geometry"
)

// RootParent marks a contour with no enclosing contour in the result set.
const RootParent = -1

// Contour is one traced region boundary with its position in the nesting
// hierarchy.
type Contour struct {
	// ID is the sequential trace id, assigned in raster-scan order. Stable
	// for identical input masks, which keeps the whole pipeline
	// deterministic.
	ID int

	// Points is the ordered border pixel chain. Neighboring points are
	// 8-connected; the last point connects back to the first.
	Points []geometry.Point

	// Parent is the index (into the returned slice) of the immediately
	// enclosing contour, or RootParent when the contour sits at the top
	// level of the mask.
	Parent int

	// Hole reports whether this border encloses background (a hole border)
	// rather than foreground (an outer border). In a wall mask produced by
	// inverse thresholding, enclosed floor areas appear as hole borders.
	Hole bool

	// Area is the enclosed area estimate in square pixels, computed from the
	// border chain via the shoelace formula.
	Area float64
}

// frame is the implicit border id of the image frame, the root of the
// hierarchy. Traced borders receive ids starting at frame+1.
const frame = int32(1)

// borderInfo is per-border bookkeeping during the scan.
type borderInfo struct {
	hole   bool
	parent int32
	chain  []geometry.Point
}

// Trace finds all region borders in a binary mask along with their
// parent/child hierarchy.
//
// Parameters:
//   - mask: Binary image where foreground pixels are >= 128. Typically the
//     output of the preprocessing stage.
//   - minPoints: Borders with fewer traced points than this are discarded
//     immediately as scan noise. Use 0 to keep everything.
//
// Returns the contours in raster-scan discovery order. Parent indices always
// refer to earlier entries in the slice: scanning top-to-bottom discovers an
// enclosing border before anything nested inside it.
//
// # Algorithm
//
// Implements border following in the style of Suzuki & Abe, the same scheme
// OpenCV uses for its full-hierarchy contour retrieval:
//
//  1. Scan the mask row by row. A foreground pixel whose left neighbor is
//     background starts an outer border; a foreground pixel whose right
//     neighbor is background starts a hole border.
//  2. Follow the border with 8-connected Moore neighbor tracing, labeling
//     visited pixels with the border's id (negated where the border touches
//     background on the east side, so each border is traced exactly once).
//  3. Derive the parent from the most recently crossed border on the current
//     row: a border of the opposite type encloses the new one directly,
//     while a border of the same type shares its parent.
//
// The image frame acts as the implicit root border; contours nested directly
// in the frame report RootParent.
func Trace(mask *image.Gray, minPoints int) []Contour {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Label map: 0 background, 1 unvisited foreground, |v| > 1 border id.
	labels := make([][]int32, height)
	for y := 0; y < height; y++ {
		labels[y] = make([]int32, width)
		for x := 0; x < width; x++ {
			if mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y >= 128 {
				labels[y][x] = 1
			}
		}
	}

	nbd := frame
	borders := map[int32]*borderInfo{
		frame: {hole: true, parent: 0},
	}

	for y := 0; y < height; y++ {
		lnbd := frame
		for x := 0; x < width; x++ {
			v := labels[y][x]
			if v == 0 {
				continue
			}

			switch {
			case v == 1 && (x == 0 || labels[y][x-1] == 0):
				// Outer border: background on the west side.
				nbd++
				info := &borderInfo{hole: false, parent: resolveParent(borders, lnbd, false)}
				info.chain = followBorder(labels, width, height, x, y, dirWest, nbd)
				borders[nbd] = info

			case v >= 1 && (x == width-1 || labels[y][x+1] == 0):
				// Hole border: background on the east side.
				if v > 1 {
					lnbd = v
				}
				nbd++
				info := &borderInfo{hole: true, parent: resolveParent(borders, lnbd, true)}
				info.chain = followBorder(labels, width, height, x, y, dirEast, nbd)
				borders[nbd] = info
			}

			if l := labels[y][x]; l != 1 && l != 0 {
				lnbd = abs32(l)
			}
		}
	}

	// Emit in id order, dropping noise borders and remapping parents to
	// slice indices.
	result := make([]Contour, 0, len(borders)-1)
	index := make(map[int32]int, len(borders))
	for id := frame + 1; id <= nbd; id++ {
		info := borders[id]
		if len(info.chain) < minPoints {
			continue
		}
		parent := RootParent
		// Walk up past dropped ancestors and stop at the frame.
		for p := info.parent; p > frame; p = borders[p].parent {
			if idx, ok := index[p]; ok {
				parent = idx
				break
			}
		}
		index[id] = len(result)
		result = append(result, Contour{
			ID:     int(id - frame - 1),
			Points: info.chain,
			Parent: parent,
			Hole:   info.hole,
			Area:   geometry.Area(info.chain),
		})
	}
	return result
}

// resolveParent applies the Suzuki-Abe parent rule: a border of the opposite
// type directly encloses the new border, a border of the same type is a
// sibling sharing the same parent.
func resolveParent(borders map[int32]*borderInfo, lnbd int32, hole bool) int32 {
	last := borders[lnbd]
	if last.hole == hole {
		return last.parent
	}
	return lnbd
}

// Moore neighborhood in clockwise order starting east.
var neighbors = [8]struct{ dx, dy int }{
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
}

const (
	dirEast = 0
	dirWest = 4
)

// followBorder traces one border starting at (sx, sy), labeling the visited
// pixels with id so the raster scan never restarts the same border.
//
// Labeling rule: a border pixel whose east neighbor was examined as
// background during the trace is marked -id (it terminates future
// hole-border starts on its row); any other visited pixel that is still
// unlabeled adopts +id.
func followBorder(labels [][]int32, width, height, sx, sy, fromDir int, id int32) []geometry.Point {
	at := func(x, y int) int32 {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		return labels[y][x]
	}

	// Search clockwise from the start direction for the first border
	// neighbor.
	firstDir := -1
	for i := 0; i < 8; i++ {
		d := (fromDir + i) % 8
		if at(sx+neighbors[d].dx, sy+neighbors[d].dy) != 0 {
			firstDir = d
			break
		}
	}
	if firstDir == -1 {
		// Isolated pixel: a border of exactly one point.
		labels[sy][sx] = -id
		return []geometry.Point{{X: sx, Y: sy}}
	}

	fx, fy := sx+neighbors[firstDir].dx, sy+neighbors[firstDir].dy

	chain := make([]geometry.Point, 0, 16)
	px, py := fx, fy // previous border pixel
	cx, cy := sx, sy // current border pixel

	for {
		// Search counter-clockwise, starting just past the previous pixel,
		// for the next border pixel around the current one.
		prevDir := directionOf(cx, cy, px, py)
		nextDir := 0
		examinedEast := false
		for i := 1; i <= 8; i++ {
			d := ((prevDir-i)%8 + 8) % 8
			nx, ny := cx+neighbors[d].dx, cy+neighbors[d].dy
			if at(nx, ny) != 0 {
				nextDir = d
				break
			}
			if d == dirEast {
				examinedEast = true
			}
		}

		if examinedEast {
			labels[cy][cx] = -id
		} else if labels[cy][cx] == 1 {
			labels[cy][cx] = id
		}
		chain = append(chain, geometry.Point{X: cx, Y: cy})

		nx, ny := cx+neighbors[nextDir].dx, cy+neighbors[nextDir].dy
		if nx == sx && ny == sy && cx == fx && cy == fy {
			// Back at the start about to re-enter the first pixel: the
			// border is closed.
			break
		}

		px, py = cx, cy
		cx, cy = nx, ny
	}
	return chain
}

// directionOf returns the neighbor index of (tx, ty) relative to (x, y).
func directionOf(x, y, tx, ty int) int {
	dx, dy := tx-x, ty-y
	for i, n := range neighbors {
		if n.dx == dx && n.dy == dy {
			return i
		}
	}
	return dirEast
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
