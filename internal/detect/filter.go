package detect

import (
	"roomscan/internal/contour"
)

// filterContours reduces the traced contour set to candidate room contours,
// in their original (deterministic) order.
//
// Three stages:
//
//  1. Topology: only hole borders are room candidates. In a wall mask an
//     enclosed floor region shows up as a hole in the wall component; the
//     component's outer border is the wall outline itself and would
//     double-count every enclosed region if emitted too.
//  2. Area bounds: contours with enclosed area outside
//     [MinAreaPx, MaxAreaPx] are dropped. This removes scan specks and
//     full-page regions in one pass.
//  3. Containment: for a candidate whose nearest surviving candidate
//     ancestor encloses it, the area ratio inner/outer decides the
//     ambiguity. Below ContainmentRatioThreshold the inner contour is a
//     fixture or furniture artifact and only the outer is kept; at or above
//     the threshold both are genuine rooms (a walk-in closet drawn inside a
//     bedroom outline must not be merged away).
//
// The containment rule is a pure function of the contour areas and the
// configured threshold, so it is directly testable and swappable.
func filterContours(contours []contour.Contour, p Params) []contour.Contour {
	candidate := make([]bool, len(contours))
	for i, c := range contours {
		candidate[i] = c.Hole && c.Area >= p.MinAreaPx && c.Area <= p.MaxAreaPx
	}

	kept := make([]contour.Contour, 0, len(contours))
	for i, c := range contours {
		if !candidate[i] {
			continue
		}
		if outer, ok := nearestCandidateAncestor(contours, candidate, i); ok {
			ratio := c.Area / contours[outer].Area
			if ratio < p.ContainmentRatioThreshold {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// nearestCandidateAncestor walks the hierarchy upward from contours[i] and
// returns the index of the closest enclosing contour that is itself a room
// candidate. Intermediate non-candidate borders (wall outlines of nested
// structures) are skipped.
func nearestCandidateAncestor(contours []contour.Contour, candidate []bool, i int) (int, bool) {
	for p := contours[i].Parent; p != contour.RootParent; p = contours[p].Parent {
		if candidate[p] {
			return p, true
		}
	}
	return 0, false
}
