package detect

// Params tunes the room-boundary detection pipeline.
//
// All zero-valued fields are replaced with defaults by Normalize, so the
// zero Params is usable. The defaults were chosen against scanned blueprints
// in the 1000-4000px range; they are deliberately explicit configuration
// rather than global tuning state, so callers can swap them per invocation.
type Params struct {
	// MinAreaPx is the minimum enclosed contour area, in square pixels, for
	// a region to be considered a room. Filters out scan specks and small
	// fixtures. Default 1000.
	MinAreaPx float64 `json:"min_area_px"`

	// MaxAreaPx is the maximum enclosed contour area. Filters out the page
	// outline and full-frame borders. Default 1000000.
	MaxAreaPx float64 `json:"max_area_px"`

	// SimplifyEpsilonRatio scales the polygon simplification tolerance:
	// epsilon = ratio * contour perimeter. Perimeter scaling keeps the
	// tolerance resolution-invariant. Default 0.01.
	SimplifyEpsilonRatio float64 `json:"simplify_epsilon_ratio"`

	// ContainmentRatioThreshold decides nested-contour ambiguity. A contour
	// fully enclosed by another surviving contour is kept as an independent
	// room only when innerArea/outerArea >= threshold; smaller nested
	// contours are treated as fixture/furniture artifacts and dropped.
	// Default 0.05.
	ContainmentRatioThreshold float64 `json:"containment_ratio_threshold"`

	// MorphKernelSize is the structuring-element size for morphological
	// closing during preprocessing; bridges door/window gaps in wall lines.
	// Default 3.
	MorphKernelSize int `json:"morph_kernel_size"`
}

// Default parameter values.
const (
	DefaultMinAreaPx                 = 1000
	DefaultMaxAreaPx                 = 1000000
	DefaultSimplifyEpsilonRatio      = 0.01
	DefaultContainmentRatioThreshold = 0.05
	DefaultMorphKernelSize           = 3

	// minContourPoints is the point-count floor below which a traced border
	// is discarded immediately as scan noise.
	minContourPoints = 8
)

// DefaultParams returns the documented default parameter set.
func DefaultParams() Params {
	return Params{
		MinAreaPx:                 DefaultMinAreaPx,
		MaxAreaPx:                 DefaultMaxAreaPx,
		SimplifyEpsilonRatio:      DefaultSimplifyEpsilonRatio,
		ContainmentRatioThreshold: DefaultContainmentRatioThreshold,
		MorphKernelSize:           DefaultMorphKernelSize,
	}
}

// Normalize fills zero-valued fields with defaults and returns the result.
func (p Params) Normalize() Params {
	d := DefaultParams()
	if p.MinAreaPx <= 0 {
		p.MinAreaPx = d.MinAreaPx
	}
	if p.MaxAreaPx <= 0 {
		p.MaxAreaPx = d.MaxAreaPx
	}
	if p.SimplifyEpsilonRatio <= 0 {
		p.SimplifyEpsilonRatio = d.SimplifyEpsilonRatio
	}
	if p.ContainmentRatioThreshold <= 0 {
		p.ContainmentRatioThreshold = d.ContainmentRatioThreshold
	}
	if p.MorphKernelSize <= 0 {
		p.MorphKernelSize = d.MorphKernelSize
	}
	return p
}
