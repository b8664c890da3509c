// Package preprocess converts raw blueprint images into binary wall masks.
//
// The output convention is: foreground (255) marks wall/boundary pixels,
// background (0) marks open floor and empty page. Downstream contour
// extraction traces the borders of the foreground regions, so enclosed rooms
// show up as holes in the wall mask.
package preprocess

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// ThresholdPolicy selects how grayscale values are split into wall and
// background pixels.
type ThresholdPolicy string

const (
	// PolicyAdaptive thresholds each pixel against its local neighborhood
	// mean. Robust to uneven scan lighting; a uniformly blank image yields
	// an empty mask. This is the default.
	PolicyAdaptive ThresholdPolicy = "adaptive"

	// PolicyOtsu picks a single global threshold from the image histogram.
	PolicyOtsu ThresholdPolicy = "otsu"

	// PolicyFixed uses the configured FixedThreshold as a global cutoff.
	PolicyFixed ThresholdPolicy = "fixed"
)

// Options controls the binarization pipeline.
type Options struct {
	// Policy selects the thresholding strategy. Empty means PolicyAdaptive.
	Policy ThresholdPolicy

	// FixedThreshold is the global cutoff for PolicyFixed: pixels darker
	// than this become foreground.
	FixedThreshold uint8

	// AdaptiveWindow is the side length of the local-mean window for
	// PolicyAdaptive. Must be odd; values <= 1 fall back to the default 11.
	AdaptiveWindow int

	// AdaptiveOffset is subtracted from the local mean before comparing:
	// a pixel is foreground when it is darker than mean - offset. Filters
	// out low-contrast paper texture. Default 2.
	AdaptiveOffset int

	// BlurRadius is the Gaussian blur radius applied before thresholding to
	// suppress scan noise. Zero disables blurring. Default 1.
	BlurRadius float64

	// MorphKernelSize is the structuring-element size for morphological
	// closing after thresholding. Closing bridges small gaps in wall lines
	// (door and window openings) so adjacent rooms do not leak into one
	// region. Values <= 1 disable closing. Default 3.
	MorphKernelSize int
}

// DefaultOptions returns the preprocessing defaults used by the detector.
func DefaultOptions() Options {
	return Options{
		Policy:          PolicyAdaptive,
		AdaptiveWindow:  11,
		AdaptiveOffset:  2,
		BlurRadius:      1,
		MorphKernelSize: 3,
	}
}

// Binarize converts an image into a binary wall mask.
//
// Steps, in order:
//
//  1. Grayscale conversion (luminance weighted).
//  2. Gaussian blur to suppress single-pixel scan noise.
//  3. Inverse thresholding per the configured policy: dark blueprint lines
//     become foreground (255), light paper becomes background (0).
//  4. Morphological closing (dilate then erode) to bridge small wall gaps.
//
// The pipeline is fully deterministic: identical input bytes and options
// always produce an identical mask. A uniformly blank input produces an
// empty mask, not an error.
func Binarize(img image.Image, opts Options) *image.Gray {
	if opts.Policy == "" {
		opts.Policy = PolicyAdaptive
	}
	if opts.AdaptiveWindow <= 1 {
		opts.AdaptiveWindow = 11
	}
	if opts.AdaptiveWindow%2 == 0 {
		opts.AdaptiveWindow++
	}

	var src image.Image = imaging.Grayscale(img)
	if opts.BlurRadius > 0 {
		src = blur.Gaussian(src, opts.BlurRadius)
	}
	gray := toGray(src)

	var mask *image.Gray
	switch opts.Policy {
	case PolicyOtsu:
		mask = invertMask(segment.Threshold(gray, otsuLevel(gray)))
	case PolicyFixed:
		mask = invertMask(segment.Threshold(gray, opts.FixedThreshold))
	default:
		mask = adaptiveThreshold(gray, opts.AdaptiveWindow, opts.AdaptiveOffset)
	}

	if opts.MorphKernelSize > 1 {
		mask = closeMask(mask, opts.MorphKernelSize)
	}
	return mask
}

// toGray extracts an 8-bit grayscale plane from an already-grayscale image.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			gray.SetGray(x, y, color.Gray{Y: uint8(r >> 8)})
		}
	}
	return gray
}

// invertMask flips a binary image so dark source pixels (blueprint lines,
// thresholded to 0) become foreground (255).
func invertMask(mask *image.Gray) *image.Gray {
	out := image.NewGray(mask.Bounds())
	for i, v := range mask.Pix {
		if v < 128 {
			out.Pix[i] = 255
		}
	}
	return out
}

// adaptiveThreshold marks a pixel foreground when it is darker than the mean
// of its surrounding window minus the offset.
//
// Uses a summed-area table so the cost is independent of window size. Border
// windows are clipped to the image, matching the behavior of mean-based
// adaptive thresholding in mainstream vision libraries.
func adaptiveThreshold(gray *image.Gray, window, offset int) *image.Gray {
	bounds := gray.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	// integral[y][x] = sum of all pixels above and left of (x, y), exclusive.
	integral := make([][]int64, h+1)
	integral[0] = make([]int64, w+1)
	for y := 0; y < h; y++ {
		integral[y+1] = make([]int64, w+1)
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0 := maxInt(y-half, 0)
		y1 := minInt(y+half, h-1)
		for x := 0; x < w; x++ {
			x0 := maxInt(x-half, 0)
			x1 := minInt(x+half, w-1)

			count := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / count

			v := int64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			if v < mean-int64(offset) {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// otsuLevel computes the global threshold maximizing between-class variance
// over the grayscale histogram.
func otsuLevel(gray *image.Gray) uint8 {
	var hist [256]int64
	for _, v := range gray.Pix {
		hist[v]++
	}
	total := int64(len(gray.Pix))
	if total == 0 {
		return 128
	}

	var sumAll int64
	for i, c := range hist {
		sumAll += int64(i) * c
	}

	var sumBg, countBg int64
	var best float64
	level := uint8(128)
	for t := 0; t < 256; t++ {
		countBg += hist[t]
		if countBg == 0 {
			continue
		}
		countFg := total - countBg
		if countFg == 0 {
			break
		}
		sumBg += int64(t) * hist[t]

		meanBg := float64(sumBg) / float64(countBg)
		meanFg := float64(sumAll-sumBg) / float64(countFg)
		variance := float64(countBg) * float64(countFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if variance > best {
			best = variance
			level = uint8(t)
		}
	}
	return level
}

// closeMask applies morphological closing: dilation followed by erosion with
// the same structuring element. Bridges gaps up to roughly kernelSize pixels
// wide without growing the walls overall.
func closeMask(mask *image.Gray, kernelSize int) *image.Gray {
	radius := float64(kernelSize / 2)
	if radius < 1 {
		radius = 1
	}
	closed := effect.Erode(effect.Dilate(mask, radius), radius)

	out := image.NewGray(image.Rect(0, 0, mask.Bounds().Dx(), mask.Bounds().Dy()))
	b := closed.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if r, _, _, _ := closed.At(x+b.Min.X, y+b.Min.Y).RGBA(); r>>8 >= 128 {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
