//go:build cgo && ocr

package detect

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"roomscan/internal/imaging"
)

// ocrHinter recognizes text inside a room's bounding box with Tesseract and
// uses the first recognized line as the room's name hint. Requires native
// Tesseract libraries; enabled with the "ocr" build tag.
type ocrHinter struct{}

// NewOCRNameHinter returns a Tesseract-backed NameHinter.
func NewOCRNameHinter() (NameHinter, error) {
	return ocrHinter{}, nil
}

// ocrScale upsamples small room crops before recognition; Tesseract fares
// poorly below ~20px glyph height.
const ocrScale = 2.0

func (ocrHinter) Hint(img image.Image, room Room) (string, error) {
	box := room.BoundingBox
	rect := image.Rect(box.MinX, box.MinY, box.MaxX+1, box.MaxY+1).Intersect(img.Bounds())
	if rect.Empty() {
		return "", nil
	}

	sub, err := imaging.Crop(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, ocrScale)
	if err != nil {
		return "", fmt.Errorf("cropping room region: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub); err != nil {
		return "", fmt.Errorf("encoding room crop: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("setting OCR image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running OCR: %w", err)
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
	}
	return "", nil
}
