//go:build !cgo || !ocr

package detect

import "errors"

// NewOCRNameHinter reports that this binary was built without OCR support.
// Build with CGO enabled and the "ocr" tag to get Tesseract-backed name
// hints.
func NewOCRNameHinter() (NameHinter, error) {
	return nil, errors.New("built without OCR support (requires cgo and the ocr build tag)")
}
