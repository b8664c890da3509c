package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (common for blueprint scans)
)

// ErrDecode marks image payloads that cannot be decoded. Callers use
// errors.Is to map this onto a terminal DecodeError job failure, distinct
// from transient fetch problems.
var ErrDecode = errors.New("undecodable image data")

// Decode decodes raw image bytes into an in-memory image.
//
// Parameters:
//   - data: The raw payload. Supported formats are PNG, JPEG, GIF, BMP and
//     TIFF; 8-bit and 16-bit, RGB or grayscale.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the
//     format and color model (e.g. *image.RGBA, *image.Gray, *image.YCbCr).
//   - string: The detected format name ("png", "jpeg", ...).
//   - error: Wraps ErrDecode when the bytes are not a recognizable image.
//
// Decoding is by content sniffing, not file extension; a mislabeled upload
// still decodes as long as the bytes are a real image.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}
