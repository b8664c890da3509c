package detect

import "image"

// NameHinter provides optional best-effort room names, e.g. by recognizing
// text printed inside a detected region. Hints are advisory only: detection
// never fails because a hint could not be produced, and an empty hint is a
// normal outcome.
type NameHinter interface {
	// Hint returns a name for the room, or an empty string when no usable
	// hint exists. img is the full source image; implementations crop the
	// room's bounding box themselves.
	Hint(img image.Image, room Room) (string, error)
}

// noopHinter is the default: no hints.
type noopHinter struct{}

func (noopHinter) Hint(image.Image, Room) (string, error) { return "", nil }
