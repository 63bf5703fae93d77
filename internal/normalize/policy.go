package normalize

import (
	"fmt"
	"strings"
)

// Policy decides the shape of a normalized image.
type Policy int

const (
	// Stretch resizes to exactly Width x Height, ignoring aspect ratio.
	Stretch Policy = iota
	// Pad centers the unscaled image on a square canvas.
	Pad
	// Crop keeps the largest centered square.
	Crop
)

func (p Policy) String() string {
	switch p {
	case Stretch:
		return "stretch"
	case Pad:
		return "pad"
	case Crop:
		return "crop"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stretch", "resize":
		return Stretch, nil
	case "pad", "square":
		return Pad, nil
	case "crop":
		return Crop, nil
	default:
		return 0, fmt.Errorf("unknown policy %q: want stretch, pad or crop", s)
	}
}
