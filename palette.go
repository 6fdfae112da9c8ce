package retrodither

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// defaultPalette is a 48-color palette tuned for pixel-art output,
// ordered dark to bright within each hue ramp.
var defaultPalette = []string{
	"1b112c", "413047", "543e54", "75596f", "91718b", "b391aa", "ccb3c6", "e3cfe3", "fff7ff",
	"fffbb5", "faf38e", "f7d076", "fa9c69", "eb7363", "e84545", "c22e53", "943054", "612147",
	"3d173c", "3f233c", "66334b", "8c4b63", "c16a7d", "e5959f", "ffccd0", "dd8d9f", "c8658d",
	"b63f82", "9e2083", "731f7a", "47195d", "2a143d", "183042", "1e5451", "2a6957", "3b804d",
	"5aa653", "86cf74", "caf095", "e0f0bd", "3f275e", "3f317a", "3c548f", "456aa1", "4a84b0",
	"56aec4", "92d7d9", "c3ebe3",
}

// DefaultPalette returns a copy of the built-in 48-color palette.
func DefaultPalette() []string {
	return slices.Clone(defaultPalette)
}

// PaletteError reports a palette entry that could not be parsed.
type PaletteError struct {
	Index int // position in the palette, -1 for a standalone entry
	Entry string
	Err   error
}

func (e *PaletteError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("palette entry %q: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("palette entry %d %q: %v", e.Index, e.Entry, e.Err)
}

func (e *PaletteError) Unwrap() error { return e.Err }

// ParseHex parses a color given as exactly six hexadecimal digits,
// without a leading "#". On failure it returns a *PaletteError.
func ParseHex(entry string) (colorful.Color, error) {
	if len(entry) != 6 {
		return colorful.Color{}, &PaletteError{
			Index: -1,
			Entry: entry,
			Err:   fmt.Errorf("want 6 hex digits, have %d characters", len(entry)),
		}
	}
	for i := 0; i < 6; i++ {
		if !isHexDigit(entry[i]) {
			return colorful.Color{}, &PaletteError{
				Index: -1,
				Entry: entry,
				Err:   fmt.Errorf("%q is not a hex digit", entry[i]),
			}
		}
	}
	c, err := colorful.Hex("#" + entry)
	if err != nil {
		return colorful.Color{}, &PaletteError{Index: -1, Entry: entry, Err: err}
	}
	return c, nil
}

func isHexDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// parsePalette converts every entry to Oklab, failing on the first bad
// entry so that no partial palette escapes.
func parsePalette(entries []string) ([]Lab, error) {
	palette := make([]Lab, len(entries))
	for i, entry := range entries {
		c, err := ParseHex(entry)
		if err != nil {
			var pe *PaletteError
			if errors.As(err, &pe) {
				pe.Index = i
			}
			return nil, err
		}
		palette[i] = toLab(c)
	}
	return palette, nil
}

// nearest returns the palette color with the smallest squared Oklab
// distance to c. Strict less-than keeps the first-listed entry on ties,
// so output is reproducible for a given palette order.
func nearest(palette []Lab, c Lab) Lab {
	closest := palette[0]
	closestDist := c.distSq(palette[0])
	for _, p := range palette[1:] {
		if d := c.distSq(p); d < closestDist {
			closestDist = d
			closest = p
		}
	}
	return closest
}
