package retrodither

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseHex(t *testing.T, entry string) colorful.Color {
	t.Helper()
	c, err := ParseHex(entry)
	require.NoError(t, err)
	return c
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		entry   string
		r, g, b uint8
	}{
		{"1b112c", 0x1b, 0x11, 0x2c},
		{"000000", 0x00, 0x00, 0x00},
		{"ffffff", 0xff, 0xff, 0xff},
		{"FFF7FF", 0xff, 0xf7, 0xff},
		{"e84545", 0xe8, 0x45, 0x45},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			c, err := ParseHex(tt.entry)
			require.NoError(t, err)
			r, g, b := c.RGB255()
			assert.Equal(t, tt.r, r)
			assert.Equal(t, tt.g, g)
			assert.Equal(t, tt.b, b)
		})
	}
}

func TestParseHexErrors(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"bad digit", "zz0000"},
		{"too short", "fff"},
		{"too long", "fff7ff0"},
		{"empty", ""},
		{"leading hash", "#ff0000"},
		{"trailing junk", "12345z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHex(tt.entry)
			require.Error(t, err)
			var pe *PaletteError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, -1, pe.Index)
			assert.Equal(t, tt.entry, pe.Entry)
		})
	}
}

func TestDefaultPalette(t *testing.T) {
	palette := DefaultPalette()
	require.Len(t, palette, 48)
	for _, entry := range palette {
		_, err := ParseHex(entry)
		assert.NoError(t, err, "entry %q", entry)
	}

	// Callers may mutate the returned slice freely.
	palette[0] = "zzzzzz"
	assert.Equal(t, "1b112c", DefaultPalette()[0])
}

func TestParsePaletteAbortsOnFirstBadEntry(t *testing.T) {
	labs, err := parsePalette([]string{"ff0000", "nothex", "00ff00"})
	require.Error(t, err)
	assert.Nil(t, labs)

	var pe *PaletteError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "nothex", pe.Entry)
}

func TestNearestPicksMinimalEntry(t *testing.T) {
	palette, err := parsePalette(DefaultPalette())
	require.NoError(t, err)

	probes := []Lab{
		toLab(mustParseHex(t, "fff7ff")),
		rgb255ToLab(255, 255, 255),
		rgb255ToLab(0, 0, 0),
		rgb255ToLab(200, 30, 60),
		rgb255ToLab(12, 200, 90),
		{L: 0.5, A: 0.3, B: -0.4}, // outside the gamut
	}
	for _, probe := range probes {
		got := nearest(palette, probe)
		assert.Contains(t, palette, got)
		for _, p := range palette {
			assert.LessOrEqual(t, probe.distSq(got), probe.distSq(p))
		}
	}
}

func TestNearestExactMatchWinsAndIsStable(t *testing.T) {
	palette, err := parsePalette(DefaultPalette())
	require.NoError(t, err)

	// An exact palette color maps to itself.
	assert.Equal(t, palette[7], nearest(palette, palette[7]))

	// Duplicate-entry ties resolve to the first-listed entry, so
	// repeated runs agree.
	doubled, err := parsePalette([]string{"808080", "808080", "000000"})
	require.NoError(t, err)
	probe := rgb255ToLab(0x70, 0x70, 0x70)
	first := nearest(doubled, probe)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, nearest(doubled, probe))
	}
}
