package retrodither

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Lab is a color in the Oklab space. Distances between Lab values
// approximate perceived color difference, which is what the palette
// search relies on. Unlike colorful.Color a Lab can also hold accumulated
// quantization error, which lies outside any displayable gamut.
type Lab struct {
	L, A, B float64
}

// The conversions below use the reference Oklab matrices (linear sRGB →
// LMS → Oklab and their published inverses) rather than go-colorful's
// OkLab methods: those route through D65 XYZ with matrices that don't
// invert cleanly, which breaks the 1e-5 round-trip guarantee.
// go-colorful still provides the sRGB transfer curve at both ends.

func toLab(c colorful.Color) Lab {
	r, g, b := c.LinearRgb()
	l := math.Cbrt(0.4122214708*r + 0.5363325363*g + 0.0514459929*b)
	m := math.Cbrt(0.2119034982*r + 0.6806995451*g + 0.1073969566*b)
	s := math.Cbrt(0.0883024619*r + 0.2817188376*g + 0.6299787005*b)
	return Lab{
		L: 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A: 1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B: 0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

func rgb255ToLab(r, g, b uint8) Lab {
	return toLab(colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255})
}

// sRGB returns the displayable color closest to c.
func (c Lab) sRGB() colorful.Color {
	l := c.L + 0.3963377774*c.A + 0.2158037573*c.B
	m := c.L - 0.1055613458*c.A - 0.0638541728*c.B
	s := c.L - 0.0894841775*c.A - 1.2914855480*c.B
	l, m, s = l*l*l, m*m*m, s*s*s
	return colorful.LinearRgb(
		4.0767416621*l-3.3077115913*m+0.2307096549*s,
		-1.2684380046*l+2.6097574011*m-0.3413193965*s,
		-0.0041960863*l-0.7034186147*m+1.7076147010*s,
	).Clamped()
}

func (c Lab) add(o Lab) Lab { return Lab{c.L + o.L, c.A + o.A, c.B + o.B} }

func (c Lab) sub(o Lab) Lab { return Lab{c.L - o.L, c.A - o.A, c.B - o.B} }

func (c Lab) scale(s float64) Lab { return Lab{c.L * s, c.A * s, c.B * s} }

func (c Lab) distSq(o Lab) float64 {
	dl := c.L - o.L
	da := c.A - o.A
	db := c.B - o.B
	return dl*dl + da*da + db*db
}
