// Package retrodither quantizes full-color images down to a small fixed
// palette with ordered dithering. Colors are compared in the Oklab space;
// each pixel generates its own list of candidate palette colors through
// local error feedback and a threshold map picks one of them by tile
// position. Alpha is quantized to fully transparent or fully opaque.
package retrodither

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"slices"
	"sync"
)

// ErrEmptyPalette is returned when an explicitly supplied palette has no
// entries.
var ErrEmptyPalette = errors.New("empty palette")

// Options configures a Filter. The zero values of ThresholdMap and
// Palette select the built-in defaults; the dither coefficients are
// taken as given, so start from DefaultOptions when only overriding a
// subset. A coefficient of zero disables error feedback for that
// channel, collapsing the filter to plain nearest-color quantization.
type Options struct {
	// ThresholdMap selects which candidate rank each tile position
	// uses. Must be square and contain every integer in [0, n*n)
	// exactly once. Nil means Bayer(1).
	ThresholdMap ThresholdMap
	// ColorDither in [0, 1] scales how strongly a pixel's accumulated
	// color error feeds back into its next candidate sample.
	ColorDither float64
	// AlphaDither in [0, 1], same role for the alpha channel.
	AlphaDither float64
	// Palette entries as six hex digits each, without a leading "#".
	// Nil means DefaultPalette. Order matters only for tie-breaking
	// in the nearest-color search.
	Palette []string
}

// DefaultOptions returns the built-in threshold map, dither
// coefficients and palette.
func DefaultOptions() Options {
	return Options{
		ThresholdMap: Bayer(1),
		ColorDither:  0.04,
		AlphaDither:  0.12,
		Palette:      DefaultPalette(),
	}
}

// Filter is a reusable, read-only dithering configuration. The palette
// is converted to Oklab once at construction, so one Filter can be
// applied to any number of images, concurrently if needed.
type Filter struct {
	palette     []Lab
	threshold   ThresholdMap
	colorDither float64
	alphaDither float64
}

// NewFilter validates opt and preprocesses the palette. It returns a
// *PaletteError if an entry fails hex parsing, ErrEmptyPalette or an
// ErrInvalidThresholdMap-wrapping error on a malformed configuration.
func NewFilter(opt Options) (*Filter, error) {
	entries := opt.Palette
	if entries == nil {
		entries = defaultPalette
	}
	if len(entries) == 0 {
		return nil, ErrEmptyPalette
	}
	threshold := opt.ThresholdMap
	if threshold == nil {
		threshold = Bayer(1)
	}
	if err := threshold.Validate(); err != nil {
		return nil, err
	}
	if err := checkDither("color dither", opt.ColorDither); err != nil {
		return nil, err
	}
	if err := checkDither("alpha dither", opt.AlphaDither); err != nil {
		return nil, err
	}
	palette, err := parsePalette(entries)
	if err != nil {
		return nil, err
	}
	return &Filter{
		palette:     palette,
		threshold:   threshold,
		colorDither: opt.ColorDither,
		alphaDither: opt.AlphaDither,
	}, nil
}

func checkDither(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s coefficient %v outside [0,1]", name, v)
	}
	return nil
}

// Apply quantizes img with opt and returns the result as a new image.
// The input image is never modified. Shorthand for NewFilter followed
// by Filter.Apply.
func Apply(img image.Image, opt Options) (*image.NRGBA, error) {
	f, err := NewFilter(opt)
	if err != nil {
		return nil, err
	}
	return f.Apply(img), nil
}

// Apply quantizes img and returns a new image of the same size with its
// bounds normalized to the origin. Pixels are independent of each
// other, so rows are split into disjoint ranges and processed in
// parallel; the filter itself stays read-only throughout.
func (f *Filter) Apply(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	workers := min(runtime.GOMAXPROCS(0), h)
	rowsPerWorker := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += rowsPerWorker {
		y0 := y0
		y1 := min(y0+rowsPerWorker, h)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.applyRows(img, out, y0, y1)
		}()
	}
	wg.Wait()
	return out
}

// applyRows quantizes the rows [y0, y1) in output coordinates. Each
// worker owns a disjoint row range of out, so no locking is needed.
func (f *Filter) applyRows(img image.Image, out *image.NRGBA, y0, y1 int) {
	bounds := img.Bounds()
	w := bounds.Dx()
	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	}
	if src, ok := img.(*image.NRGBA); ok {
		at = src.NRGBAAt
	}

	n := len(f.threshold)
	count := n * n
	candidatesC := make([]Lab, count)
	candidatesA := make([]float64, count)

	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			px := at(bounds.Min.X+x, bounds.Min.Y+y)
			pixel := rgb255ToLab(px.R, px.G, px.B)
			alpha := float64(px.A) / 255

			// Error feedback is local to this pixel: the accumulators
			// restart from zero here, nothing diffuses to neighbors.
			// Each round re-quantizes the pixel shifted by the error
			// of the rounds before it, yielding a diverse candidate
			// list rather than a single nearest match.
			var errC Lab
			errA := 0.0
			for i := 0; i < count; i++ {
				sampleC := pixel.add(errC.scale(f.colorDither))
				candidatesC[i] = nearest(f.palette, sampleC)
				errC = errC.add(pixel.sub(candidatesC[i]))

				sampleA := alpha + errA*f.alphaDither
				candidatesA[i] = math.Round(sampleA)
				errA += alpha - candidatesA[i]
			}

			// Rank candidates from darkest to brightest and pick the
			// rank this tile position calls for.
			slices.SortFunc(candidatesC, func(a, b Lab) int { return cmp.Compare(a.L, b.L) })
			slices.Sort(candidatesA)
			index := f.threshold[x%n][y%n]

			r, g, b := candidatesC[index].sRGB().RGB255()
			a := uint8(min(max(candidatesA[index], 0), 1) * 255)
			out.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}
}
