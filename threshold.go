package retrodither

import (
	"errors"
	"fmt"
)

// ErrInvalidThresholdMap is wrapped by every threshold map validation
// failure.
var ErrInvalidThresholdMap = errors.New("invalid threshold map")

// ThresholdMap assigns a candidate rank to every tile position: the
// pixel at (x, y) picks the candidate with sorted index m[x%n][y%n].
// A valid map is square and contains every integer in [0, n*n) exactly
// once, so each tile position selects a distinct rank.
type ThresholdMap [][]int

// Bayer returns the 2^order by 2^order Bayer threshold map. Order 1 is
// the classic {{0, 2}, {3, 1}} matrix used by DefaultOptions.
func Bayer(order int) ThresholdMap {
	if order < 1 {
		order = 1
	}
	n := 1 << order
	m := make(ThresholdMap, n)
	for x := 0; x < n; x++ {
		m[x] = make([]int, n)
		for y := 0; y < n; y++ {
			// Recursive construction M(2n) = 4*M(n) + M(2), folded
			// into one pass over the bits: lower bits carry more weight.
			v := 0
			for bit := 0; bit < order; bit++ {
				xb := (x >> bit) & 1
				yb := (y >> bit) & 1
				v = v*4 + 2*(xb^yb) + xb
			}
			m[x][y] = v
		}
	}
	return m
}

// Validate checks squareness and that the values form a bijection onto
// [0, n*n). Filters reject malformed maps before touching any pixel.
func (m ThresholdMap) Validate() error {
	n := len(m)
	if n == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidThresholdMap)
	}
	seen := make([]bool, n*n)
	for x, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d entries, want %d", ErrInvalidThresholdMap, x, len(row), n)
		}
		for y, v := range row {
			if v < 0 || v >= n*n {
				return fmt.Errorf("%w: value %d at (%d,%d) outside [0,%d)", ErrInvalidThresholdMap, v, x, y, n*n)
			}
			if seen[v] {
				return fmt.Errorf("%w: value %d appears more than once", ErrInvalidThresholdMap, v)
			}
			seen[v] = true
		}
	}
	return nil
}
