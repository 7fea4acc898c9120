package volume

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// IndexMapper converts physical points into continuous indices of one image.
// The inverse of D*diag(spacing) is computed once so it can be used in
// per-voxel loops.
type IndexMapper struct {
	origin  [3]float64
	inverse [9]float64
}

// NewIndexMapper precomputes the physical-to-index matrix of img.
func NewIndexMapper(img *Image) (*IndexMapper, error) {
	m := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, img.direction[3*r+c]*img.spacing[c])
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("%w: cannot invert index-to-physical matrix: %v", ErrInvalidImage, err)
	}

	mapper := &IndexMapper{origin: img.origin}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			mapper.inverse[3*r+c] = inv.At(r, c)
		}
	}
	return mapper, nil
}

// ToIndex maps physical point p to a continuous index.
func (m *IndexMapper) ToIndex(p [3]float64) [3]float64 {
	var d, ci [3]float64
	for i := range d {
		d[i] = p[i] - m.origin[i]
	}
	for r := 0; r < 3; r++ {
		ci[r] = m.inverse[3*r]*d[0] + m.inverse[3*r+1]*d[1] + m.inverse[3*r+2]*d[2]
	}
	return ci
}
