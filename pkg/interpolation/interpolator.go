// Package interpolation evaluates a volume at continuous voxel indices.
// Three kernels are provided: nearest neighbour for label images, trilinear
// for registration, and cubic B-spline for intensity resampling.
package interpolation

import (
	"fmt"
	"math"

	"medproio/pkg/volume"
)

// Kind selects an interpolation kernel.
type Kind int

const (
	NearestNeighbor Kind = iota
	Linear
	BSpline
)

func (k Kind) String() string {
	switch k {
	case NearestNeighbor:
		return "nearest"
	case Linear:
		return "linear"
	case BSpline:
		return "bspline"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Interpolator evaluates a bound image at a continuous index. The boolean is
// false when the index lies outside the image buffer.
type Interpolator interface {
	Evaluate(ci [3]float64) (float64, bool)
}

// New binds an interpolator of the given kind to img.
func New(kind Kind, img *volume.Image) (Interpolator, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	switch kind {
	case NearestNeighbor:
		return &nearest{img: img}, nil
	case Linear:
		return &linear{img: img}, nil
	case BSpline:
		return newBSpline(img), nil
	default:
		return nil, fmt.Errorf("unsupported interpolator %v", kind)
	}
}

// inside reports whether ci falls within [-0.5, size-0.5) on every axis.
func inside(ci [3]float64, size [3]int) bool {
	for i := range ci {
		if !(ci[i] >= -0.5 && ci[i] < float64(size[i])-0.5) {
			return false
		}
	}
	return true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

type nearest struct {
	img *volume.Image
}

func (n *nearest) Evaluate(ci [3]float64) (float64, bool) {
	size := n.img.Size()
	if !inside(ci, size) {
		return 0, false
	}
	var idx [3]int
	for i := range idx {
		// round half up, matching the half-open inside test
		idx[i] = clampIndex(int(math.Floor(ci[i]+0.5)), size[i])
	}
	return n.img.At(idx[0], idx[1], idx[2]), true
}

type linear struct {
	img *volume.Image
}

func (l *linear) Evaluate(ci [3]float64) (float64, bool) {
	size := l.img.Size()
	if !inside(ci, size) {
		return 0, false
	}

	var base [3]int
	var frac [3]float64
	for i := range ci {
		f := math.Floor(ci[i])
		base[i] = int(f)
		frac[i] = ci[i] - f
	}

	value := 0.0
	for corner := 0; corner < 8; corner++ {
		w := 1.0
		var idx [3]int
		for axis := 0; axis < 3; axis++ {
			if corner&(1<<axis) != 0 {
				w *= frac[axis]
				idx[axis] = clampIndex(base[axis]+1, size[axis])
			} else {
				w *= 1 - frac[axis]
				idx[axis] = clampIndex(base[axis], size[axis])
			}
		}
		if w != 0 {
			value += w * l.img.At(idx[0], idx[1], idx[2])
		}
	}
	return value, true
}
