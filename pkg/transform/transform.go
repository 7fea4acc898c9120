// Package transform holds the spatial transforms used when resampling: the
// identity and a rigid Euler3D rotation plus translation.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"medproio/pkg/volume"
)

// Transform maps a physical point in the output space to a physical point in
// the input space.
type Transform interface {
	TransformPoint(p [3]float64) [3]float64
}

// Identity leaves points unchanged.
type Identity struct{}

// TransformPoint returns p.
func (Identity) TransformPoint(p [3]float64) [3]float64 { return p }

// Euler3D is a rigid transform T(x) = R(x - c) + c + t, with R composed
// from rotations about x, y and z as R = Rz * Rx * Ry.
type Euler3D struct {
	center      [3]float64
	angles      [3]float64
	translation [3]float64
	matrix      [9]float64
}

// NewEuler3D returns an Euler3D transform with zero rotation and translation.
func NewEuler3D() *Euler3D {
	e := &Euler3D{}
	e.computeMatrix()
	return e
}

// NumberOfParameters is the length of the Euler3D parameter vector.
const NumberOfParameters = 6

// Parameters returns (rx, ry, rz, tx, ty, tz); angles are in radians.
func (e *Euler3D) Parameters() []float64 {
	return []float64{
		e.angles[0], e.angles[1], e.angles[2],
		e.translation[0], e.translation[1], e.translation[2],
	}
}

// SetParameters sets (rx, ry, rz, tx, ty, tz).
func (e *Euler3D) SetParameters(p []float64) error {
	if len(p) != NumberOfParameters {
		return fmt.Errorf("euler3d expects %d parameters, got %d", NumberOfParameters, len(p))
	}
	copy(e.angles[:], p[:3])
	copy(e.translation[:], p[3:])
	e.computeMatrix()
	return nil
}

// Center returns the centre of rotation.
func (e *Euler3D) Center() [3]float64 { return e.center }

// SetCenter sets the centre of rotation.
func (e *Euler3D) SetCenter(c [3]float64) { e.center = c }

// Translation returns the translation component.
func (e *Euler3D) Translation() [3]float64 { return e.translation }

// SetTranslation sets the translation component.
func (e *Euler3D) SetTranslation(t [3]float64) { e.translation = t }

// SetRotation sets the rotation angles about x, y and z in radians.
func (e *Euler3D) SetRotation(rx, ry, rz float64) {
	e.angles = [3]float64{rx, ry, rz}
	e.computeMatrix()
}

// Matrix returns the row-major rotation matrix.
func (e *Euler3D) Matrix() [9]float64 { return e.matrix }

// Clone returns an independent copy.
func (e *Euler3D) Clone() *Euler3D {
	c := *e
	return &c
}

func (e *Euler3D) computeMatrix() {
	cx, sx := math.Cos(e.angles[0]), math.Sin(e.angles[0])
	cy, sy := math.Cos(e.angles[1]), math.Sin(e.angles[1])
	cz, sz := math.Cos(e.angles[2]), math.Sin(e.angles[2])

	rx := mat.NewDense(3, 3, []float64{1, 0, 0, 0, cx, -sx, 0, sx, cx})
	ry := mat.NewDense(3, 3, []float64{cy, 0, sy, 0, 1, 0, -sy, 0, cy})
	rz := mat.NewDense(3, 3, []float64{cz, -sz, 0, sz, cz, 0, 0, 0, 1})

	var zx, r mat.Dense
	zx.Mul(rz, rx)
	r.Mul(&zx, ry)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e.matrix[3*i+j] = r.At(i, j)
		}
	}
}

// TransformPoint applies the rigid transform to p.
func (e *Euler3D) TransformPoint(p [3]float64) [3]float64 {
	var d, out [3]float64
	for i := range d {
		d[i] = p[i] - e.center[i]
	}
	for r := 0; r < 3; r++ {
		out[r] = e.matrix[3*r]*d[0] + e.matrix[3*r+1]*d[1] + e.matrix[3*r+2]*d[2] +
			e.center[r] + e.translation[r]
	}
	return out
}

// CenteredGeometry seeds a rigid transform from image geometry alone: the
// centre of rotation is the fixed image's physical centre and the translation
// moves it onto the moving image's physical centre.
func CenteredGeometry(fixed, moving *volume.Image) *Euler3D {
	fc := fixed.PhysicalCenter()
	mc := moving.PhysicalCenter()

	e := NewEuler3D()
	e.SetCenter(fc)
	e.SetTranslation([3]float64{mc[0] - fc[0], mc[1] - fc[1], mc[2] - fc[2]})
	return e
}
