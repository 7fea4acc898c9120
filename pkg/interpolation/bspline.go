package interpolation

import (
	"math"

	"medproio/pkg/volume"
)

// cubic B-spline pole and prefilter tolerance
var (
	splinePole      = math.Sqrt(3) - 2
	splineTolerance = 1e-10
)

// bspline interpolates with a cubic B-spline. Interpolation coefficients are
// computed once when the interpolator is bound, by running the recursive
// prefilter along every axis with mirror boundary conditions.
type bspline struct {
	size   [3]int
	coeffs []float64
}

func newBSpline(img *volume.Image) *bspline {
	b := &bspline{
		size:   img.Size(),
		coeffs: append([]float64(nil), img.Data()...),
	}
	b.prefilter()
	return b
}

func (b *bspline) offset(x, y, z int) int {
	return x + b.size[0]*(y+b.size[1]*z)
}

// prefilter converts voxel samples into B-spline coefficients in place
func (b *bspline) prefilter() {
	nx, ny, nz := b.size[0], b.size[1], b.size[2]
	strides := [3]int{1, nx, nx * ny}

	for axis := 0; axis < 3; axis++ {
		n := b.size[axis]
		if n < 2 {
			continue
		}
		line := make([]float64, n)
		stride := strides[axis]

		// every line along axis starts at an index whose axis coordinate is 0
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					start := [3]int{x, y, z}
					if start[axis] != 0 {
						continue
					}
					base := b.offset(x, y, z)
					for k := 0; k < n; k++ {
						line[k] = b.coeffs[base+k*stride]
					}
					filterLine(line)
					for k := 0; k < n; k++ {
						b.coeffs[base+k*stride] = line[k]
					}
				}
			}
		}
	}
}

// filterLine applies the causal and anti-causal recursions to one line.
func filterLine(c []float64) {
	n := len(c)
	z := splinePole
	gain := (1 - z) * (1 - 1/z)
	for k := range c {
		c[k] *= gain
	}

	c[0] = initialCausal(c, z)
	for k := 1; k < n; k++ {
		c[k] += z * c[k-1]
	}
	c[n-1] = (z / (z*z - 1)) * (z*c[n-2] + c[n-1])
	for k := n - 2; k >= 0; k-- {
		c[k] = z * (c[k+1] - c[k])
	}
}

func initialCausal(c []float64, z float64) float64 {
	n := len(c)
	horizon := int(math.Ceil(math.Log(splineTolerance) / math.Log(math.Abs(z))))
	if horizon < n {
		zn := z
		sum := c[0]
		for k := 1; k < horizon; k++ {
			sum += zn * c[k]
			zn *= z
		}
		return sum
	}

	// exact mirror-symmetric initialisation for short lines
	zn := z
	iz := 1 / z
	z2n := math.Pow(z, float64(n-1))
	sum := c[0] + z2n*c[n-1]
	z2n *= z2n * iz
	for k := 1; k < n-1; k++ {
		sum += (zn + z2n) * c[k]
		zn *= z
		z2n *= iz
	}
	return sum / (1 - zn*zn)
}

// mirror folds index i into [0, n) by whole-sample symmetric extension.
func mirror(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2*n - 2
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

func cubicWeights(t float64) [4]float64 {
	t2 := t * t
	t3 := t2 * t
	return [4]float64{
		(1 - t) * (1 - t) * (1 - t) / 6,
		(3*t3 - 6*t2 + 4) / 6,
		(-3*t3 + 3*t2 + 3*t + 1) / 6,
		t3 / 6,
	}
}

func (b *bspline) Evaluate(ci [3]float64) (float64, bool) {
	if !inside(ci, b.size) {
		return 0, false
	}

	var idx [3][4]int
	var w [3][4]float64
	for axis := 0; axis < 3; axis++ {
		f := math.Floor(ci[axis])
		w[axis] = cubicWeights(ci[axis] - f)
		for k := 0; k < 4; k++ {
			idx[axis][k] = mirror(int(f)-1+k, b.size[axis])
		}
	}

	value := 0.0
	for k := 0; k < 4; k++ {
		wz := w[2][k]
		if wz == 0 {
			continue
		}
		for j := 0; j < 4; j++ {
			wyz := wz * w[1][j]
			if wyz == 0 {
				continue
			}
			for i := 0; i < 4; i++ {
				value += wyz * w[0][i] * b.coeffs[b.offset(idx[0][i], idx[1][j], idx[2][k])]
			}
		}
	}
	return value, true
}
