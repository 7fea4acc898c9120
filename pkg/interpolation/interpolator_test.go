package interpolation

import (
	"math"
	"testing"

	"medproio/pkg/volume"
)

// createTestData creates a smoothly varying volume with a few sharp features
func createTestData(nx, ny, nz int) *volume.Image {
	img := volume.New([3]int{nx, ny, nz}, volume.Float64)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v := math.Sin(float64(x)/2) + float64(y*y)/4 + float64(z)
				if (x+y+z)%5 == 0 {
					v += 3
				}
				img.Set(x, y, z, v)
			}
		}
	}
	return img
}

// TestInterpolatorsReproduceSamples verifies that every kernel returns the
// stored voxel value when evaluated exactly on the grid
func TestInterpolatorsReproduceSamples(t *testing.T) {
	img := createTestData(6, 5, 4)

	for _, kind := range []Kind{NearestNeighbor, Linear, BSpline} {
		t.Run(kind.String(), func(t *testing.T) {
			interp, err := New(kind, img)
			if err != nil {
				t.Fatalf("Failed to create interpolator: %v", err)
			}

			for z := 0; z < 4; z++ {
				for y := 0; y < 5; y++ {
					for x := 0; x < 6; x++ {
						got, ok := interp.Evaluate([3]float64{float64(x), float64(y), float64(z)})
						if !ok {
							t.Fatalf("Grid point (%d,%d,%d) reported outside", x, y, z)
						}
						if want := img.At(x, y, z); math.Abs(got-want) > 1e-6 {
							t.Errorf("(%d,%d,%d): expected %g, got %g", x, y, z, want, got)
						}
					}
				}
			}
		})
	}
}

func TestConstantImageStaysConstant(t *testing.T) {
	img := volume.New([3]int{4, 4, 3}, volume.Float32)
	for i := range img.Data() {
		img.Data()[i] = 7
	}

	points := [][3]float64{{0.3, 1.7, 0.5}, {2.5, 2.5, 1.25}, {-0.4, 3.2, 2.4}}
	for _, kind := range []Kind{NearestNeighbor, Linear, BSpline} {
		interp, err := New(kind, img)
		if err != nil {
			t.Fatalf("Failed to create %s interpolator: %v", kind, err)
		}
		for _, p := range points {
			got, ok := interp.Evaluate(p)
			if !ok {
				t.Errorf("%s: point %v should be inside", kind, p)
				continue
			}
			if math.Abs(got-7) > 1e-6 {
				t.Errorf("%s: expected 7 at %v, got %g", kind, p, got)
			}
		}
	}
}

func TestLinearMidpoint(t *testing.T) {
	img := volume.New([3]int{2, 1, 1}, volume.Float64)
	img.Set(0, 0, 0, 2)
	img.Set(1, 0, 0, 6)

	interp, err := New(Linear, img)
	if err != nil {
		t.Fatalf("Failed to create interpolator: %v", err)
	}
	got, ok := interp.Evaluate([3]float64{0.5, 0, 0})
	if !ok || got != 4 {
		t.Errorf("Expected 4 at midpoint, got %g (inside=%v)", got, ok)
	}
}

func TestNearestPicksClosestVoxel(t *testing.T) {
	img := volume.New([3]int{3, 1, 1}, volume.UInt8)
	img.Set(0, 0, 0, 0)
	img.Set(1, 0, 0, 1)
	img.Set(2, 0, 0, 2)

	interp, _ := New(NearestNeighbor, img)
	for ci, want := range map[float64]float64{0.4: 0, 0.6: 1, 1.49: 1, 1.5: 2, 2.4: 2} {
		if got, _ := interp.Evaluate([3]float64{ci, 0, 0}); got != want {
			t.Errorf("At %g: expected %g, got %g", ci, want, got)
		}
	}
}

func TestOutsideBuffer(t *testing.T) {
	img := createTestData(3, 3, 3)
	for _, kind := range []Kind{NearestNeighbor, Linear, BSpline} {
		interp, _ := New(kind, img)
		for _, p := range [][3]float64{{-0.6, 0, 0}, {0, 2.5, 0}, {0, 0, 10}} {
			if _, ok := interp.Evaluate(p); ok {
				t.Errorf("%s: point %v should be outside", kind, p)
			}
		}
	}
}

func TestMirror(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 4, 1},
		{-2, 4, 2},
		{4, 4, 2},
		{5, 4, 1},
		{3, 1, 0},
	}
	for _, tt := range tests {
		if got := mirror(tt.i, tt.n); got != tt.want {
			t.Errorf("mirror(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestUnsupportedKind(t *testing.T) {
	if _, err := New(Kind(42), createTestData(2, 2, 2)); err == nil {
		t.Error("Expected error for unsupported kind")
	}
}
