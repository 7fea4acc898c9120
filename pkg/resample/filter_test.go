package resample

import (
	"math"
	"testing"

	"medproio/pkg/interpolation"
	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

func createGradientVolume(nx, ny, nz int) *volume.Image {
	img := volume.New([3]int{nx, ny, nz}, volume.Float32)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				img.Set(x, y, z, float64(2*x+3*y+5*z))
			}
		}
	}
	return img
}

func TestOutputSize(t *testing.T) {
	tests := []struct {
		size    [3]int
		in, out [3]float64
		want    [3]int
	}{
		{[3]int{100, 100, 50}, [3]float64{1, 1, 1}, [3]float64{0.5, 0.5, 3}, [3]int{200, 200, 17}},
		{[3]int{10, 10, 10}, [3]float64{1, 1, 1}, [3]float64{4, 4, 4}, [3]int{2, 2, 2}},
		{[3]int{5, 3, 1}, [3]float64{1, 1, 1}, [3]float64{2, 2, 4}, [3]int{2, 2, 1}},
	}

	for _, tt := range tests {
		if got := OutputSize(tt.size, tt.in, tt.out); got != tt.want {
			t.Errorf("OutputSize(%v, %v, %v) = %v, want %v", tt.size, tt.in, tt.out, got, tt.want)
		}
	}
}

func TestIdentityResampleOnSameGrid(t *testing.T) {
	img := createGradientVolume(5, 4, 3)
	img.SetOrigin([3]float64{-3, 2, 8})
	img.SetSpacing([3]float64{0.5, 1, 2})

	for _, kind := range []interpolation.Kind{interpolation.NearestNeighbor, interpolation.Linear, interpolation.BSpline} {
		f := &Filter{Interpolator: kind}
		f.UseReferenceGrid(img)

		out, err := f.Execute(img)
		if err != nil {
			t.Fatalf("%s: Execute failed: %v", kind, err)
		}
		if !volume.SameGeometry(out, img) {
			t.Errorf("%s: output geometry differs from reference grid", kind)
		}
		for i, v := range out.Data() {
			if math.Abs(v-img.Data()[i]) > 1e-4 {
				t.Fatalf("%s: voxel %d expected %g, got %g", kind, i, img.Data()[i], v)
			}
		}
	}
}

func TestResampleDefaultValueAndPixelType(t *testing.T) {
	img := createGradientVolume(4, 4, 4)

	f := &Filter{
		Size:         [3]int{4, 4, 4},
		Spacing:      [3]float64{1, 1, 1},
		Origin:       [3]float64{2, 0, 0},
		Direction:    volume.IdentityDirection,
		Interpolator: interpolation.Linear,
		DefaultValue: -1,
		PixelType:    volume.Int16,
	}
	out, err := f.Execute(img)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if out.PixelType() != volume.Int16 {
		t.Errorf("Expected int16 output, got %s", out.PixelType())
	}
	// x=0 maps onto input x=2
	if got := out.At(0, 1, 1); got != img.At(2, 1, 1) {
		t.Errorf("Expected %g, got %g", img.At(2, 1, 1), got)
	}
	// x=3 maps onto input x=5, outside the buffer
	if got := out.At(3, 1, 1); got != -1 {
		t.Errorf("Expected default value -1, got %g", got)
	}
}

func TestResampleWithTranslation(t *testing.T) {
	img := createGradientVolume(6, 6, 6)

	e := transform.NewEuler3D()
	e.SetTranslation([3]float64{1, 0, 0})

	f := &Filter{Transform: e, Interpolator: interpolation.Linear}
	f.UseReferenceGrid(img)
	out, err := f.Execute(img)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := out.At(2, 3, 3); math.Abs(got-img.At(3, 3, 3)) > 1e-6 {
		t.Errorf("Expected %g, got %g", img.At(3, 3, 3), got)
	}
}

func TestResampleRejectsInvalidGrid(t *testing.T) {
	img := createGradientVolume(2, 2, 2)
	f := &Filter{Size: [3]int{2, 2, 2}, Spacing: [3]float64{1, 1, 0}, Direction: volume.IdentityDirection}
	if _, err := f.Execute(img); err == nil {
		t.Error("Expected error for zero output spacing")
	}
}

func TestResampleWorkerCountsAgree(t *testing.T) {
	in := createGradientVolume(9, 7, 11)
	tr := transform.NewEuler3D()
	tr.SetRotation(0, 0, 0.1)
	tr.SetTranslation([3]float64{0.4, -0.3, 0.2})

	var results []*volume.Image
	for _, workers := range []int{1, 3, 32} {
		f := &Filter{Transform: tr, Interpolator: interpolation.BSpline, Workers: workers}
		f.UseReferenceGrid(in)
		out, err := f.Execute(in)
		if err != nil {
			t.Fatalf("Execute with %d workers failed: %v", workers, err)
		}
		results = append(results, out)
	}

	for i := 1; i < len(results); i++ {
		for j, v := range results[i].Data() {
			if v != results[0].Data()[j] {
				t.Fatalf("worker run %d differs at voxel %d: %g vs %g", i, j, v, results[0].Data()[j])
			}
		}
	}
}
