package quality

import (
	"math"
	"testing"

	"medproio/internal/phantom"
	"medproio/pkg/volume"
)

var geom = phantom.Geometry{Size: [3]int{16, 16, 8}, Spacing: [3]float64{1, 1, 2}}

func TestCompareIdentical(t *testing.T) {
	img := phantom.Head(geom, [3]float64{})

	m, err := Compare(img, img.Clone())
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if m.RMSE != 0 {
		t.Errorf("Expected zero RMSE, got %g", m.RMSE)
	}
	if math.Abs(m.SSIM-1) > 1e-9 {
		t.Errorf("Expected SSIM 1, got %g", m.SSIM)
	}
	if math.Abs(m.Correlation-1) > 1e-9 {
		t.Errorf("Expected correlation 1, got %g", m.Correlation)
	}
	if m.EntropyDiff != 0 {
		t.Errorf("Expected zero entropy difference, got %g", m.EntropyDiff)
	}
	if m.MI <= 0 {
		t.Errorf("Expected positive mutual information, got %g", m.MI)
	}
}

func TestCompareShiftedIsWorse(t *testing.T) {
	ref := phantom.Head(geom, [3]float64{})

	same, err := Compare(ref, ref.Clone())
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	shifted, err := Compare(ref, phantom.Head(geom, [3]float64{3, 0, 0}))
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if shifted.RMSE <= same.RMSE {
		t.Errorf("Expected larger RMSE for shifted volume, got %g <= %g", shifted.RMSE, same.RMSE)
	}
	if shifted.SSIM >= same.SSIM {
		t.Errorf("Expected lower SSIM for shifted volume, got %g >= %g", shifted.SSIM, same.SSIM)
	}
	if shifted.MI >= same.MI {
		t.Errorf("Expected lower MI for shifted volume, got %g >= %g", shifted.MI, same.MI)
	}
}

func TestCompareRejectsDifferentGrids(t *testing.T) {
	a := phantom.Head(geom, [3]float64{})
	b := volume.New([3]int{8, 8, 8}, volume.Float32)

	if _, err := Compare(a, b); err == nil {
		t.Error("Expected error for mismatched grids")
	}
	if _, err := Compare(nil, a); err == nil {
		t.Error("Expected error for nil reference")
	}
}
