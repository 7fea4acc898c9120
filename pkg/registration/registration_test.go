package registration

import (
	"math"
	"testing"

	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

// createBlob creates a volume holding an off-centre Gaussian blob on a ramp
func createBlob(shiftX float64) *volume.Image {
	size := [3]int{16, 16, 8}
	img := volume.New(size, volume.Float32)
	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				dx := float64(x) - 6 - shiftX
				dy := float64(y) - 8
				dz := float64(z) - 4
				v := 100*math.Exp(-(dx*dx+dy*dy+dz*dz)/12) + float64(y)
				img.Set(x, y, z, v)
			}
		}
	}
	return img
}

func TestMutualInformationPrefersAlignment(t *testing.T) {
	fixed := createBlob(0)
	metric := MutualInformation{Bins: 32}

	aligned, err := metric.Evaluate(fixed, fixed, transform.Identity{})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	shifted := transform.NewEuler3D()
	shifted.SetTranslation([3]float64{3, 0, 0})
	misaligned, err := metric.Evaluate(fixed, fixed, shifted)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if aligned <= misaligned {
		t.Errorf("Expected aligned MI %g to exceed misaligned MI %g", aligned, misaligned)
	}
	if aligned <= 0 {
		t.Errorf("Self MI should be positive, got %g", aligned)
	}
}

func TestMutualInformationNoOverlap(t *testing.T) {
	fixed := createBlob(0)
	far := transform.NewEuler3D()
	far.SetTranslation([3]float64{1000, 0, 0})

	mi, err := MutualInformation{Bins: 16}.Evaluate(fixed, fixed, far)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if mi != 0 {
		t.Errorf("Expected 0 MI without overlap, got %g", mi)
	}
}

func TestMutualInformationRejectsBins(t *testing.T) {
	img := createBlob(0)
	if _, err := (MutualInformation{Bins: 1}).Evaluate(img, img, transform.Identity{}); err == nil {
		t.Error("Expected error for a single bin")
	}
}

func TestPhysicalShiftScales(t *testing.T) {
	img := volume.New([3]int{30, 40, 1}, volume.Float32)
	scales := PhysicalShiftScales(img)

	// half of sqrt(30^2 + 40^2 + 1)
	want := math.Sqrt(2501) / 2
	for i := 0; i < 3; i++ {
		if math.Abs(scales[i]-want) > 1e-12 {
			t.Errorf("Rotation scale %d: expected %g, got %g", i, want, scales[i])
		}
	}
	for i := 3; i < 6; i++ {
		if scales[i] != 1 {
			t.Errorf("Translation scale %d: expected 1, got %g", i, scales[i])
		}
	}
}

func TestMethodDoesNotWorsenCost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping registration in short mode")
	}

	fixed := createBlob(0)
	moving := createBlob(1.5)

	m := NewMethod()
	m.Metric.Bins = 32
	m.Iterations = 20

	initial := transform.CenteredGeometry(fixed, moving)
	before, err := m.Metric.Evaluate(fixed, moving, initial)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	final, cost, err := m.Execute(fixed, moving, initial)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if final == initial {
		t.Error("Execute should return a new transform")
	}
	if cost > -before+1e-12 {
		t.Errorf("Final cost %g is worse than initial cost %g", cost, -before)
	}
	if initial.Translation() != [3]float64{} {
		t.Errorf("Initial transform was modified: %v", initial.Translation())
	}
}

func TestMethodValidate(t *testing.T) {
	tests := []func(m *Method){
		func(m *Method) { m.LearningRate = 0 },
		func(m *Method) { m.Iterations = 0 },
		func(m *Method) { m.ConvergenceWindowSize = -1 },
	}
	for i, mutate := range tests {
		m := NewMethod()
		mutate(m)
		if err := m.Validate(); err == nil {
			t.Errorf("Case %d: expected validation error", i)
		}
	}
}
