package registration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

// gradientStep is the central-difference step in scaled parameter space, in mm.
const gradientStep = 0.25

// Method runs a gradient-descent search over Euler3D parameters, minimising
// the negative mutual information between a fixed and a moving image.
type Method struct {
	Metric MutualInformation

	LearningRate            float64
	Iterations              int
	ConvergenceMinimumValue float64
	ConvergenceWindowSize   int
}

// NewMethod returns a method with the default optimizer settings:
// 50 histogram bins, learning rate 1.0, 100 iterations, and convergence once
// the cost changes by less than 1e-6 over 10 iterations.
func NewMethod() *Method {
	return &Method{
		Metric:                  MutualInformation{Bins: 50, SampleStride: 1},
		LearningRate:            1.0,
		Iterations:              100,
		ConvergenceMinimumValue: 1e-6,
		ConvergenceWindowSize:   10,
	}
}

// Validate checks the optimizer settings
func (m *Method) Validate() error {
	if !(m.LearningRate > 0) {
		return fmt.Errorf("learning rate must be positive, got %g", m.LearningRate)
	}
	if m.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", m.Iterations)
	}
	if m.ConvergenceWindowSize <= 0 {
		return fmt.Errorf("convergence window size must be positive, got %d", m.ConvergenceWindowSize)
	}
	return nil
}

// PhysicalShiftScales returns per-parameter scales so that a unit step in
// any scaled parameter moves points of fixed by roughly one millimetre. A
// rotation of one radian displaces the corners of the volume by its radius.
func PhysicalShiftScales(fixed *volume.Image) []float64 {
	size, spacing := fixed.Size(), fixed.Spacing()
	r := 0.0
	for i := range size {
		extent := float64(size[i]) * spacing[i]
		r += extent * extent
	}
	r = math.Max(1, math.Sqrt(r)/2)
	return []float64{r, r, r, 1, 1, 1}
}

// Execute optimises a copy of initial and returns it with the final cost
// (negative mutual information). initial is not modified.
func (m *Method) Execute(fixed, moving *volume.Image, initial *transform.Euler3D) (*transform.Euler3D, float64, error) {
	if err := m.Validate(); err != nil {
		return nil, 0, err
	}
	ev, err := m.Metric.bind(fixed, moving)
	if err != nil {
		return nil, 0, err
	}

	scales := PhysicalShiftScales(fixed)
	u0 := floats.MulTo(make([]float64, transform.NumberOfParameters), initial.Parameters(), scales)

	candidate := initial.Clone()
	params := make([]float64, transform.NumberOfParameters)
	cost := func(u []float64) float64 {
		floats.DivTo(params, u, scales)
		if err := candidate.SetParameters(params); err != nil {
			return math.Inf(1)
		}
		return -ev.value(candidate)
	}

	problem := optimize.Problem{
		Func: cost,
		Grad: func(grad, u []float64) {
			fd.Gradient(grad, cost, u, &fd.Settings{Formula: fd.Central, Step: gradientStep})
		},
	}
	settings := &optimize.Settings{
		MajorIterations: m.Iterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   m.ConvergenceMinimumValue,
			Iterations: m.ConvergenceWindowSize,
		},
	}
	method := &optimize.GradientDescent{
		StepSizer: &optimize.ConstantStepSize{Size: m.LearningRate},
	}

	result, err := optimize.Minimize(problem, u0, settings, method)
	if result == nil {
		return nil, 0, fmt.Errorf("gradient descent: %w", err)
	}
	// a failed line search still reports the best location found so far

	final := initial.Clone()
	if err := final.SetParameters(floats.DivTo(make([]float64, transform.NumberOfParameters), result.X, scales)); err != nil {
		return nil, 0, err
	}
	return final, result.F, nil
}
