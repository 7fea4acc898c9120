package preprocess

import (
	"fmt"

	"medproio/pkg/interpolation"
	"medproio/pkg/registration"
	"medproio/pkg/resample"
	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

// AlignmentRegistration rigidly aligns the moving sequence to the reference
// sequence by maximising mutual information, then resamples the moving image
// into the reference grid with linear interpolation. Label images are
// rejected: alignment is only defined for continuous intensities.
type AlignmentRegistration struct {
	base
	method         *registration.Method
	finalTransform *transform.Euler3D
	metricValue    float64
}

// NewAlignmentRegistration creates an aligner with the default optimizer settings.
func NewAlignmentRegistration(opts ...Option) *AlignmentRegistration {
	return &AlignmentRegistration{
		base:   newBase("alignment", opts),
		method: registration.NewMethod(),
	}
}

// SetMethod replaces the registration method.
func (a *AlignmentRegistration) SetMethod(m *registration.Method) error {
	if m == nil {
		return fmt.Errorf("registration method must not be nil")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	a.method = m
	return nil
}

// Method returns the registration method in use.
func (a *AlignmentRegistration) Method() *registration.Method { return a.method }

// FinalTransform returns the transform solved by the last run, or nil.
func (a *AlignmentRegistration) FinalTransform() *transform.Euler3D { return a.finalTransform }

// MetricValue returns the final cost (negative mutual information) of the last run.
func (a *AlignmentRegistration) MetricValue() float64 { return a.metricValue }

// ExecuteProcessing registers the moving image onto the reference image.
func (a *AlignmentRegistration) ExecuteProcessing() {
	a.finalTransform = nil
	a.metricValue = 0
	a.execute(a.align, a.AssertCorrectness)
}

func (a *AlignmentRegistration) align() (*volume.Image, error) {
	if err := a.requireImages(true, true); err != nil {
		return nil, err
	}

	reference := volume.Cast(a.reference, volume.Float32)
	moving := volume.Cast(a.moving, volume.Float32)
	if volume.IsBinaryMask(moving) || volume.IsBinaryMask(reference) {
		return nil, fmt.Errorf("a sequence may be a binary mask: %w", ErrBinaryMask)
	}

	initial := transform.CenteredGeometry(reference, moving)
	final, value, err := a.method.Execute(reference, moving, initial)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	a.finalTransform = final
	a.metricValue = value

	f := &resample.Filter{
		Transform:    final,
		Interpolator: interpolation.Linear,
		DefaultValue: 0,
		PixelType:    a.moving.PixelType(),
	}
	f.UseReferenceGrid(reference)
	return f.Execute(moving)
}

// AssertCorrectness checks that alignment kept the moving image's size and spacing.
func (a *AlignmentRegistration) AssertCorrectness() error {
	if a.transformed == nil || a.moving == nil {
		return fmt.Errorf("%w: no transformed image to check", ErrAssertion)
	}
	if a.transformed.Size() != a.moving.Size() || a.transformed.Spacing() != a.moving.Spacing() {
		return fmt.Errorf("%w: there is a change in the spacing or size of the transformed image", ErrAssertion)
	}
	return nil
}
