package preprocess

import (
	"fmt"

	"medproio/internal/models"
	"medproio/pkg/resample"
	"medproio/pkg/volume"
)

// ResamplerToSpacing resamples the reference image to a target voxel
// spacing, keeping its origin and direction.
type ResamplerToSpacing struct {
	base
	spacing models.Spacing3
}

// NewResamplerToSpacing creates a resampler targeting models.DefaultTargetSpacing.
func NewResamplerToSpacing(opts ...Option) *ResamplerToSpacing {
	return &ResamplerToSpacing{
		base:    newBase("resample_to_spacing", opts),
		spacing: models.DefaultTargetSpacing,
	}
}

// SetSpacing sets the target spacing.
func (r *ResamplerToSpacing) SetSpacing(spacing models.Spacing3) error {
	if err := spacing.Validate(); err != nil {
		return err
	}
	r.spacing = spacing
	return nil
}

// Spacing returns the target spacing.
func (r *ResamplerToSpacing) Spacing() models.Spacing3 { return r.spacing }

// ExecuteProcessing resamples the reference image to the target spacing.
func (r *ResamplerToSpacing) ExecuteProcessing() {
	r.execute(r.resample, r.AssertCorrectness)
}

func (r *ResamplerToSpacing) resample() (*volume.Image, error) {
	if err := r.requireImages(true, false); err != nil {
		return nil, err
	}
	img := r.reference
	target := [3]float64(r.spacing)

	f := &resample.Filter{
		Size:         resample.OutputSize(img.Size(), img.Spacing(), target),
		Spacing:      target,
		Origin:       img.Origin(),
		Direction:    img.Direction(),
		Interpolator: chooseInterpolator(img),
	}
	return f.Execute(img)
}

// AssertCorrectness checks that the output has the target spacing.
func (r *ResamplerToSpacing) AssertCorrectness() error {
	if r.transformed == nil {
		return fmt.Errorf("%w: no transformed image to check", ErrAssertion)
	}
	if r.transformed.Spacing() != [3]float64(r.spacing) {
		return fmt.Errorf("%w: sequence spacing %v is not the desired spacing %v",
			ErrAssertion, r.transformed.Spacing(), r.spacing)
	}
	return nil
}
