package preprocess

import (
	"fmt"

	"medproio/pkg/interpolation"
	"medproio/pkg/resample"
	"medproio/pkg/volume"
)

// SequenceResampler rewrites the moving image into the reference image's
// coordinate system without any optimisation. The output has exactly the
// reference's spacing, direction, size and origin.
type SequenceResampler struct {
	base
}

// NewSequenceResampler creates a sequence resampler.
func NewSequenceResampler(opts ...Option) *SequenceResampler {
	return &SequenceResampler{base: newBase("sequence_resampler", opts)}
}

// ExecuteProcessing resamples the moving image onto the reference grid.
func (s *SequenceResampler) ExecuteProcessing() {
	s.execute(s.resample, s.AssertCorrectness)
}

func (s *SequenceResampler) resample() (*volume.Image, error) {
	if err := s.requireImages(true, true); err != nil {
		return nil, err
	}
	ref, mov := s.reference, s.moving

	f := &resample.Filter{
		Size:         resample.OutputSize(mov.Size(), mov.Spacing(), ref.Spacing()),
		Spacing:      ref.Spacing(),
		Origin:       ref.Origin(),
		Direction:    ref.Direction(),
		Interpolator: chooseInterpolator(mov),
	}
	out, err := f.Execute(mov)
	if err != nil {
		return nil, err
	}

	// The rounded size can miss the reference size by a few voxels; pad or
	// truncate from the origin corner so the sizes match exactly.
	fitted := volume.ResizeCanvas(out, ref.Size())
	if err := fitted.CopyInformation(ref); err != nil {
		return nil, err
	}
	return fitted, nil
}

// AssertCorrectness checks that the output geometry equals the reference geometry.
func (s *SequenceResampler) AssertCorrectness() error {
	if s.transformed == nil || s.reference == nil {
		return fmt.Errorf("%w: no transformed image to check", ErrAssertion)
	}
	if !volume.SameGeometry(s.reference, s.transformed) {
		return fmt.Errorf("%w: reference and moving images do not have matching metadata after resampling", ErrAssertion)
	}
	return nil
}

// chooseInterpolator picks nearest neighbour for label images so labels
// are never blended, and cubic B-spline otherwise.
func chooseInterpolator(img *volume.Image) interpolation.Kind {
	if volume.IsBinaryMask(img) {
		return interpolation.NearestNeighbor
	}
	return interpolation.BSpline
}
