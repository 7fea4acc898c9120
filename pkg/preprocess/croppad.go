package preprocess

import (
	"fmt"

	"medproio/internal/models"
	"medproio/pkg/volume"
)

// VolumeCropperAndPadder centre crops and/or zero pads the reference image
// to a fixed voxel size.
type VolumeCropperAndPadder struct {
	base
	targetSize models.Size3
}

// NewVolumeCropperAndPadder creates a cropper targeting models.DefaultTargetSize.
func NewVolumeCropperAndPadder(opts ...Option) *VolumeCropperAndPadder {
	return &VolumeCropperAndPadder{
		base:       newBase("crop_and_pad", opts),
		targetSize: models.DefaultTargetSize,
	}
}

// SetTargetSize sets the output size.
func (c *VolumeCropperAndPadder) SetTargetSize(size models.Size3) error {
	if err := size.Validate(); err != nil {
		return err
	}
	c.targetSize = size
	return nil
}

// TargetSize returns the output size.
func (c *VolumeCropperAndPadder) TargetSize() models.Size3 { return c.targetSize }

// ExecuteProcessing crops and pads the reference image to the target size.
func (c *VolumeCropperAndPadder) ExecuteProcessing() {
	c.execute(func() (*volume.Image, error) {
		if err := c.requireImages(true, false); err != nil {
			return nil, err
		}
		return CenterCropAndPad(c.reference, c.targetSize)
	}, c.AssertCorrectness)
}

// AssertCorrectness checks that the output has the target size.
func (c *VolumeCropperAndPadder) AssertCorrectness() error {
	if c.transformed == nil {
		return fmt.Errorf("%w: no transformed image to check", ErrAssertion)
	}
	if c.transformed.Size() != [3]int(c.targetSize) {
		return fmt.Errorf("%w: failed to produce the desired target size %v, got %v",
			ErrAssertion, c.targetSize, c.transformed.Size())
	}
	return nil
}

// CenterCropAndPad brings img to target size. Axes smaller than the target
// are zero padded symmetrically, with the extra voxel after when the
// difference is odd. Axes larger than the target are cropped around the
// centre. Padding runs over all axes first, then a single crop.
func CenterCropAndPad(img *volume.Image, target models.Size3) (*volume.Image, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	size := img.Size()
	var before, after [3]int
	pad := false
	for i := range size {
		d := target[i] - size[i]
		before[i] = max(0, d/2)
		after[i] = max(0, d-before[i])
		if d > 0 {
			pad = true
		}
	}

	out := img
	if pad {
		var err error
		if out, err = volume.ConstantPad(img, before, after, 0); err != nil {
			return nil, fmt.Errorf("pad: %w", err)
		}
	}

	size = out.Size()
	var start [3]int
	for i := range size {
		start[i] = max(0, min(size[i]-target[i], (size[i]-target[i])/2))
	}

	cropped, err := volume.RegionOfInterest(out, start, target)
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	return cropped, nil
}
