// Package resample re-evaluates a volume on a new voxel grid.
package resample

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"medproio/pkg/interpolation"
	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

// Filter describes an output grid and how input voxels are mapped onto it.
// For every output voxel the physical point is pushed through Transform
// into input space and evaluated with the chosen interpolator; points that
// fall outside the input receive DefaultValue.
type Filter struct {
	Size      [3]int
	Spacing   [3]float64
	Origin    [3]float64
	Direction [9]float64

	// Transform maps output points to input points; nil means identity.
	Transform transform.Transform

	Interpolator interpolation.Kind
	DefaultValue float64

	// PixelType of the output; volume.Unknown keeps the input's type.
	PixelType volume.PixelType

	// Workers is the number of goroutines sharing the output slices.
	// Zero uses every available core.
	Workers int
}

// UseReferenceGrid copies size, spacing, origin and direction from ref.
func (f *Filter) UseReferenceGrid(ref *volume.Image) {
	f.Size = ref.Size()
	f.Spacing = ref.Spacing()
	f.Origin = ref.Origin()
	f.Direction = ref.Direction()
}

// OutputSize returns the voxel count that covers the same physical extent
// at a new spacing: round(size * spacingIn / spacingOut) per axis, never
// less than one voxel. Halves round to even.
func OutputSize(size [3]int, spacingIn, spacingOut [3]float64) [3]int {
	var out [3]int
	for i := range out {
		n := int(math.RoundToEven(float64(size[i]) * (spacingIn[i] / spacingOut[i])))
		out[i] = max(1, n)
	}
	return out
}

// Execute resamples input onto the filter's grid.
func (f *Filter) Execute(input *volume.Image) (*volume.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("resample input: %w", err)
	}

	pixel := f.PixelType
	if pixel == volume.Unknown {
		pixel = input.PixelType()
	}

	out := volume.New(f.Size, pixel)
	out.SetSpacing(f.Spacing)
	out.SetOrigin(f.Origin)
	out.SetDirection(f.Direction)
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("resample output grid: %w", err)
	}

	interp, err := interpolation.New(f.Interpolator, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s interpolator: %w", f.Interpolator, err)
	}
	mapper, err := volume.NewIndexMapper(input)
	if err != nil {
		return nil, err
	}

	var tr transform.Transform = transform.Identity{}
	if f.Transform != nil {
		tr = f.Transform
	}

	workers := f.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	nz := f.Size[2]
	slicesPerWorker := (nz + workers - 1) / workers

	// Every worker owns a contiguous run of z slices, so writes never overlap.
	data := out.Data()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * slicesPerWorker
		end := min(start+slicesPerWorker, nz)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for z := start; z < end; z++ {
				for y := 0; y < f.Size[1]; y++ {
					for x := 0; x < f.Size[0]; x++ {
						p := out.IndexToPhysical([3]float64{float64(x), float64(y), float64(z)})
						ci := mapper.ToIndex(tr.TransformPoint(p))

						v, ok := interp.Evaluate(ci)
						if !ok {
							v = f.DefaultValue
						}
						data[out.Offset(x, y, z)] = pixel.Convert(v)
					}
				}
			}
		}(start, end)
	}
	wg.Wait()

	return out, nil
}
