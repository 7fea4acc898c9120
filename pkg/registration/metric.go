// Package registration aligns two volumes with a rigid transform by
// maximising their mutual information.
package registration

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"medproio/pkg/interpolation"
	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

// MutualInformation measures the statistical dependency between fixed and
// moving intensities with a joint histogram.
type MutualInformation struct {
	// Bins is the number of histogram bins per image
	Bins int

	// SampleStride keeps every n-th fixed voxel; values below 2 use every voxel
	SampleStride int
}

type fixedSample struct {
	point [3]float64
	bin   int
}

// evaluator holds everything that does not change between metric evaluations
type evaluator struct {
	bins    int
	samples []fixedSample
	moving  interpolation.Interpolator
	mapper  *volume.IndexMapper

	movingMin, movingScale float64

	joint, fixedHist, movingHist []float64
}

func binScale(lo, hi float64, bins int) float64 {
	if hi <= lo {
		return 0
	}
	return float64(bins) / (hi - lo)
}

func toBin(v, lo, scale float64, bins int) int {
	b := int((v - lo) * scale)
	if b < 0 {
		return 0
	}
	if b >= bins {
		return bins - 1
	}
	return b
}

func (m MutualInformation) bind(fixed, moving *volume.Image) (*evaluator, error) {
	if m.Bins < 2 {
		return nil, fmt.Errorf("mutual information needs at least 2 bins, got %d", m.Bins)
	}
	if err := fixed.Validate(); err != nil {
		return nil, fmt.Errorf("fixed image: %w", err)
	}

	interp, err := interpolation.New(interpolation.Linear, moving)
	if err != nil {
		return nil, fmt.Errorf("moving image: %w", err)
	}
	mapper, err := volume.NewIndexMapper(moving)
	if err != nil {
		return nil, fmt.Errorf("moving image: %w", err)
	}

	stride := max(1, m.SampleStride)
	fixedMin, fixedMax := fixed.MinMax()
	fixedScale := binScale(fixedMin, fixedMax, m.Bins)
	movingMin, movingMax := moving.MinMax()

	ev := &evaluator{
		bins:        m.Bins,
		moving:      interp,
		mapper:      mapper,
		movingMin:   movingMin,
		movingScale: binScale(movingMin, movingMax, m.Bins),
		joint:       make([]float64, m.Bins*m.Bins),
		fixedHist:   make([]float64, m.Bins),
		movingHist:  make([]float64, m.Bins),
	}

	size := fixed.Size()
	data := fixed.Data()
	for i := 0; i < len(data); i += stride {
		x := i % size[0]
		y := (i / size[0]) % size[1]
		z := i / (size[0] * size[1])
		ev.samples = append(ev.samples, fixedSample{
			point: fixed.IndexToPhysical([3]float64{float64(x), float64(y), float64(z)}),
			bin:   toBin(data[i], fixedMin, fixedScale, m.Bins),
		})
	}
	return ev, nil
}

// value returns the mutual information, in nats, of the fixed samples and
// the moving image seen through tr. Samples mapping outside the moving image
// are ignored; if none remain the result is 0.
func (ev *evaluator) value(tr transform.Transform) float64 {
	clear(ev.joint)
	clear(ev.fixedHist)
	clear(ev.movingHist)

	n := 0
	for _, s := range ev.samples {
		v, ok := ev.moving.Evaluate(ev.mapper.ToIndex(tr.TransformPoint(s.point)))
		if !ok {
			continue
		}
		mb := toBin(v, ev.movingMin, ev.movingScale, ev.bins)
		ev.joint[s.bin*ev.bins+mb]++
		ev.fixedHist[s.bin]++
		ev.movingHist[mb]++
		n++
	}
	if n == 0 {
		return 0
	}

	norm := 1 / float64(n)
	for i := range ev.joint {
		ev.joint[i] *= norm
	}
	for i := range ev.fixedHist {
		ev.fixedHist[i] *= norm
		ev.movingHist[i] *= norm
	}

	return stat.Entropy(ev.fixedHist) + stat.Entropy(ev.movingHist) - stat.Entropy(ev.joint)
}

// Evaluate returns the mutual information between fixed and moving when the
// moving image is sampled through tr.
func (m MutualInformation) Evaluate(fixed, moving *volume.Image, tr transform.Transform) (float64, error) {
	ev, err := m.bind(fixed, moving)
	if err != nil {
		return 0, err
	}
	return ev.value(tr), nil
}
