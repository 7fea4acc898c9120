// Package quality compares a processed volume against its reference.
package quality

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"medproio/pkg/registration"
	"medproio/pkg/transform"
	"medproio/pkg/volume"
)

// Bins is the histogram resolution used for the entropy based metrics
const Bins = 64

// Metrics holds similarity measures between two volumes on the same grid
type Metrics struct {
	// MI is the mutual information in nats
	MI float64

	// EntropyDiff is the absolute difference of the intensity entropies
	EntropyDiff float64

	// RMSE is computed on intensities scaled by the reference range
	RMSE float64

	// SSIM is the global structural similarity index on the same scale
	SSIM float64

	Correlation float64
}

// Compare computes Metrics for img against reference. Both must share a grid.
func Compare(reference, img *volume.Image) (Metrics, error) {
	if err := reference.Validate(); err != nil {
		return Metrics{}, fmt.Errorf("reference: %w", err)
	}
	if err := img.Validate(); err != nil {
		return Metrics{}, fmt.Errorf("image: %w", err)
	}
	if !volume.SameGeometry(reference, img) {
		return Metrics{}, fmt.Errorf("images are on different grids: %v vs %v", reference.Size(), img.Size())
	}

	var m Metrics
	var err error
	m.MI, err = registration.MutualInformation{Bins: Bins}.Evaluate(reference, img, transform.Identity{})
	if err != nil {
		return Metrics{}, err
	}

	lo, hi := reference.MinMax()
	a := normalize(reference.Data(), lo, hi)
	b := normalize(img.Data(), lo, hi)

	m.EntropyDiff = math.Abs(entropy(reference.Data()) - entropy(img.Data()))
	m.RMSE = floats.Distance(a, b, 2) / math.Sqrt(float64(len(a)))
	m.SSIM = ssim(a, b)
	m.Correlation = stat.Correlation(a, b, nil)
	if math.IsNaN(m.Correlation) {
		m.Correlation = 0
	}
	return m, nil
}

// normalize maps data onto [0, 1] relative to [lo, hi]
func normalize(data []float64, lo, hi float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	floats.AddConst(-lo, out)
	if hi > lo {
		floats.Scale(1/(hi-lo), out)
	}
	return out
}

// entropy is the Shannon entropy in nats of a Bins-bin intensity histogram
func entropy(data []float64) float64 {
	lo, hi := floats.Min(data), floats.Max(data)
	if hi <= lo {
		return 0
	}
	hist := make([]float64, Bins)
	width := (hi - lo) / Bins
	for _, v := range data {
		bin := min(int((v-lo)/width), Bins-1)
		hist[bin]++
	}
	floats.Scale(1/float64(len(data)), hist)
	return stat.Entropy(hist)
}

// ssim uses a dynamic range of 1
func ssim(x, y []float64) float64 {
	const (
		k1 = 0.01
		k2 = 0.03
	)
	c1 := k1 * k1
	c2 := k2 * k2

	muX, varX := stat.MeanVariance(x, nil)
	muY, varY := stat.MeanVariance(y, nil)
	covXY := stat.Covariance(x, y, nil)
	if len(x) < 2 {
		varX, varY, covXY = 0, 0, 0
	}

	num := (2*muX*muY + c1) * (2*covXY + c2)
	den := (muX*muX + muY*muY + c1) * (varX + varY + c2)
	return num / den
}
