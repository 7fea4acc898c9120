package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"medproio/pkg/volume"
)

// Viewer renders 2D slices of a volume for visual inspection of
// preprocessing results.
type Viewer struct {
	// img is the volume being viewed
	img *volume.Image

	// lo and hi define the intensity window mapped onto the grey range
	lo, hi float64
}

// NewViewer creates a viewer whose intensity window spans the volume's range.
func NewViewer(img *volume.Image) (*Viewer, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	lo, hi := img.MinMax()
	return &Viewer{img: img, lo: lo, hi: hi}, nil
}

// SetWindow overrides the intensity window.
func (v *Viewer) SetWindow(lo, hi float64) error {
	if hi <= lo {
		return fmt.Errorf("window upper bound %g must exceed lower bound %g", hi, lo)
	}
	v.lo, v.hi = lo, hi
	return nil
}

func (v *Viewer) gray(value float64) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{}
	}
	t := (value - v.lo) / (v.hi - v.lo)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, t*65535)))}
}

// sliceAxis maps an axis name onto its index
func sliceAxis(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return 0, nil
	case "y", "Y":
		return 1, nil
	case "z", "Z":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// ExtractSlice extracts the voxel-resolution slice at position along axis.
// Slices along x span (y, z), along y span (x, z), and along z span (x, y).
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	a, err := sliceAxis(axis)
	if err != nil {
		return nil, err
	}
	size := v.img.Size()
	if position < 0 || position >= size[a] {
		return nil, fmt.Errorf("position %d outside [0, %d) along %s", position, size[a], axis)
	}

	var out *image.Gray16
	switch a {
	case 0:
		out = image.NewGray16(image.Rect(0, 0, size[1], size[2]))
		for z := 0; z < size[2]; z++ {
			for y := 0; y < size[1]; y++ {
				out.SetGray16(y, z, v.gray(v.img.At(position, y, z)))
			}
		}
	case 1:
		out = image.NewGray16(image.Rect(0, 0, size[0], size[2]))
		for z := 0; z < size[2]; z++ {
			for x := 0; x < size[0]; x++ {
				out.SetGray16(x, z, v.gray(v.img.At(x, position, z)))
			}
		}
	default:
		out = image.NewGray16(image.Rect(0, 0, size[0], size[1]))
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				out.SetGray16(x, y, v.gray(v.img.At(x, y, position)))
			}
		}
	}
	return out, nil
}

// Preview extracts a slice and stretches it so one pixel covers the same
// physical distance on both image axes. Anisotropic volumes such as
// 0.5x0.5x3 mm scans would otherwise look squashed.
func (v *Viewer) Preview(axis string, position int) (image.Image, error) {
	slice, err := v.ExtractSlice(axis, position)
	if err != nil {
		return nil, err
	}

	a, _ := sliceAxis(axis)
	spacing := v.img.Spacing()
	var su, sv float64
	switch a {
	case 0:
		su, sv = spacing[1], spacing[2]
	case 1:
		su, sv = spacing[0], spacing[2]
	default:
		su, sv = spacing[0], spacing[1]
	}

	// the finer spacing sets the pixel size
	pixel := math.Min(su, sv)
	b := slice.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*su/pixel)))
	h := max(1, int(math.Round(float64(b.Dy())*sv/pixel)))
	if w == b.Dx() && h == b.Dy() {
		return slice, nil
	}
	return imaging.Resize(slice, w, h, imaging.Linear), nil
}

// SaveSlice writes a rendered slice; the format follows the file extension.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

// SaveSliceSequence writes a physical-aspect preview of every slice along axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	a, err := sliceAxis(axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < v.img.Size()[a]; pos++ {
		img, err := v.Preview(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return fmt.Errorf("failed to save %s: %w", filename, err)
		}
	}

	return nil
}
