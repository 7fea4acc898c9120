// Package volume provides the 3D image handle shared by every preprocessing
// utility: voxel data plus the physical geometry (size, spacing, origin and
// direction) needed to map voxel indices into patient space.
package volume

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidImage is returned when an image handle does not describe a usable 3D volume.
var ErrInvalidImage = errors.New("invalid volume")

// PixelType identifies the voxel representation of an image.
type PixelType int

const (
	// Unknown is the zero value; filters treat it as "keep the input pixel type".
	Unknown PixelType = iota
	UInt8
	Int16
	UInt16
	Int32
	Float32
	Float64
)

func (p PixelType) String() string {
	switch p {
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// IsInteger reports whether voxels of this type are stored as integers
func (p PixelType) IsInteger() bool {
	switch p {
	case UInt8, Int16, UInt16, Int32:
		return true
	}
	return false
}

// Convert maps v onto the value range of the pixel type. Integer types are
// rounded to nearest and clamped; Float32 loses precision the way a float32
// buffer would.
func (p PixelType) Convert(v float64) float64 {
	switch p {
	case UInt8:
		return clampRound(v, 0, math.MaxUint8)
	case Int16:
		return clampRound(v, math.MinInt16, math.MaxInt16)
	case UInt16:
		return clampRound(v, 0, math.MaxUint16)
	case Int32:
		return clampRound(v, math.MinInt32, math.MaxInt32)
	case Float32:
		return float64(float32(v))
	default:
		return v
	}
}

func clampRound(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, math.Round(v)))
}

// Image is a 3D volume. Voxels are stored x-fastest:
// index = x + y*nx + z*nx*ny.
type Image struct {
	size      [3]int
	spacing   [3]float64
	origin    [3]float64
	direction [9]float64
	pixel     PixelType
	data      []float64
}

// IdentityDirection is the row-major 3x3 identity direction cosine matrix.
var IdentityDirection = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

// New creates a zero-filled image with unit spacing, zero origin and identity direction.
func New(size [3]int, pixel PixelType) *Image {
	n := 1
	for _, s := range size {
		n *= max(0, s)
	}
	return &Image{
		size:      size,
		spacing:   [3]float64{1, 1, 1},
		direction: IdentityDirection,
		pixel:     pixel,
		data:      make([]float64, n),
	}
}

// FromData wraps an existing voxel buffer. The buffer is not copied.
func FromData(size [3]int, pixel PixelType, data []float64) (*Image, error) {
	img := &Image{
		size:      size,
		spacing:   [3]float64{1, 1, 1},
		direction: IdentityDirection,
		pixel:     pixel,
		data:      data,
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks that the handle describes a well-formed 3D volume
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	n := 1
	for i, s := range img.size {
		if s <= 0 {
			return fmt.Errorf("%w: size along axis %d is %d", ErrInvalidImage, i, s)
		}
		n *= s
	}
	if len(img.data) != n {
		return fmt.Errorf("%w: %d voxels for size %v", ErrInvalidImage, len(img.data), img.size)
	}
	for i, sp := range img.spacing {
		if !(sp > 0) || math.IsInf(sp, 0) {
			return fmt.Errorf("%w: spacing along axis %d is %g", ErrInvalidImage, i, sp)
		}
	}
	if img.pixel == Unknown {
		return fmt.Errorf("%w: unknown pixel type", ErrInvalidImage)
	}
	for i, o := range img.origin {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return fmt.Errorf("%w: origin along axis %d is %g", ErrInvalidImage, i, o)
		}
	}
	for i, d := range img.direction {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: direction entry %d is %g", ErrInvalidImage, i, d)
		}
	}
	det := mat.Det(mat.NewDense(3, 3, img.direction[:]))
	if math.IsNaN(det) || math.IsInf(det, 0) || math.Abs(det) < 1e-12 {
		return fmt.Errorf("%w: direction matrix is singular", ErrInvalidImage)
	}
	return nil
}

// Size returns the voxel count along x, y and z.
func (img *Image) Size() [3]int { return img.size }

// Spacing returns the physical distance between voxel centres along each axis.
func (img *Image) Spacing() [3]float64 { return img.spacing }

// Origin returns the physical position of voxel (0, 0, 0).
func (img *Image) Origin() [3]float64 { return img.origin }

// Direction returns the row-major direction cosine matrix.
func (img *Image) Direction() [9]float64 { return img.direction }

// PixelType returns the voxel representation.
func (img *Image) PixelType() PixelType { return img.pixel }

// Data returns the underlying voxel buffer.
func (img *Image) Data() []float64 { return img.data }

// Len returns the number of voxels.
func (img *Image) Len() int { return len(img.data) }

// SetSpacing replaces the voxel spacing.
func (img *Image) SetSpacing(spacing [3]float64) { img.spacing = spacing }

// SetOrigin replaces the physical origin.
func (img *Image) SetOrigin(origin [3]float64) { img.origin = origin }

// SetDirection replaces the direction cosine matrix.
func (img *Image) SetDirection(direction [9]float64) { img.direction = direction }

// Offset returns the flat buffer position of voxel (x, y, z)
func (img *Image) Offset(x, y, z int) int {
	return x + img.size[0]*(y+img.size[1]*z)
}

// At returns the voxel value at (x, y, z)
func (img *Image) At(x, y, z int) float64 {
	return img.data[img.Offset(x, y, z)]
}

// Set stores v at (x, y, z), converted to the image's pixel type
func (img *Image) Set(x, y, z int, v float64) {
	img.data[img.Offset(x, y, z)] = img.pixel.Convert(v)
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	out := *img
	out.data = append([]float64(nil), img.data...)
	return &out
}

// CopyInformation copies spacing, origin and direction from src. Both images
// must have the same size.
func (img *Image) CopyInformation(src *Image) error {
	if img.size != src.size {
		return fmt.Errorf("cannot copy information from size %v onto size %v", src.size, img.size)
	}
	img.spacing = src.spacing
	img.origin = src.origin
	img.direction = src.direction
	return nil
}

// SameGeometry reports whether a and b share size, spacing, origin and direction exactly.
func SameGeometry(a, b *Image) bool {
	return a.size == b.size && a.spacing == b.spacing &&
		a.origin == b.origin && a.direction == b.direction
}

// Cast returns a copy of img with voxels converted to pixel.
func Cast(img *Image, pixel PixelType) *Image {
	out := img.Clone()
	out.pixel = pixel
	for i, v := range out.data {
		out.data[i] = pixel.Convert(v)
	}
	return out
}

// MinMax returns the smallest and largest voxel value
func (img *Image) MinMax() (lo, hi float64) {
	if len(img.data) == 0 {
		return 0, 0
	}
	lo, hi = img.data[0], img.data[0]
	for _, v := range img.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// PhysicalCenter returns the physical position of the geometric centre of the voxel grid.
func (img *Image) PhysicalCenter() [3]float64 {
	var ci [3]float64
	for i, s := range img.size {
		ci[i] = float64(s-1) / 2
	}
	return img.IndexToPhysical(ci)
}

// IndexToPhysical maps a continuous index to a physical point:
// p = origin + D * diag(spacing) * index.
func (img *Image) IndexToPhysical(ci [3]float64) [3]float64 {
	var p [3]float64
	d := img.direction
	for r := 0; r < 3; r++ {
		p[r] = img.origin[r]
		for c := 0; c < 3; c++ {
			p[r] += d[3*r+c] * img.spacing[c] * ci[c]
		}
	}
	return p
}
