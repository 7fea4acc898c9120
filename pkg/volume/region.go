package volume

import "fmt"

// ConstantPad grows img by before[i] voxels at the start and after[i] voxels
// at the end of each axis, filling new voxels with constant. The origin moves
// so that existing voxels keep their physical positions.
func ConstantPad(img *Image, before, after [3]int, constant float64) (*Image, error) {
	var size [3]int
	for i := range size {
		if before[i] < 0 || after[i] < 0 {
			return nil, fmt.Errorf("negative padding on axis %d: before=%d after=%d", i, before[i], after[i])
		}
		size[i] = img.size[i] + before[i] + after[i]
	}

	out := New(size, img.pixel)
	out.spacing = img.spacing
	out.direction = img.direction
	out.origin = img.IndexToPhysical([3]float64{
		-float64(before[0]), -float64(before[1]), -float64(before[2]),
	})

	fill := img.pixel.Convert(constant)
	for i := range out.data {
		out.data[i] = fill
	}

	nx, ny := img.size[0], img.size[1]
	for z := 0; z < img.size[2]; z++ {
		for y := 0; y < ny; y++ {
			src := img.Offset(0, y, z)
			dst := out.Offset(before[0], y+before[1], z+before[2])
			copy(out.data[dst:dst+nx], img.data[src:src+nx])
		}
	}
	return out, nil
}

// RegionOfInterest extracts the sub-volume of the given size starting at
// index. The region must lie inside img. The output origin is the physical
// position of index.
func RegionOfInterest(img *Image, index, size [3]int) (*Image, error) {
	for i := range size {
		if size[i] <= 0 || index[i] < 0 || index[i]+size[i] > img.size[i] {
			return nil, fmt.Errorf("region index %v size %v exceeds image size %v", index, size, img.size)
		}
	}

	out := New(size, img.pixel)
	out.spacing = img.spacing
	out.direction = img.direction
	out.origin = img.IndexToPhysical([3]float64{
		float64(index[0]), float64(index[1]), float64(index[2]),
	})

	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			src := img.Offset(index[0], y+index[1], z+index[2])
			dst := out.Offset(0, y, z)
			copy(out.data[dst:dst+size[0]], img.data[src:src+size[0]])
		}
	}
	return out, nil
}

// ResizeCanvas copies img into a zero-filled image of the given size,
// anchored at index 0 on every axis. Voxels beyond the new extent are
// dropped. Geometry other than size is taken from img.
func ResizeCanvas(img *Image, size [3]int) *Image {
	out := New(size, img.pixel)
	out.spacing = img.spacing
	out.origin = img.origin
	out.direction = img.direction

	var overlap [3]int
	for i := range overlap {
		overlap[i] = min(size[i], img.size[i])
	}
	for z := 0; z < overlap[2]; z++ {
		for y := 0; y < overlap[1]; y++ {
			src := img.Offset(0, y, z)
			dst := out.Offset(0, y, z)
			copy(out.data[dst:dst+overlap[0]], img.data[src:src+overlap[0]])
		}
	}
	return out
}
