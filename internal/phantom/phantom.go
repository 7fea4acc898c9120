// Package phantom builds synthetic volumes for demos and tests.
package phantom

import (
	"math"

	"medproio/pkg/volume"
)

// Geometry describes the voxel grid of a phantom.
type Geometry struct {
	Size    [3]int
	Spacing [3]float64
	Origin  [3]float64
}

func (g Geometry) newImage(pixel volume.PixelType) *volume.Image {
	img := volume.New(g.Size, pixel)
	img.SetSpacing(g.Spacing)
	img.SetOrigin(g.Origin)
	return img
}

// physical returns the physical position of a voxel relative to the grid centre.
func (g Geometry) physical(x, y, z int) (float64, float64, float64) {
	return (float64(x) - float64(g.Size[0]-1)/2) * g.Spacing[0],
		(float64(y) - float64(g.Size[1]-1)/2) * g.Spacing[1],
		(float64(z) - float64(g.Size[2]-1)/2) * g.Spacing[2]
}

// Head returns a continuous-intensity phantom: a bright ellipsoid with a
// darker core on a faint background ramp. shift moves the anatomy in mm.
// Values never collapse onto {0, 1, 2}, so it is never classed as a mask.
func Head(g Geometry, shift [3]float64) *volume.Image {
	img := g.newImage(volume.Float32)
	ext := [3]float64{
		float64(g.Size[0]) * g.Spacing[0] / 3,
		float64(g.Size[1]) * g.Spacing[1] / 3,
		float64(g.Size[2]) * g.Spacing[2] / 3,
	}

	for z := 0; z < g.Size[2]; z++ {
		for y := 0; y < g.Size[1]; y++ {
			for x := 0; x < g.Size[0]; x++ {
				px, py, pz := g.physical(x, y, z)
				dx := (px - shift[0]) / ext[0]
				dy := (py - shift[1]) / ext[1]
				dz := (pz - shift[2]) / ext[2]
				r := math.Sqrt(dx*dx + dy*dy + dz*dz)

				v := 10 + 5*float64(y)/float64(g.Size[1])
				if r < 1 {
					v += 400 * (1 - r*r)
				}
				if r < 0.4 {
					v -= 150
				}
				img.Set(x, y, z, v)
			}
		}
	}
	return img
}

// Labels returns a label phantom over the same anatomy as Head: 0 outside,
// 1 inside the ellipsoid and 2 in the core.
func Labels(g Geometry, shift [3]float64) *volume.Image {
	img := g.newImage(volume.UInt8)
	ext := [3]float64{
		float64(g.Size[0]) * g.Spacing[0] / 3,
		float64(g.Size[1]) * g.Spacing[1] / 3,
		float64(g.Size[2]) * g.Spacing[2] / 3,
	}

	for z := 0; z < g.Size[2]; z++ {
		for y := 0; y < g.Size[1]; y++ {
			for x := 0; x < g.Size[0]; x++ {
				px, py, pz := g.physical(x, y, z)
				dx := (px - shift[0]) / ext[0]
				dy := (py - shift[1]) / ext[1]
				dz := (pz - shift[2]) / ext[2]
				r := math.Sqrt(dx*dx + dy*dy + dz*dz)

				switch {
				case r < 0.4:
					img.Set(x, y, z, 2)
				case r < 1:
					img.Set(x, y, z, 1)
				}
			}
		}
	}
	return img
}
