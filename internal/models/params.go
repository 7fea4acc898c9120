package models

import (
	"fmt"
	"math"
)

// Size3 is a target voxel count along x, y and z.
type Size3 [3]int

// Spacing3 is a target physical voxel spacing along x, y and z, in mm.
type Spacing3 [3]float64

var (
	// DefaultTargetSize is the crop/pad target used when none is configured.
	DefaultTargetSize = Size3{256, 256, 24}

	// DefaultTargetSpacing is the resampling target used when none is configured.
	DefaultTargetSpacing = Spacing3{0.5, 0.5, 3.0}
)

// Validate checks that every axis holds a positive voxel count
func (s Size3) Validate() error {
	for i, n := range s {
		if n <= 0 {
			return fmt.Errorf("target size axis %d must be positive, got %d", i, n)
		}
	}
	return nil
}

// Validate checks that every axis holds a positive, finite spacing
func (s Spacing3) Validate() error {
	for i, v := range s {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("target spacing axis %d must be positive and finite, got %g", i, v)
		}
	}
	return nil
}
