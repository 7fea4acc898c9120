package volume

// IsBinaryMask reports whether img holds discrete labels rather than
// continuous intensities: every voxel lies in {0, 1}, or every voxel lies in
// {0, 1, 2}. The whole buffer is scanned on every call.
func IsBinaryMask(img *Image) bool {
	return allIn(img.data, 0, 1) || allIn(img.data, 0, 1, 2)
}

func allIn(data []float64, labels ...float64) bool {
	for _, v := range data {
		found := false
		for _, l := range labels {
			if v == l {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
