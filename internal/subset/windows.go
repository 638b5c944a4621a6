package subset

import "sort"

// bisectLeft returns the leftmost insertion point for x in the ascending
// slice a.
func bisectLeft(a []float64, x float64) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// bisectRight returns the rightmost insertion point for x in the ascending
// slice a.
func bisectRight(a []float64, x float64) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > x })
}

// timeWindow computes the half-open index window on the time axis: right
// insertion of the range start, left insertion of the range end. A
// single-sample axis always yields [0, 1) regardless of the requested range.
func timeWindow(axis []float64, start, end float64) (int, int) {
	if len(axis) <= 1 {
		return 0, 1
	}
	return bisectRight(axis, start), bisectLeft(axis, end)
}

// spatialWindow computes the half-open index window on an ascending spatial
// axis: right insertion points of both bounds.
func spatialWindow(axis []float64, min, max float64) (int, int) {
	return bisectRight(axis, min), bisectRight(axis, max)
}
