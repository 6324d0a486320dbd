// internal/draft/grid.go
package draft

import "sort"

// GridSlice names a row or column of the 3x3 grid.
type GridSlice int

const (
	GridRow0 GridSlice = iota
	GridRow1
	GridRow2
	GridCol0
	GridCol1
	GridCol2
)

// gridSlices maps each slice to its cell indices. Cells are numbered
// left to right, top to bottom:
//
//	0 1 2
//	3 4 5
//	6 7 8
var gridSlices = [...][3]int{
	GridRow0: {0, 1, 2},
	GridRow1: {3, 4, 5},
	GridRow2: {6, 7, 8},
	GridCol0: {0, 3, 6},
	GridCol1: {1, 4, 7},
	GridCol2: {2, 5, 8},
}

// GridAvailableSelections returns, for every slice that still has at least
// one unclaimed cell, the sorted indices of its unclaimed cells.
func GridAvailableSelections(unavailable []int) map[GridSlice][]int {
	claimed := make(map[int]bool, len(unavailable))
	for _, idx := range unavailable {
		claimed[idx] = true
	}

	out := make(map[GridSlice][]int)
	for slice, cells := range gridSlices {
		var remaining []int
		for _, c := range cells {
			if !claimed[c] {
				remaining = append(remaining, c)
			}
		}
		if len(remaining) > 0 {
			out[GridSlice(slice)] = remaining
		}
	}
	return out
}

// IsValidGridSelection reports whether indices claims exactly the unclaimed
// remainder of one row or column, given the already claimed cells.
func IsValidGridSelection(unavailable []int, indices []int) bool {
	if len(indices) == 0 || len(indices) > 3 {
		return false
	}

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	for i, idx := range sorted {
		if idx < 0 || idx >= GridPackSize {
			return false
		}
		if i > 0 && sorted[i-1] == idx {
			return false
		}
	}

	for _, remaining := range GridAvailableSelections(unavailable) {
		if equalInts(remaining, sorted) {
			return true
		}
	}
	return false
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
