package montecarlo

import "sort"

// searchRedwardLine returns the smallest index i with nu[i] <= nuComov.
// The line list is sorted blue to red (strictly decreasing), so the
// returned index is the next line the packet will redshift into as it
// propagates. Returns len(nu) when nuComov lies redward of the entire
// list.
func searchRedwardLine(nu []float64, nuComov float64) int {
	return sort.Search(len(nu), func(i int) bool { return nu[i] <= nuComov })
}
