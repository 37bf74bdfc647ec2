package seo

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// median returns the 0.5 empirical quantile of data. gonum's Quantile
// requires sorted input; the caller's slice is never mutated.
func median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
