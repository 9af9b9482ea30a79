// Package report turns a preprocessed inventory dataset into the weekly
// deliverables: the priority items table, per-spec heatmaps and the PDF.
package report

import (
	"math"
	"sort"

	"invrep/internal/inventory"
)

// PriorityItem is one row of the email's priority table.
type PriorityItem struct {
	Specification string
	FreeForSaleMT float64
}

// PriorityItems aggregates free-for-sale tonnage per specification, keeps
// items at or above threshold, and returns the top limit items sorted by
// tonnage descending. An empty result is valid (nothing above threshold).
func PriorityItems(ds *inventory.Dataset, threshold float64, limit int) []PriorityItem {
	totals := inventory.TotalsBySpec(ds)

	items := make([]PriorityItem, 0, len(totals))
	for spec, t := range totals {
		ffs := math.Round(t.FreeForSale()*100) / 100
		if ffs >= threshold {
			items = append(items, PriorityItem{Specification: spec, FreeForSaleMT: ffs})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].FreeForSaleMT != items[j].FreeForSaleMT {
			return items[i].FreeForSaleMT > items[j].FreeForSaleMT
		}
		return items[i].Specification < items[j].Specification
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
