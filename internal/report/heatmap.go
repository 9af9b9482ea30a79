package report

import (
	"fmt"
	"math"
	"strings"

	"invrep/internal/inventory"
)

// Metrics are the per-spec summary figures shown under each heatmap.
type Metrics struct {
	Stock       float64
	Reservation float64
	Incoming    float64
	FreeForSale float64
}

// Heatmap is the pivot of free-for-sale tonnage for one specification:
// OD categories down, WT schedules across, with a trailing Total row and
// column. Values are rounded to 2 decimals.
type Heatmap struct {
	Specification string
	Grade         string

	// RowLabels carry a "* " prefix on the key OD sizes. The last entry is
	// "Total"; same for Columns.
	RowLabels []string
	Columns   []string
	Values    [][]float64

	// PosMin/PosMax span the positive non-total cells and anchor the green
	// color scale. Both zero when no positive cell exists.
	PosMin, PosMax float64

	Metrics Metrics
}

const totalLabel = "Total"

var highlightSet = func() map[string]bool {
	m := make(map[string]bool, len(inventory.HighlightODs))
	for _, od := range inventory.HighlightODs {
		m[od] = true
	}
	return m
}()

// BuildHeatmap pivots the free-for-sale cells of one specification.
// The cells slice is the full dataset's output of inventory.FreeForSaleCells;
// filtering happens here so callers compute it once for all specs.
func BuildHeatmap(ds *inventory.Dataset, cells []inventory.Cell, spec string, mapping inventory.Mapping) (*Heatmap, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("specification cannot be empty")
	}

	var mine []inventory.Cell
	for _, c := range cells {
		if strings.TrimSpace(c.Specification) == spec {
			mine = append(mine, c)
		}
	}
	if len(mine) == 0 {
		return nil, fmt.Errorf("no data found for specification %s", spec)
	}

	grade := inventory.DeriveGrade(spec, mapping, true)

	// Categorize and accumulate into the pivot.
	type key struct{ od, wt string }
	sums := make(map[key]float64)
	observed := make(map[string]bool)
	for _, c := range mine {
		odCat := inventory.CategorizeOD(c.OD, grade)
		wtCat := inventory.CategorizeWT(c.OD, c.WT, grade)
		sums[key{odCat, wtCat}] += c.MT
		observed[wtCat] = true
	}

	// Column axis: the family's fixed order filtered to observed schedules;
	// unknown families fall back to the observed set, sorted.
	var cols []string
	for _, s := range inventory.WTOrderFor(grade) {
		if observed[s] {
			cols = append(cols, s)
		}
	}
	if len(cols) == 0 {
		cols = inventory.SortedSchedules(observed)
	}

	// Rows: fixed OD order, all-zero rows dropped.
	var rowLabels []string
	var values [][]float64
	for _, od := range inventory.ODOrder {
		row := make([]float64, len(cols)+1)
		nonZero := false
		var total float64
		for j, wt := range cols {
			v := round2(sums[key{od, wt}])
			row[j] = v
			total += v
			if v != 0 {
				nonZero = true
			}
		}
		if !nonZero {
			continue
		}
		row[len(cols)] = round2(total)
		label := od
		if highlightSet[od] {
			label = "* " + od
		}
		rowLabels = append(rowLabels, label)
		values = append(values, row)
	}
	if len(rowLabels) == 0 {
		return nil, fmt.Errorf("pivot for %s is empty after dropping zero rows", spec)
	}

	// Column totals.
	totals := make([]float64, len(cols)+1)
	for _, row := range values {
		for j, v := range row {
			totals[j] += v
		}
	}
	for j := range totals {
		totals[j] = round2(totals[j])
	}
	rowLabels = append(rowLabels, totalLabel)
	values = append(values, totals)

	// Color-scale anchors over positive non-total cells.
	posMin, posMax := math.Inf(1), math.Inf(-1)
	for i := 0; i < len(values)-1; i++ {
		for j := 0; j < len(cols); j++ {
			if v := values[i][j]; v > 0 {
				posMin = math.Min(posMin, v)
				posMax = math.Max(posMax, v)
			}
		}
	}
	if math.IsInf(posMin, 1) {
		posMin, posMax = 0, 0
	}

	ffs := 0.0
	for _, c := range mine {
		ffs += c.MT
	}
	t := inventory.TotalsFor(ds, spec)

	return &Heatmap{
		Specification: spec,
		Grade:         grade,
		RowLabels:     rowLabels,
		Columns:       append(append([]string(nil), cols...), totalLabel),
		Values:        values,
		PosMin:        posMin,
		PosMax:        posMax,
		Metrics: Metrics{
			Stock:       t.Stock,
			Reservation: t.Reservation,
			Incoming:    t.Incoming,
			FreeForSale: round2(ffs),
		},
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
