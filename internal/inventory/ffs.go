package inventory

import "math"

// sizeKey groups cells by (spec, od, wt). NaN sizes collapse into a single
// bucket so blank OD/WT rows aggregate together instead of fragmenting.
type sizeKey struct {
	spec     string
	od, wt   float64
	sizeless bool
}

func keyFor(r Row) sizeKey {
	k := sizeKey{spec: r.Specification, od: r.OD, wt: r.WT}
	if math.IsNaN(r.OD) || math.IsNaN(r.WT) {
		k.od, k.wt = 0, 0
		k.sizeless = true
	}
	return k
}

// TotalsBySpec sums tonnage per specification across the three sheets.
// Rows with an empty specification are skipped.
func TotalsBySpec(ds *Dataset) map[string]SpecTotals {
	out := make(map[string]SpecTotals)
	add := func(rows []Row, pick func(*SpecTotals) *float64) {
		for _, r := range rows {
			if r.Specification == "" {
				continue
			}
			t := out[r.Specification]
			*pick(&t) += r.MT
			out[r.Specification] = t
		}
	}
	add(ds.Stock, func(t *SpecTotals) *float64 { return &t.Stock })
	add(ds.Reservations, func(t *SpecTotals) *float64 { return &t.Reservation })
	add(ds.Incoming, func(t *SpecTotals) *float64 { return &t.Incoming })
	return out
}

// FreeForSaleCells computes stock + incoming - reservation at each
// (Specification, OD, WT) point. These cells feed the per-spec heatmaps.
func FreeForSaleCells(ds *Dataset) []Cell {
	acc := make(map[sizeKey]float64)
	order := make([]sizeKey, 0, len(ds.Stock))
	bump := func(rows []Row, sign float64) {
		for _, r := range rows {
			if r.Specification == "" {
				continue
			}
			k := keyFor(r)
			if _, seen := acc[k]; !seen {
				order = append(order, k)
			}
			acc[k] += sign * r.MT
		}
	}
	bump(ds.Stock, 1)
	bump(ds.Incoming, 1)
	bump(ds.Reservations, -1)

	out := make([]Cell, 0, len(order))
	for _, k := range order {
		od, wt := k.od, k.wt
		if k.sizeless {
			od, wt = math.NaN(), math.NaN()
		}
		out = append(out, Cell{Specification: k.spec, OD: od, WT: wt, MT: acc[k]})
	}
	return out
}

// Totals for one specification, rounded for display.
func TotalsFor(ds *Dataset, spec string) SpecTotals {
	t := TotalsBySpec(ds)[spec]
	return SpecTotals{
		Stock:       round2(t.Stock),
		Reservation: round2(t.Reservation),
		Incoming:    round2(t.Incoming),
	}
}
