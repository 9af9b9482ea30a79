package inventory

import "math"

// Sheet names required in every inventory workbook.
const (
	SheetStock        = "Stock"
	SheetReservations = "Reservations"
	SheetIncoming     = "Incoming"
)

// Row is one preprocessed inventory line. OD and WT are NaN when the source
// cell was blank or non-numeric; MT coerces to 0 instead so aggregation
// never has to branch.
type Row struct {
	Specification string
	OD            float64
	WT            float64
	MT            float64
	Make          string
	Grade         string
	AddSpec       string
}

// Dataset holds the three preprocessed sheets of one workbook.
type Dataset struct {
	Stock        []Row
	Reservations []Row
	Incoming     []Row
}

// SpecTotals are per-specification tonnage sums across the three sheets.
type SpecTotals struct {
	Stock       float64
	Reservation float64
	Incoming    float64
}

// FreeForSale is Stock + Incoming - Reservation.
func (t SpecTotals) FreeForSale() float64 {
	return t.Stock + t.Incoming - t.Reservation
}

// Cell is a free-for-sale quantity at one (Specification, OD, WT) point.
type Cell struct {
	Specification string
	OD            float64
	WT            float64
	MT            float64
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*1000) / 1000
}
