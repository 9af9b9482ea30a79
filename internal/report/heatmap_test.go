package report

import (
	"strings"
	"testing"

	"invrep/internal/inventory"
)

func carbonDataset() *inventory.Dataset {
	// 6" STD and 2" STD rows; the 2" cell is oversold.
	return &inventory.Dataset{
		Stock: []inventory.Row{
			{Specification: "CS SMP 106B", OD: 168.3, WT: 7.11, MT: 40},
			{Specification: "CS SMP 106B", OD: 60.3, WT: 3.91, MT: 10},
			{Specification: "SS SMP 304", OD: 168.3, WT: 7.11, MT: 12},
		},
		Reservations: []inventory.Row{
			{Specification: "CS SMP 106B", OD: 60.3, WT: 3.91, MT: 15},
		},
		Incoming: []inventory.Row{
			{Specification: "CS SMP 106B", OD: 168.3, WT: 7.11, MT: 5},
		},
	}
}

func TestBuildHeatmapCarbonPivot(t *testing.T) {
	t.Parallel()

	ds := carbonDataset()
	cells := inventory.FreeForSaleCells(ds)

	h, err := BuildHeatmap(ds, cells, "CS SMP 106B", nil)
	if err != nil {
		t.Fatal(err)
	}

	if h.Grade != inventory.GradeCSAS {
		t.Errorf("grade = %q, want %q", h.Grade, inventory.GradeCSAS)
	}
	wantCols := []string{"STD", "Total"}
	if len(h.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", h.Columns, wantCols)
	}
	for i := range wantCols {
		if h.Columns[i] != wantCols[i] {
			t.Fatalf("columns = %v, want %v", h.Columns, wantCols)
		}
	}

	wantRows := []string{`* 2"`, `* 6"`, "Total"}
	if len(h.RowLabels) != len(wantRows) {
		t.Fatalf("rows = %v, want %v", h.RowLabels, wantRows)
	}
	for i := range wantRows {
		if h.RowLabels[i] != wantRows[i] {
			t.Fatalf("rows = %v, want %v", h.RowLabels, wantRows)
		}
	}

	want := [][]float64{
		{-5, -5},
		{45, 45},
		{40, 40},
	}
	for i := range want {
		for j := range want[i] {
			if h.Values[i][j] != want[i][j] {
				t.Errorf("value[%d][%d] = %v, want %v", i, j, h.Values[i][j], want[i][j])
			}
		}
	}

	if h.PosMin != 45 || h.PosMax != 45 {
		t.Errorf("color anchors = (%v, %v), want (45, 45)", h.PosMin, h.PosMax)
	}

	m := h.Metrics
	if m.Stock != 50 || m.Reservation != 15 || m.Incoming != 5 || m.FreeForSale != 40 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestBuildHeatmapUnknownSpec(t *testing.T) {
	t.Parallel()

	ds := carbonDataset()
	cells := inventory.FreeForSaleCells(ds)
	if _, err := BuildHeatmap(ds, cells, "NO SUCH SPEC", nil); err == nil {
		t.Fatal("want error for spec with no cells")
	}
}

func TestBuildHeatmapTrimsSpec(t *testing.T) {
	t.Parallel()

	ds := carbonDataset()
	cells := inventory.FreeForSaleCells(ds)
	h, err := BuildHeatmap(ds, cells, "  CS SMP 106B  ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Specification != "CS SMP 106B" {
		t.Errorf("specification = %q", h.Specification)
	}
}

func TestBuildHeatmapUnknownGradeFallsBackToObservedAxis(t *testing.T) {
	t.Parallel()

	// A name with no recognizable family sorts its observed schedules.
	ds := &inventory.Dataset{
		Stock: []inventory.Row{
			{Specification: "XYZ 123", OD: 168.3, WT: 7.11, MT: 10},
		},
	}
	cells := inventory.FreeForSaleCells(ds)
	h, err := BuildHeatmap(ds, cells, "XYZ 123", nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Grade != inventory.GradeUnknown {
		t.Errorf("grade = %q, want %q", h.Grade, inventory.GradeUnknown)
	}
	if len(h.Columns) != 2 || h.Columns[1] != "Total" {
		t.Errorf("columns = %v", h.Columns)
	}
}

func TestBuildHeatmapMappingOverridesPattern(t *testing.T) {
	t.Parallel()

	ds := &inventory.Dataset{
		Stock: []inventory.Row{
			{Specification: "XYZ 123", OD: 168.3, WT: 7.11, MT: 10},
		},
	}
	mapping := inventory.Mapping{"XYZ 123": "CS"}
	cells := inventory.FreeForSaleCells(ds)
	h, err := BuildHeatmap(ds, cells, "XYZ 123", mapping)
	if err != nil {
		t.Fatal(err)
	}
	if h.Grade != inventory.GradeCSAS {
		t.Errorf("grade = %q, want %q", h.Grade, inventory.GradeCSAS)
	}
	if !strings.HasPrefix(h.RowLabels[0], "* ") {
		t.Errorf("row label %q missing highlight marker", h.RowLabels[0])
	}
}

func TestBuildHeatmapDropsZeroRows(t *testing.T) {
	t.Parallel()

	// Stock fully reserved at 2": that row nets to zero and drops out.
	ds := &inventory.Dataset{
		Stock: []inventory.Row{
			{Specification: "CS SMP 106B", OD: 60.3, WT: 3.91, MT: 15},
			{Specification: "CS SMP 106B", OD: 168.3, WT: 7.11, MT: 40},
		},
		Reservations: []inventory.Row{
			{Specification: "CS SMP 106B", OD: 60.3, WT: 3.91, MT: 15},
		},
	}
	cells := inventory.FreeForSaleCells(ds)
	h, err := BuildHeatmap(ds, cells, "CS SMP 106B", nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, label := range h.RowLabels {
		if strings.Contains(label, `2"`) {
			t.Errorf("zero row %q not dropped", label)
		}
	}
}
