package inventory

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	logx "invrep/pkg/logx"
)

// writeTestWorkbook builds a minimal inventory workbook: banner row, header
// on the second row, then data. The Incoming sheet carries duplicate MT
// columns like the real export does.
func writeTestWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	put := func(sheet string, rows [][]any) {
		t.Helper()
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet(%s): %v", sheet, err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				t.Fatalf("SetSheetRow(%s): %v", sheet, err)
			}
		}
	}

	put(SheetStock, [][]any{
		{"Inventory Export"},
		{"Specification", "OD", "WT", "MT", "Make", "Addl.Spec"},
		{"CSSMP106B", 60.3, 3.91, 100.0, "MakerA", "NACE"},
		{"CSSMP106B", 114.3, 6.02, 40.0, "MakerB", ""},
		{"  ASSMPP11 ", 60.3, 5.54, 25.5, "MakerA", ""},
		{"nan", 10.0, 1.0, 7.0, "", ""},
	})
	put(SheetReservations, [][]any{
		{"Inventory Export"},
		{"Specification", "OD", "WT", "MT"},
		{"CSSMP106B", 60.3, 3.91, 30.0},
	})
	put(SheetIncoming, [][]any{
		{"Inventory Export"},
		{"Specification", "OD", "WT", "MT", "MT"},
		{"CSSMP106B", 60.3, 3.91, 999.0, 12.5},
	})
	_ = f.DeleteSheet("Sheet1")

	path := filepath.Join(t.TempDir(), "inventory.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestLoadWorkbook(t *testing.T) {
	t.Parallel()

	path := writeTestWorkbook(t)
	ds, err := Load(path, nil, logx.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(ds.Stock) != 4 {
		t.Fatalf("stock rows = %d, want 4", len(ds.Stock))
	}
	r := ds.Stock[0]
	if r.Specification != "CSSMP106B" || r.OD != 60.3 || r.WT != 3.91 || r.MT != 100 {
		t.Fatalf("stock row 0 = %+v", r)
	}
	if r.Grade != "CS" {
		t.Fatalf("derived grade = %q, want CS", r.Grade)
	}
	if r.AddSpec != "NACE" {
		t.Fatalf("add-spec = %q, want NACE (AddlSpec alias)", r.AddSpec)
	}

	// Spec values are trimmed; literal "nan" becomes empty.
	if ds.Stock[2].Specification != "ASSMPP11" {
		t.Fatalf("spec not trimmed: %q", ds.Stock[2].Specification)
	}
	if ds.Stock[3].Specification != "" {
		t.Fatalf("nan spec = %q, want empty", ds.Stock[3].Specification)
	}

	// Incoming: the second MT column wins.
	if len(ds.Incoming) != 1 || ds.Incoming[0].MT != 12.5 {
		t.Fatalf("incoming = %+v, want MT 12.5 from second column", ds.Incoming)
	}
}

func TestLoadMissingSheetFails(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	if _, err := f.NewSheet(SheetStock); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	_ = f.DeleteSheet("Sheet1")
	path := filepath.Join(t.TempDir(), "partial.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	if _, err := Load(path, nil, logx.Nop()); err == nil {
		t.Fatalf("Load succeeded, want missing-sheet error")
	}
}

func TestParseFloatHandling(t *testing.T) {
	t.Parallel()

	if v := parseFloatOrNaN("  1,234.5 "); v != 1234.5 {
		t.Fatalf("parseFloatOrNaN = %v, want 1234.5", v)
	}
	if v := parseFloatOrNaN("n/a"); !math.IsNaN(v) {
		t.Fatalf("parseFloatOrNaN(n/a) = %v, want NaN", v)
	}
	if v := parseFloatOrZero(""); v != 0 {
		t.Fatalf("parseFloatOrZero(empty) = %v, want 0", v)
	}
}

func TestStandardizeColumn(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{" Specification ", "Specification"},
		{"Addl.Spec", "AddlSpec"},
		{"Add Spec", "Add_Spec"},
		{"Add-Spec", "Add_Spec"},
	}
	for _, tc := range cases {
		if got := standardizeColumn(tc.in); got != tc.want {
			t.Fatalf("standardizeColumn(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
