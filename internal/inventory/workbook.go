package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	logx "invrep/pkg/logx"
)

// headerRowIndex is fixed: every sheet carries a banner row above the real
// header, so the header is the second spreadsheet row.
const headerRowIndex = 1

// Load opens the workbook at path and preprocesses the three inventory
// sheets. All required sheets must exist; an empty Reservations or Incoming
// sheet is tolerated (zeros), an empty Stock sheet is the caller's problem
// to reject.
func Load(path string, mapping Mapping, log logx.Logger) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	have := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		have[name] = true
	}
	var missing []string
	for _, name := range []string{SheetStock, SheetIncoming, SheetReservations} {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("workbook %s: missing required sheets: %s", path, strings.Join(missing, ", "))
	}

	ds := &Dataset{}
	for _, s := range []struct {
		name string
		dst  *[]Row
	}{
		{SheetStock, &ds.Stock},
		{SheetReservations, &ds.Reservations},
		{SheetIncoming, &ds.Incoming},
	} {
		rows, err := parseSheet(f, s.name, mapping, log)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
		*s.dst = rows
		log.Debug("sheet preprocessed", logx.String("sheet", s.name), logx.Int("rows", len(rows)))
	}
	return ds, nil
}

// standardizeColumn mirrors the dashboard's column normalization: trim, then
// spaces and dashes to underscores, periods removed.
func standardizeColumn(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

type columnIndex struct {
	spec, od, wt, mt, make_, grade, addSpec int
}

func parseSheet(f *excelize.File, sheet string, mapping Mapping, log logx.Logger) ([]Row, error) {
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(raw) <= headerRowIndex {
		return nil, nil
	}

	header := raw[headerRowIndex]
	cols := columnIndex{spec: -1, od: -1, wt: -1, mt: -1, make_: -1, grade: -1, addSpec: -1}

	if sheet == SheetIncoming {
		cols.mt = incomingMTColumn(header, log)
	}

	for i, h := range header {
		switch std := standardizeColumn(h); {
		case std == "Specification":
			setIfUnset(&cols.spec, i)
		case std == "OD":
			setIfUnset(&cols.od, i)
		case std == "WT":
			setIfUnset(&cols.wt, i)
		case std == "MT" && sheet != SheetIncoming:
			setIfUnset(&cols.mt, i)
		case std == "Make":
			setIfUnset(&cols.make_, i)
		case std == "Grade":
			setIfUnset(&cols.grade, i)
		case isAddSpecColumn(std):
			setIfUnset(&cols.addSpec, i)
		}
	}

	out := make([]Row, 0, len(raw)-headerRowIndex-1)
	for _, cells := range raw[headerRowIndex+1:] {
		if rowEmpty(cells) {
			continue
		}
		r := Row{
			Specification: cleanSpec(cellAt(cells, cols.spec)),
			OD:            round3(parseFloatOrNaN(cellAt(cells, cols.od))),
			WT:            round3(parseFloatOrNaN(cellAt(cells, cols.wt))),
			MT:            parseFloatOrZero(cellAt(cells, cols.mt)),
			Make:          strings.TrimSpace(cellAt(cells, cols.make_)),
			Grade:         strings.TrimSpace(cellAt(cells, cols.grade)),
			AddSpec:       strings.TrimSpace(cellAt(cells, cols.addSpec)),
		}
		if r.Grade == "" {
			r.Grade = DeriveGrade(r.Specification, mapping, false)
		}
		out = append(out, r)
	}
	return out, nil
}

// incomingMTColumn picks the MT column for the Incoming sheet, which carries
// duplicate MT headers; the second one holds the true incoming tonnage.
func incomingMTColumn(header []string, log logx.Logger) int {
	var mtCols []int
	for i, h := range header {
		if strings.TrimSpace(h) == "MT" {
			mtCols = append(mtCols, i)
		}
	}
	switch {
	case len(mtCols) >= 2:
		return mtCols[1]
	case len(mtCols) == 1:
		log.Warn("incoming sheet has a single MT column; expected duplicates",
			logx.Int("columns", len(header)))
		return mtCols[0]
	default:
		log.Error("incoming sheet has no MT column; tonnage will read as 0",
			logx.Int("columns", len(header)))
		return -1
	}
}

func isAddSpecColumn(std string) bool {
	switch strings.ToLower(std) {
	case "add_spec", "addlspec", "addl_spec", "additional_spec":
		return true
	}
	return strings.Contains(strings.ToLower(std), "addlspec")
}

func setIfUnset(dst *int, v int) {
	if *dst < 0 {
		*dst = v
	}
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func rowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cleanSpec(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func parseFloatOrNaN(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseFloatOrZero(s string) float64 {
	v := parseFloatOrNaN(s)
	if math.IsNaN(v) {
		return 0
	}
	return v
}
