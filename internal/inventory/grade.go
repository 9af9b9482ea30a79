package inventory

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grade families.
const (
	GradeCSAS    = "CS & AS"
	GradeSS      = "SS"
	GradeIS      = "IS"
	GradeTubes   = "Tubes"
	GradeUnknown = "Unknown"
)

// Mapping maps a specification name to its grade type (e.g. "CSSMP106B" ->
// "CS"). Loaded from the optional mapping workbook; nil means pattern-based
// derivation only.
type Mapping map[string]string

// LoadMapping reads the spec-to-grade mapping workbook. The file carries two
// columns, "Specification" and "Grade Type", with a plain first-row header.
func LoadMapping(path string) (Mapping, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("mapping workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return Mapping{}, nil
	}

	specCol, gradeCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case "Specification":
			specCol = i
		case "Grade Type":
			gradeCol = i
		}
	}
	if specCol < 0 || gradeCol < 0 {
		return nil, fmt.Errorf("mapping workbook %s: Specification / Grade Type columns not found", path)
	}

	m := make(Mapping, len(rows)-1)
	for _, r := range rows[1:] {
		spec := strings.TrimSpace(cellAt(r, specCol))
		grade := strings.TrimSpace(cellAt(r, gradeCol))
		if spec != "" && grade != "" {
			m[spec] = grade
		}
	}
	return m, nil
}

// DeriveGrade resolves the grade type for a specification. The explicit
// mapping wins; otherwise the name's prefix and embedded markers decide.
// With combine set, AS and CS collapse into "CS & AS" and TUBES into "Tubes"
// (the grouping the heatmaps use).
func DeriveGrade(spec string, m Mapping, combine bool) string {
	s := strings.TrimSpace(spec)
	if s == "" {
		return GradeUnknown
	}

	if g, ok := m[s]; ok {
		if combine {
			switch g {
			case "AS", "CS":
				return GradeCSAS
			case "TUBES":
				return GradeTubes
			}
		}
		return g
	}

	u := strings.ToUpper(s)

	// Embedded IS marker (e.g. CSEWPIS1239PT1).
	if strings.Contains(u, "IS") && !strings.HasPrefix(u, "IS") {
		return GradeIS
	}

	// Embedded tube marker (e.g. CSSMT2391ST52).
	if strings.Contains(u, "T") && !strings.HasPrefix(u, "T") {
		for _, p := range []string{"TUBE", "TUB", "ST52", "ST42"} {
			if strings.Contains(u, p) {
				return GradeTubes
			}
		}
	}

	switch {
	case strings.HasPrefix(u, "AS"):
		if combine {
			return GradeCSAS
		}
		return "AS"
	case strings.HasPrefix(u, "CS"):
		if combine {
			return GradeCSAS
		}
		return "CS"
	case strings.HasPrefix(u, "SS"):
		return GradeSS
	case strings.HasPrefix(u, "IS"):
		return GradeIS
	case strings.HasPrefix(u, "T"):
		return GradeTubes
	}
	return GradeUnknown
}
