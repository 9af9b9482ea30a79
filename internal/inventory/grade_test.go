package inventory

import "testing"

func TestDeriveGrade(t *testing.T) {
	t.Parallel()

	mapping := Mapping{
		"CSSMP106B": "CS",
		"ASSMPP11":  "AS",
		"SSWLD316L": "SS",
		"TXCOLD1":   "TUBES",
	}

	cases := []struct {
		name    string
		spec    string
		combine bool
		want    string
	}{
		{"empty spec", "", false, "Unknown"},
		{"whitespace spec", "   ", true, "Unknown"},
		{"mapping hit plain", "CSSMP106B", false, "CS"},
		{"mapping hit combined cs", "CSSMP106B", true, "CS & AS"},
		{"mapping hit combined as", "ASSMPP11", true, "CS & AS"},
		{"mapping hit combined tubes", "TXCOLD1", true, "Tubes"},
		{"mapping hit ss unaffected by combine", "SSWLD316L", true, "SS"},
		{"embedded is marker", "CSEWPIS1239PT1", true, "IS"},
		{"embedded tube marker st52", "CSSMT2391ST52", true, "Tubes"},
		{"prefix as combined", "ASXYZ", true, "CS & AS"},
		{"prefix as plain", "ASXYZ", false, "AS"},
		{"prefix cs plain", "CSXYZ", false, "CS"},
		{"prefix ss", "SSXYZ", false, "SS"},
		{"prefix is", "ISXYZ", false, "IS"},
		{"prefix t", "TXYZ", false, "Tubes"},
		{"no pattern", "QQ123", true, "Unknown"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveGrade(tc.spec, mapping, tc.combine); got != tc.want {
				t.Fatalf("DeriveGrade(%q, combine=%v) = %q, want %q", tc.spec, tc.combine, got, tc.want)
			}
		})
	}
}

func TestDeriveGradeNilMapping(t *testing.T) {
	t.Parallel()
	if got := DeriveGrade("CSSMP106B", nil, true); got != "CS & AS" {
		t.Fatalf("DeriveGrade without mapping = %q, want pattern fallback CS & AS", got)
	}
}
