package mail

import (
	"strings"
	"testing"
	"time"

	"invrep/internal/report"
)

func TestSubject(t *testing.T) {
	t.Parallel()

	d := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)
	got := Subject(d)
	want := "Inventory Report – Priority Items (Data as of 25 Aug 2026)"
	if got != want {
		t.Errorf("subject = %q, want %q", got, want)
	}
}

func TestFormatMT(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-1234.5, "-1,234.50"},
		{999.999, "1,000.00"},
	}
	for _, tc := range cases {
		if got := FormatMT(tc.in); got != tc.want {
			t.Errorf("FormatMT(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBodyWithItems(t *testing.T) {
	t.Parallel()

	items := []report.PriorityItem{
		{Specification: "CS SMP 106B", FreeForSaleMT: 1250.5},
		{Specification: "AS SMP P11", FreeForSaleMT: 80},
	}
	d := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)
	body, err := Body(items, d, "https://erp.example.com/inventory", []string{"CS SMP 106B"})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Hi there,",
		"Inventory Report - Priority Items for Sales Focus",
		"25 Aug 2026",
		"CS SMP 106B",
		"1,250.50",
		"https://erp.example.com/inventory",
		"View Live Inventory in ERP",
		"Evergreen Analytics",
		"system-generated email",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "No priority items found") {
		t.Error("placeholder row should not render when items exist")
	}

	// Highest tonnage renders first.
	if strings.Index(body, "CS SMP 106B") > strings.Index(body, "AS SMP P11") {
		t.Error("items out of order in rendered table")
	}
}

func TestBodyEmptyItemsRendersPlaceholder(t *testing.T) {
	t.Parallel()

	body, err := Body(nil, time.Now(), "https://erp.example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "No priority items found above threshold.") {
		t.Error("placeholder row missing for empty priority list")
	}
}

func TestBodyEscapesSpecifications(t *testing.T) {
	t.Parallel()

	items := []report.PriorityItem{{Specification: "<script>bad</script>", FreeForSaleMT: 50}}
	body, err := Body(items, time.Now(), "https://erp.example.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("specification not HTML-escaped")
	}
}
