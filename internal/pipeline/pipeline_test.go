package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"invrep/internal/config"
	"invrep/internal/fetch"
	"invrep/internal/mail"
	"invrep/internal/storage"
	"invrep/pkg/logx"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheets := map[string][][]any{
		"Stock": {
			{"Inventory Snapshot"},
			{"Specification", "OD", "WT", "MT", "Make"},
			{"CS SMP 106B", 168.3, 7.11, 120.0, "MillA"},
			{"CS SMP 106B", 60.3, 3.91, 30.0, "MillA"},
			{"AS SMP P11", 114.3, 6.02, 55.0, "MillB"},
		},
		"Reservations": {
			{"Reserved Stock"},
			{"Specification", "OD", "WT", "MT"},
			{"CS SMP 106B", 60.3, 3.91, 10.0},
		},
		"Incoming": {
			{"Incoming Stock"},
			{"Specification", "OD", "WT", "MT", "MT"},
			{"AS SMP P11", 114.3, 6.02, 99.0, 20.0},
		},
	}
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	_ = f.DeleteSheet("Sheet1")

	path := filepath.Join(dir, "inventory.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

type staticRecipients struct{ list []string }

func (s staticRecipients) Resolve(_ context.Context, static []string, _ bool) []string {
	if s.list != nil {
		return s.list
	}
	return static
}

type fakeMailer struct {
	sent     [][]string
	subject  string
	body     string
	attCount int
	err      error
}

func (m *fakeMailer) Send(_ context.Context, recipients []string, subject, body string, atts []mail.Attachment) (mail.SendResult, error) {
	m.sent = append(m.sent, recipients)
	m.subject = subject
	m.body = body
	m.attCount = len(atts)
	if m.err != nil {
		return mail.SendResult{Failed: recipients}, m.err
	}
	return mail.SendResult{Sent: recipients}, nil
}

func testConfig(dir string) *config.Config {
	cfg := &config.Config{}
	cfg.WithDefaults()
	cfg.Report.OutputDir = filepath.Join(dir, "reports")
	cfg.Report.PDFSpecs = []string{"CS SMP 106B", "AS SMP P11", "NO SUCH SPEC"}
	cfg.Email.Enabled = true
	cfg.Email.Recipients = []string{"team@example.com"}
	cfg.Email.ERPLink = "https://erp.example.com"
	return cfg
}

func testPipeline(t *testing.T, dir string, mailer *fakeMailer) *Pipeline {
	t.Helper()
	wb := writeWorkbook(t, dir)
	reportDate := time.Date(2026, time.August, 25, 11, 0, 0, 0, time.UTC)

	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(dir, "history.db")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return &Pipeline{
		Cfg: testConfig(dir),
		Source: SourceFunc(func(context.Context) (*fetch.Result, error) {
			return &fetch.Result{Path: wb, ReportDate: reportDate, FromS3: true}, nil
		}),
		Recipient: staticRecipients{},
		Mailer:    mailer,
		Store:     st,
		Log:       logx.Nop(),
	}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := &fakeMailer{}
	p := testPipeline(t, dir, mailer)

	out, err := p.Run(context.Background(), "manual")
	if err != nil {
		t.Fatal(err)
	}

	if out.HeatmapCount != 2 {
		t.Errorf("heatmaps = %d, want 2 (one spec has no data)", out.HeatmapCount)
	}
	if out.PriorityCount != 2 {
		t.Errorf("priority items = %d, want 2", out.PriorityCount)
	}
	if fi, err := os.Stat(out.PDFPath); err != nil || fi.Size() == 0 {
		t.Fatalf("pdf missing at %s: %v", out.PDFPath, err)
	}
	if !strings.HasSuffix(out.PDFPath, "inventory_report_2026_08_25.pdf") {
		t.Errorf("pdf path = %q", out.PDFPath)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("mailer called %d times, want 1", len(mailer.sent))
	}
	if mailer.attCount != 1 {
		t.Errorf("attachments = %d, want 1", mailer.attCount)
	}
	if !strings.Contains(mailer.subject, "25 Aug 2026") {
		t.Errorf("subject = %q", mailer.subject)
	}
	// Incoming second MT column (20.0) must flow into priority totals:
	// AS SMP P11 = 55 + 20 = 75.
	if !strings.Contains(mailer.body, "75.00") {
		t.Errorf("body missing AS SMP P11 free-for-sale total")
	}
}

func TestRunSkipsResendForSameReportDate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := &fakeMailer{}
	p := testPipeline(t, dir, mailer)

	if _, err := p.Run(context.Background(), "scheduled"); err != nil {
		t.Fatal(err)
	}
	out, err := p.Run(context.Background(), "scheduled")
	if err != nil {
		t.Fatal(err)
	}
	if !out.EmailSkipped {
		t.Error("second run for same report date should skip email")
	}
	if len(mailer.sent) != 1 {
		t.Errorf("mailer called %d times, want 1", len(mailer.sent))
	}
}

func TestRunDryRunSkipsEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := &fakeMailer{}
	p := testPipeline(t, dir, mailer)
	p.Cfg.Email.DryRun = true

	out, err := p.Run(context.Background(), "manual")
	if err != nil {
		t.Fatal(err)
	}
	if !out.EmailSkipped {
		t.Error("dry run should skip email")
	}
	if len(mailer.sent) != 0 {
		t.Errorf("mailer called %d times, want 0", len(mailer.sent))
	}
	if _, err := os.Stat(out.PDFPath); err != nil {
		t.Errorf("pdf should still be generated in dry run: %v", err)
	}
}

func TestRunDeliveryFailureDoesNotFailRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := &fakeMailer{err: fmt.Errorf("smtp down")}
	p := testPipeline(t, dir, mailer)

	out, err := p.Run(context.Background(), "scheduled")
	if err != nil {
		t.Fatalf("delivery failure must not fail the run: %v", err)
	}
	if out.Failed == 0 {
		t.Error("failed count not recorded")
	}

	// Not marked sent, so a rerun tries delivery again.
	out2, err := p.Run(context.Background(), "scheduled")
	if err != nil {
		t.Fatal(err)
	}
	if out2.EmailSkipped {
		t.Error("failed delivery must not set the sent marker")
	}
}

func TestRunFailsWhenSourceUnavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := testPipeline(t, dir, &fakeMailer{})
	p.Source = SourceFunc(func(context.Context) (*fetch.Result, error) {
		return nil, fmt.Errorf("bucket unreachable")
	})

	if _, err := p.Run(context.Background(), "scheduled"); err == nil {
		t.Fatal("want error when workbook cannot be resolved")
	}
}

func TestRunFailsWhenNoHeatmapSpecsMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := testPipeline(t, dir, &fakeMailer{})
	p.Cfg.Report.PDFSpecs = []string{"NOPE 1", "NOPE 2"}

	if _, err := p.Run(context.Background(), "scheduled"); err == nil {
		t.Fatal("want error when every heatmap spec is missing from the data")
	}
}

func TestRunEmptyRecipientsSkipsEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := &fakeMailer{}
	p := testPipeline(t, dir, mailer)
	p.Cfg.Email.Recipients = nil

	out, err := p.Run(context.Background(), "manual")
	if err != nil {
		t.Fatal(err)
	}
	if !out.EmailSkipped {
		t.Error("empty recipient list should skip email, not fail")
	}
}
