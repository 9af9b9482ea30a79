// Package pipeline orchestrates a full report run: locate the workbook,
// preprocess it, build the deliverables and email them out.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"invrep/internal/config"
	"invrep/internal/fetch"
	"invrep/internal/inventory"
	"invrep/internal/mail"
	"invrep/internal/report"
	"invrep/internal/storage"
	"invrep/pkg/logx"
)

// Source resolves the inventory workbook for this run.
type Source interface {
	Resolve(ctx context.Context) (*fetch.Result, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*fetch.Result, error)

func (f SourceFunc) Resolve(ctx context.Context) (*fetch.Result, error) { return f(ctx) }

// Recipients resolves who the report goes to.
type Recipients interface {
	Resolve(ctx context.Context, static []string, useAPI bool) []string
}

// Mailer delivers the composed message.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string, attachments []mail.Attachment) (mail.SendResult, error)
}

// Pipeline wires the run steps together. Store may be nil (history
// disabled).
type Pipeline struct {
	Cfg       *config.Config
	Source    Source
	Recipient Recipients
	Mailer    Mailer
	Store     storage.Store

	Log logx.Logger
}

// Outcome summarizes a completed run.
type Outcome struct {
	SourcePath    string
	PDFPath       string
	ReportDate    time.Time
	PriorityCount int
	HeatmapCount  int
	Sent          int
	Failed        int
	EmailSkipped  bool
}

// Run executes the pipeline once. It fails fast on fatal steps (workbook
// resolution, preprocessing, PDF generation) and degrades on the rest.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*Outcome, error) {
	start := time.Now()
	out, err := p.run(ctx)
	p.record(ctx, trigger, start, out, err)
	return out, err
}

func (p *Pipeline) run(ctx context.Context) (*Outcome, error) {
	log := p.Log
	out := &Outcome{}

	log.Info("resolving inventory workbook")
	src, err := p.Source.Resolve(ctx)
	if err != nil {
		return out, fmt.Errorf("resolve workbook: %w", err)
	}
	out.SourcePath = src.Path
	out.ReportDate = src.ReportDate
	if out.ReportDate.IsZero() {
		log.Warn("source carries no timestamp, stamping report with current date")
		out.ReportDate = time.Now()
	}
	log.Info("workbook resolved", logx.String("path", src.Path), logx.Bool("from_s3", src.FromS3))

	mapping := p.loadMapping()

	log.Info("loading and preprocessing workbook")
	ds, err := inventory.Load(src.Path, mapping, log)
	if err != nil {
		return out, fmt.Errorf("preprocess workbook: %w", err)
	}
	if len(ds.Stock) == 0 {
		return out, fmt.Errorf("stock sheet is empty, nothing to report")
	}
	if len(ds.Reservations) == 0 {
		log.Warn("reservations sheet is empty, continuing without reservations")
	}
	if len(ds.Incoming) == 0 {
		log.Warn("incoming sheet is empty, continuing without incoming stock")
	}

	items := report.PriorityItems(ds, p.Cfg.Report.PriorityThreshold, p.Cfg.Report.PriorityLimit)
	out.PriorityCount = len(items)
	if len(items) == 0 {
		log.Warn("no specifications above priority threshold, email table will be empty")
	}

	heatmaps, err := p.buildHeatmaps(ctx, ds, mapping)
	if err != nil {
		return out, err
	}
	out.HeatmapCount = len(heatmaps)
	p.sanityChecks(heatmaps)

	pdfPath, err := report.WritePDF(heatmaps, out.ReportDate, p.Cfg.Report.OutputDir)
	if err != nil {
		return out, fmt.Errorf("generate pdf: %w", err)
	}
	out.PDFPath = pdfPath
	log.Info("pdf generated", logx.String("path", pdfPath))

	p.sendEmail(ctx, out, items)
	return out, nil
}

func (p *Pipeline) loadMapping() inventory.Mapping {
	path := p.Cfg.Report.SpecMappingFile
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		p.Log.Warn("spec mapping file not found, using pattern-based grades", logx.String("path", path))
		return nil
	}
	m, err := inventory.LoadMapping(path)
	if err != nil {
		p.Log.Warn("failed to load spec mapping, using pattern-based grades", logx.Err(err))
		return nil
	}
	p.Log.Info("spec mapping loaded", logx.Int("entries", len(m)))
	return m
}

// buildHeatmaps pivots every configured specification concurrently. A spec
// with no data is skipped with a warning; zero successes fails the run.
func (p *Pipeline) buildHeatmaps(ctx context.Context, ds *inventory.Dataset, mapping inventory.Mapping) ([]*report.Heatmap, error) {
	specs := p.Cfg.Report.PDFSpecs
	cells := inventory.FreeForSaleCells(ds)

	results := make([]*report.Heatmap, len(specs))
	var mu sync.Mutex
	var failed []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := report.BuildHeatmap(ds, cells, spec, mapping)
			if err != nil {
				p.Log.Warn("heatmap skipped", logx.String("spec", spec), logx.Err(err))
				mu.Lock()
				failed = append(failed, spec)
				mu.Unlock()
				return nil
			}
			results[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var heatmaps []*report.Heatmap
	for _, h := range results {
		if h != nil {
			heatmaps = append(heatmaps, h)
		}
	}
	if len(heatmaps) == 0 {
		return nil, fmt.Errorf("no heatmaps could be generated for %d configured specifications", len(specs))
	}
	if len(failed) > 0 {
		p.Log.Warn("continuing with partial heatmap set",
			logx.Int("ok", len(heatmaps)), logx.Any("failed", failed))
	}
	return heatmaps, nil
}

// sanityChecks emits non-blocking warnings about suspicious data.
func (p *Pipeline) sanityChecks(heatmaps []*report.Heatmap) {
	allIncomingZero := true
	for _, h := range heatmaps {
		m := h.Metrics
		if m.Reservation > m.Stock {
			p.Log.Warn("reservation exceeds stock",
				logx.String("spec", h.Specification),
				logx.Float64("reservation_mt", m.Reservation), logx.Float64("stock_mt", m.Stock))
		}
		if m.FreeForSale < 0 {
			p.Log.Warn("free-for-sale is negative",
				logx.String("spec", h.Specification), logx.Float64("ffs_mt", m.FreeForSale))
		}
		if m.Incoming != 0 {
			allIncomingZero = false
		}
	}
	if allIncomingZero && len(heatmaps) > 0 {
		p.Log.Warn("incoming is zero for every specification, incoming data may be missing")
	}
}

// sendEmail delivers the report. Delivery problems never fail the run; the
// PDF on disk is the primary artifact.
func (p *Pipeline) sendEmail(ctx context.Context, out *Outcome, items []report.PriorityItem) {
	ec := p.Cfg.Email
	log := p.Log

	if !ec.Enabled || ec.DryRun {
		log.Info("email sending skipped", logx.Bool("enabled", ec.Enabled), logx.Bool("dry_run", ec.DryRun))
		out.EmailSkipped = true
		return
	}

	sentKey := "report-" + out.ReportDate.Format("2006-01-02")
	if p.Store != nil {
		if _, already, err := p.Store.WasSent(ctx, sentKey); err == nil && already {
			log.Warn("report for this date already sent, skipping email", logx.String("key", sentKey))
			out.EmailSkipped = true
			return
		}
	}

	recipients := p.Recipient.Resolve(ctx, ec.Recipients, ec.UseAPIRecipients)
	if len(recipients) == 0 {
		log.Warn("recipient list is empty, skipping email send")
		out.EmailSkipped = true
		return
	}

	body, err := mail.Body(items, out.ReportDate, ec.ERPLink, p.Cfg.Report.PDFSpecs)
	if err != nil {
		log.Error("email body generation failed, skipping send", logx.Err(err))
		out.EmailSkipped = true
		return
	}
	att, err := mail.LoadAttachment(out.PDFPath)
	if err != nil {
		log.Error("pdf attachment unavailable, skipping send", logx.Err(err))
		out.EmailSkipped = true
		return
	}

	res, err := p.Mailer.Send(ctx, recipients, mail.Subject(out.ReportDate), body, []mail.Attachment{att})
	out.Sent = len(res.Sent)
	out.Failed = len(res.Failed)
	if err != nil {
		log.Error("email delivery failed", logx.Err(err))
		return
	}
	if p.Store != nil {
		if err := p.Store.MarkSent(ctx, sentKey, out.ReportDate.Add(30*24*time.Hour)); err != nil {
			log.Warn("failed to persist sent marker", logx.Err(err))
		}
	}
	log.Info("email delivered", logx.Int("sent", out.Sent), logx.Int("failed", out.Failed))
}

func (p *Pipeline) record(ctx context.Context, trigger string, start time.Time, out *Outcome, runErr error) {
	if p.Store == nil {
		return
	}
	rec := storage.RunRecord{
		At:         start,
		Trigger:    trigger,
		Status:     "ok",
		SourceKey:  out.SourcePath,
		ReportDate: out.ReportDate,
		PDFPath:    out.PDFPath,

		PriorityCount: out.PriorityCount,
		HeatmapCount:  out.HeatmapCount,
		SentCount:     out.Sent,
		FailedCount:   out.Failed,

		TookMS: time.Since(start).Milliseconds(),
	}
	switch {
	case runErr != nil:
		rec.Status = "failed"
		rec.Error = runErr.Error()
	case out.Failed > 0:
		rec.Status = "partial"
	}
	if err := p.Store.AppendRun(ctx, rec); err != nil {
		p.Log.Warn("failed to persist run record", logx.Err(err))
	}
}
