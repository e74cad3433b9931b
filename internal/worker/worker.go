package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hisobchi/internal/amqp"
	"hisobchi/internal/log"
	"hisobchi/internal/services"
)

// ReportWorker consumes report jobs from the queue, renders the
// requested document and drops it into the output directory where the
// bot delivery layer picks it up.
type ReportWorker struct {
	reports   *services.ReportService
	outputDir string
}

func NewReportWorker(reports *services.ReportService, outputDir string) *ReportWorker {
	return &ReportWorker{reports: reports, outputDir: outputDir}
}

// Handle renders a single job. A render failure is returned to the
// consumer, which requeues the message once.
func (w *ReportWorker) Handle(ctx context.Context, msg *amqp.ReportJobMessage) error {
	start := time.Now()

	data, filename, err := w.reports.RenderJob(ctx, msg)
	if err != nil {
		return fmt.Errorf("render job %s: %w", msg.JobID, err)
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	slog.InfoContext(ctx, "Report rendered",
		log.FieldJobID, msg.JobID,
		log.FieldUserID, msg.UserID,
		log.FieldFormat, msg.Format,
		"path", path,
		"bytes", len(data),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Run consumes jobs until the context is cancelled, reconnecting to the
// broker as needed.
func (w *ReportWorker) Run(ctx context.Context, url, exchange, queue string) error {
	return amqp.ConsumeWithReconnect(ctx, url, exchange, queue, func(msg *amqp.ReportJobMessage) error {
		return w.Handle(ctx, msg)
	})
}
