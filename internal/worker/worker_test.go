package worker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hisobchi/internal/amqp"
	"hisobchi/internal/core"
	"hisobchi/internal/services"
	"hisobchi/internal/storage"
)

func TestHandleWritesRenderedReport(t *testing.T) {
	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if _, err := repo.UpsertUser(ctx, 42, "tester"); err != nil {
		t.Fatal(err)
	}
	tx := core.Transaction{
		UserID:      42,
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 5000000},
		Currency:    core.UZS,
		Description: "Sement",
		Scope:       core.Unscoped(),
		CreatedAt:   time.Now(),
	}
	if _, err := repo.InsertTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "reports")
	w := NewReportWorker(services.NewReportService(repo, nil), outDir)

	msg := &amqp.ReportJobMessage{
		JobID:         "job-1",
		UserID:        42,
		SelectionKind: "all",
		Period:        "today",
		Format:        amqp.FormatPDF,
		Timestamp:     time.Now(),
	}
	if err := w.Handle(ctx, msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "hisobot-job-1.pdf"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("artifact is not a PDF document")
	}
}

func TestHandleRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if _, err := repo.UpsertUser(ctx, 42, "tester"); err != nil {
		t.Fatal(err)
	}

	w := NewReportWorker(services.NewReportService(repo, nil), filepath.Join(dir, "reports"))
	err = w.Handle(ctx, &amqp.ReportJobMessage{
		JobID:         "job-2",
		UserID:        42,
		SelectionKind: "all",
		Period:        "today",
		Format:        "csv",
	})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
