package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"hisobchi/internal/amqp"
	"hisobchi/internal/core"
	"hisobchi/internal/period"
)

func TestChatSummaryUsesStoredSelection(t *testing.T) {
	repo := newTestStorage(t)
	ctx := context.Background()
	svc := NewReportService(repo, nil)

	u, _ := repo.UpsertUser(ctx, 1, "tester")
	p, _ := repo.CreateProject(ctx, u.TelegramID, "Villa-1")
	if err := repo.SetSelection(ctx, u.TelegramID, core.UserSelection{
		Kind: core.SelectProject, ProjectID: p.ID,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		UserID:      u.TelegramID,
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 5000000},
		Currency:    core.UZS,
		Description: "Sement",
		Scope:       core.ProjectScope(p.ID),
	}); err != nil {
		t.Fatal(err)
	}

	out, err := svc.ChatSummary(ctx, u.TelegramID, period.Today)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Villa-1") {
		t.Fatalf("summary not scoped to selected project:\n%s", out)
	}
	if !strings.Contains(out, "50 000 so'm") {
		t.Fatalf("summary missing expense total:\n%s", out)
	}
}

func TestRequestDocumentWithoutQueueFails(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewReportService(repo, nil)
	if _, err := repo.UpsertUser(context.Background(), 1, "tester"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.RequestDocument(context.Background(), 1, period.Today, amqp.FormatPDF)
	if !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("no queue = %v, want ErrQueueUnavailable", err)
	}
	_, err = svc.RequestDocument(context.Background(), 1, period.Today, "docx")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("bad format = %v, want ErrUnknownFormat", err)
	}
}

func TestDirectRendersDocument(t *testing.T) {
	repo := newTestStorage(t)
	ctx := context.Background()
	svc := NewReportService(repo, nil)

	u, _ := repo.UpsertUser(ctx, 1, "tester")
	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		UserID:      u.TelegramID,
		Kind:        core.Income,
		Amount:      core.Money{Cents: 100000},
		Currency:    core.UZS,
		Description: "Avans",
		Scope:       core.Unscoped(),
	}); err != nil {
		t.Fatal(err)
	}

	doc, name, err := svc.Direct(ctx, u.TelegramID, period.Month, amqp.FormatPDF)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatal("direct render did not produce a PDF")
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("artifact name = %q", name)
	}

	doc, name, err = svc.Direct(ctx, u.TelegramID, period.Month, amqp.FormatExcel)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(doc, []byte("PK")) {
		t.Fatal("direct render did not produce a workbook")
	}
	if !strings.HasSuffix(name, ".xlsx") {
		t.Fatalf("artifact name = %q", name)
	}
}
