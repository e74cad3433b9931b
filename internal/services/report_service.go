package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hisobchi/internal/amqp"
	"hisobchi/internal/core"
	"hisobchi/internal/period"
	"hisobchi/internal/report"
	"hisobchi/internal/storage"
)

var (
	ErrUnknownFormat    = errors.New("unknown report format")
	ErrQueueUnavailable = errors.New("report queue not configured")
)

// ReportService builds reports. Chat summaries render inline; document
// formats go over the queue to the worker.
type ReportService struct {
	storage    *storage.SQLiteRepository
	engine     *report.Engine
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewReportService(repo *storage.SQLiteRepository, amqpClient *amqp.Client) *ReportService {
	return &ReportService{
		storage:    repo,
		engine:     report.NewEngine(repo),
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// ChatSummary renders the text projection for the user's current
// selection and the named period.
func (s *ReportService) ChatSummary(ctx context.Context, userID int64, token period.Token) (string, error) {
	data, err := s.aggregate(ctx, userID, token, core.UserSelection{}, true)
	if err != nil {
		return "", err
	}
	return report.RenderText(data), nil
}

// RequestDocument enqueues a render job and returns its id. The worker
// picks the job up and writes the artifact.
func (s *ReportService) RequestDocument(ctx context.Context, userID int64, token period.Token, format string) (string, error) {
	if format != amqp.FormatPDF && format != amqp.FormatExcel {
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if s.amqpClient == nil {
		return "", ErrQueueUnavailable
	}

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	msg := &amqp.ReportJobMessage{
		JobID:         uuid.NewString(),
		UserID:        userID,
		SelectionKind: string(user.Selection.Kind),
		ProjectID:     user.Selection.ProjectID,
		BalanceID:     user.Selection.BalanceID,
		Period:        string(token),
		Format:        format,
		Timestamp:     s.now(),
	}
	if err := s.amqpClient.PublishReportJob(ctx, msg); err != nil {
		return "", fmt.Errorf("enqueue report job: %w", err)
	}
	return msg.JobID, nil
}

// RenderJob produces the document for a queued job. Used by the worker.
func (s *ReportService) RenderJob(ctx context.Context, msg *amqp.ReportJobMessage) ([]byte, string, error) {
	sel := core.UserSelection{
		Kind:      core.SelectionKind(msg.SelectionKind),
		ProjectID: msg.ProjectID,
		BalanceID: msg.BalanceID,
	}
	data, err := s.aggregate(ctx, msg.UserID, period.Token(msg.Period), sel, false)
	if err != nil {
		return nil, "", err
	}

	switch msg.Format {
	case amqp.FormatPDF:
		doc, err := report.RenderPDF(data)
		if err != nil {
			return nil, "", fmt.Errorf("render pdf: %w", err)
		}
		return doc, fmt.Sprintf("hisobot-%s.pdf", msg.JobID), nil
	case amqp.FormatExcel:
		doc, err := report.RenderExcel(data)
		if err != nil {
			return nil, "", fmt.Errorf("render excel: %w", err)
		}
		return doc, fmt.Sprintf("hisobot-%s.xlsx", msg.JobID), nil
	default:
		return nil, "", fmt.Errorf("%w %q", ErrUnknownFormat, msg.Format)
	}
}

// Direct renders a document synchronously, bypassing the queue. Used by
// the HTTP download endpoint.
func (s *ReportService) Direct(ctx context.Context, userID int64, token period.Token, format string) ([]byte, string, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	return s.RenderJob(ctx, &amqp.ReportJobMessage{
		JobID:         uuid.NewString(),
		UserID:        userID,
		SelectionKind: string(user.Selection.Kind),
		ProjectID:     user.Selection.ProjectID,
		BalanceID:     user.Selection.BalanceID,
		Period:        string(token),
		Format:        format,
	})
}

func (s *ReportService) aggregate(ctx context.Context, userID int64, token period.Token, sel core.UserSelection, useStored bool) (report.ReportData, error) {
	if useStored {
		user, err := s.storage.GetUser(ctx, userID)
		if err != nil {
			return report.ReportData{}, fmt.Errorf("load user: %w", err)
		}
		sel = user.Selection
	}

	w, err := period.Compute(token, s.now())
	if err != nil {
		return report.ReportData{}, err
	}
	return s.engine.Aggregate(ctx, userID, sel, w)
}
