package main

import (
	"context"
	"errors"
	"time"

	"hisobchi/internal/cli"
	"hisobchi/internal/log"
	"hisobchi/internal/services"
	"hisobchi/internal/worker"
)

func main() {
	logger := cli.SetupLogger(log.ComponentWorker)
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report worker")
		return
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	w := worker.NewReportWorker(services.NewReportService(repo, nil), cfg.ReportOutputDir)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	logger.Info("Report worker starting",
		"queue", cfg.AMQPQueue,
		"exchange", cfg.AMQPExchange,
		"output_dir", cfg.ReportOutputDir)

	err := w.Run(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
	}
	cli.WaitForShutdown(ctx, done)
}
