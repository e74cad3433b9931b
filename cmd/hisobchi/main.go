package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"hisobchi/internal/amqp"
	"hisobchi/internal/cli"
	"hisobchi/internal/extract"
	hisobchihttp "hisobchi/internal/http"
	"hisobchi/internal/log"
	"hisobchi/internal/pending"
	"hisobchi/internal/services"
)

func main() {
	logger := cli.SetupLogger(log.ComponentApp)
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	pendingStore := pending.NewStore(cfg.PendingTTL)
	janitor := pending.NewJanitor()
	janitor.Register(pendingStore)
	janitor.Start(cfg.CleanupInterval)

	var extractor services.VoiceExtractor
	if cfg.VoiceEnabled() {
		pool := extract.NewKeyPool(cfg.GeminiAPIKeys, cfg.KeyCooloff)
		extractor = extract.NewExtractor(pool, cfg.GeminiModel, cfg.ExtractionTimeout)
		logger.WithComponent(log.ComponentExtract).Info("Voice extraction enabled",
			"model", cfg.GeminiModel, "keys", pool.Len())
	} else {
		logger.WithComponent(log.ComponentExtract).Warn("Voice extraction disabled: no Gemini API keys configured")
	}

	var queue *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, report documents limited to direct download",
				log.FieldError, err)
		} else {
			queue = client
			defer queue.Close()
		}
	}

	server := hisobchihttp.NewServer(":"+cfg.Port, hisobchihttp.Deps{
		Storage:        repo,
		Transactions:   services.NewTransactionService(repo, pendingStore, extractor),
		Transfers:      services.NewTransferService(repo),
		Debts:          services.NewDebtService(repo),
		Reports:        services.NewReportService(repo, queue),
		BotToken:       cfg.BotToken,
		VoiceEnabled:   cfg.VoiceEnabled(),
		WriteRateLimit: cfg.WriteRateLimit,
	})

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		janitor.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited", "error", err)
	}
	cli.WaitForShutdown(ctx, done)
}
