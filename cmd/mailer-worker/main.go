package main

import (
	"context"
	"errors"
	"os"
	"time"

	"subcal/internal/amqp"
	"subcal/internal/cli"
	applog "subcal/internal/log"
	"subcal/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentMail)
	logger.Info("Starting mailer-worker", applog.FieldOperation, applog.OpStartup)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for mailer-worker")
		os.Exit(1)
	}

	mailer, err := cli.NewMailer(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewMailerWorker(mailer)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := client.ConsumeDigests(ctx, w.HandleDigest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Digest consumption failed", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Mailer worker stopped")
}
