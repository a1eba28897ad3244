package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"subcal/internal/amqp"
	"subcal/internal/cli"
	applog "subcal/internal/log"
	"subcal/internal/notify"
	"subcal/internal/services"
	"subcal/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentReminder)
	logger.Info("Starting reminder-worker", applog.FieldOperation, applog.OpStartup)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Failed to close backend", "error", err)
			}
		}()
	}

	// With a broker the digests are queued for mailer-worker, otherwise
	// they are mailed in-process.
	var sink services.DigestSink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sink = client
		logger.Info("Publishing digests to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		mailer, err := cli.NewMailer(context.Background(), logger, cfg)
		if err != nil {
			logger.Error("Failed to initialize mailer", "error", err)
			os.Exit(1)
		}
		sink = notify.MailerSink{Mailer: mailer}
		logger.Info("AMQP disabled, mailing digests directly", "mail_backend", cfg.MailBackend)
	}

	dispatcher := services.NewReminderDispatcher(res.Backend, res.Backend, res.Backend, sink, services.DispatcherConfig{
		CurrencySymbol: cfg.CurrencySymbol,
		Hour:           cfg.ReminderHour,
		Location:       time.Local,
	})
	w := worker.NewReminderWorker(dispatcher, cfg.ReminderInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("Reminder worker failed", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Reminder worker stopped")
}
