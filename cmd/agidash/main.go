package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agidash/agidash/internal/alert"
	"github.com/agidash/agidash/internal/api"
	"github.com/agidash/agidash/internal/bot"
	"github.com/agidash/agidash/internal/detect"
	"github.com/agidash/agidash/internal/index"
	"github.com/agidash/agidash/internal/ingest"
	"github.com/agidash/agidash/internal/notify"
	"github.com/agidash/agidash/internal/pipeline"
	"github.com/agidash/agidash/internal/pubsub"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/internal/scheduler"
	"github.com/agidash/agidash/internal/staging"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "load config"))
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "init logger"))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	defer cancel()

	db, err := repo.New(ctx, cfg.Mongo, log)
	if err != nil {
		log.Panic(errors.WrapFail(err, "init repo"))
	}

	sources := []ingest.Source{
		ingest.NewCapability(cfg.Ingest, log),
		ingest.NewTrends(cfg.Ingest, log),
		ingest.NewLegislation(cfg.Ingest, log),
		ingest.NewNews(cfg.Ingest, log),
		ingest.NewMarkets(cfg.Ingest, log),
	}

	store := staging.New(cfg.StagingDir, log)
	runner := detect.NewRunner(db.Indices(), cfg.Detect.Hazard, index.Window, log)

	var tgBot *bot.Bot
	var notifiers []notify.Notifier

	if cfg.Telegram.Token != "" {
		tgBot, err = bot.New(cfg.Telegram, db, log)
		if err != nil {
			log.Panic(errors.WrapFail(err, "init telegram bot"))
		}
		notifiers = append(notifiers, notify.NewTelegram(tgBot.Telebot(), db.Subscribers(), log))
	}

	if cfg.Secrets.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlack(cfg.Secrets.SlackWebhook, log))
	}

	var producer *pubsub.Producer
	var alerter *alert.Alerter
	if cfg.Kafka.Enabled() {
		producer = pubsub.NewProducer(cfg.Kafka, log)
		alerter = alert.New(db.Alerts(), producer, log, notifiers...)
	} else {
		alerter = alert.New(db.Alerts(), nil, log, notifiers...)
	}

	pipe := pipeline.New(sources, store, db.Indices(), runner, alerter, log)

	sched := scheduler.New(log)
	err = sched.Add(ctx, cfg.Scheduler.Schedule, "daily_pipeline", pipe.RunToday)
	if err != nil {
		log.Panic(errors.WrapFail(err, "schedule daily pipeline"))
	}

	server := api.NewServer(cfg.API, log, db, pipe)

	if tgBot != nil {
		err = tgBot.Run(ctx)
		if err != nil {
			log.Panic(errors.WrapFail(err, "start telegram bot"))
		}
	}

	sched.Start()

	stopped := make(chan struct{})
	context.AfterFunc(ctx, func() {
		stdlog.Println("Graceful shutdown...")

		sched.Stop()

		shutdownCtx := context.Background()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error(errors.WrapFail(err, "shutdown api server"))
		}

		if tgBot != nil {
			tgBot.Stop()
		}

		if producer != nil {
			if err := producer.Close(); err != nil {
				log.Error(err)
			}
		}

		if err := db.Close(shutdownCtx); err != nil {
			log.Error(err)
		}

		stopped <- struct{}{}
	})

	stdlog.Println("AGIDash is running")

	err = server.Serve(ctx)
	if err != nil {
		log.Error(errors.WrapFail(err, "serve api"))
	}

	<-stopped
	stdlog.Println("Shutdown complete")
}
