package main

import (
	"Prazo-Certo/cmd/config"
	migration "Prazo-Certo/cmd/database/migrate"
	"Prazo-Certo/internal/utils"
	"Prazo-Certo/internal/utils/mailing"
	"Prazo-Certo/pkg/notification"
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

func main() {
	migrateOnly := flag.Bool("migrate", false, "run the schema migration and exit")
	flag.Parse()

	utils.LoadConfig()
	log, logFile, err := utils.NewLogger(utils.GetConfig("LOG_FILE"))
	if err != nil {
		stdlog.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proxy, err := config.NewStorage(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage")
	}
	defer func() {
		if err := proxy.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	if err := migration.Migrate(ctx, proxy, log); err != nil && *migrateOnly {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if *migrateOnly {
		return
	}

	status := proxy.Start(ctx)
	log.Info().
		Str("nominal", string(status.Nominal)).
		Str("effective", string(status.Effective)).
		Msg("storage ready")

	app, err := config.NewApp(ctx, proxy, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build app")
	}

	var wg sync.WaitGroup
	notifier := notification.NewNotifier(proxy, mailing.NewMailer(mailing.LoadMailConfig()), notification.Config{
		Interval: utils.GetConfigDuration("NOTIFY_INTERVAL"),
		Location: config.Location(),
		Clock:    config.Clock(),
		Logger:   log.With().Str("component", "notifier").Logger(),
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		notifier.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	addr := fmt.Sprintf(":%s", utils.GetConfig("APP_PORT"))
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("http server stopped")
	}
	stop()
	wg.Wait()
}
