// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pistareserva/courtbook/internal/booking"
	"github.com/pistareserva/courtbook/internal/config"
	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/email"
	"github.com/pistareserva/courtbook/internal/invitations"
	"github.com/pistareserva/courtbook/internal/scheduler"
	"github.com/pistareserva/courtbook/internal/stats"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var sender email.EmailSender
	if cfg.Email.AccessKeyID != "" && cfg.Email.SecretAccessKey != "" {
		sender, err = email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SES client")
		}
	} else {
		log.Warn().Msg("No AWS credentials configured; email delivery disabled")
		sender = email.LogSender{}
	}

	engine, err := booking.NewEngine(database, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize booking engine")
	}
	archiver, err := booking.NewArchiver(database, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cancellation archiver")
	}
	manager, err := invitations.NewManager(database, sender, cfg.App.BaseURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize invitation manager")
	}
	reports, err := stats.NewService(database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize stats service")
	}

	var jobs *scheduler.Service
	if cfg.Reminders.Enabled {
		jobs, err = scheduler.New()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		if err := scheduler.RegisterReminderJob(jobs, database, sender, cfg.Reminders.Cron); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reminder job")
		}
		jobs.Start()
		defer func() {
			if err := jobs.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}()
	}

	server := newServer(cfg, database, engine, archiver, manager, reports)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
