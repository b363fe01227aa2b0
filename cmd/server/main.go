package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gestionexus-backend/internal/config"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/jobs"
	"gestionexus-backend/internal/logging"
	"gestionexus-backend/internal/telemetry"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := database.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	tm := telemetry.New()
	app, limiter := newApp(cfg, db, log, tm)

	sched := jobs.NewScheduler(log)
	if err := sched.Add("reset-token-purge", cfg.TokenPurgeSchedule, jobs.ResetTokenPurge(db, log)); err != nil {
		log.WithError(err).Fatal("scheduler setup failed")
	}
	if err := sched.Add("rate-limiter-cleanup", "@every 10m", func(context.Context) error {
		limiter.Cleanup(30 * time.Minute)
		return nil
	}); err != nil {
		log.WithError(err).Fatal("scheduler setup failed")
	}
	sched.Start()

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("server listening")
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Warn("http shutdown incomplete")
	}
	sched.Stop(ctx)
	if err := database.Close(db); err != nil {
		log.WithError(err).Warn("database close failed")
	}
}
