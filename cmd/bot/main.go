package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/infra/config"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("Homework Status Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.Get().WithField("component", "main")

	if !cfg.CheckTokens() {
		log.Fatalf("Required environment variables are missing: %s", strings.Join(cfg.MissingTokens(), ", "))
	}
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Endpoint: %s, Interval: %s",
		cfg.LogLevel, cfg.Environment, cfg.Endpoint, cfg.RetryInterval)

	// Send-only bot: skip the getMe round trip so a Telegram outage at boot
	// surfaces as a failed send instead of killing the process.
	bot, err := telegram.NewBot(cfg.TelegramToken, "", cfg.RequestTimeout, true)
	if err != nil {
		log.Fatalf("Could not create Telegram bot: %v", err)
	}
	notifier := app.NewNotifier(
		telegram.NewTelebotAdapter(bot),
		cfg.TelegramChatID,
		logger.Get().WithField("component", "notifier"),
	)
	log.Info("Notifier initialized.")

	practicumClient := practicum.NewClient(
		cfg.PracticumToken,
		practicum.WithEndpoint(cfg.Endpoint),
		practicum.WithTimeout(cfg.RequestTimeout),
		practicum.WithLogger(logger.Get().WithField("component", "practicum")),
	)

	pollLoop := app.NewPollLoop(
		practicumClient,
		notifier,
		logger.Get().WithField("component", "poll_loop"),
		app.WithFailureNoticeDedup(cfg.DedupFailureNotices),
		app.WithNoticeTimeout(cfg.RequestTimeout),
	)
	log.WithField("from_date", pollLoop.Cursor()).Info("Poll loop initialized.")

	pollScheduler := scheduler.NewPollScheduler(
		pollLoop,
		logger.Get().WithField("component", "scheduler"),
		cfg.RetryInterval,
		cfg.CycleTimeout,
	)
	if err := pollScheduler.Start(); err != nil {
		log.Fatalf("Could not start poll scheduler: %v", err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	pollScheduler.Stop()

	status := pollLoop.Status()
	log.WithFields(logrus.Fields{
		"cursor":               status.Cursor,
		"consecutive_failures": status.ConsecutiveFailures,
		"last_success":         status.LastSuccess,
		"last_error":           status.LastError,
	}).Info("Application shut down gracefully.")
}
