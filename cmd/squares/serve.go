package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/squares-ev/internal/health"
	"github.com/yourusername/squares-ev/internal/metrics"
	"github.com/yourusername/squares-ev/internal/oddsfeed"
	"github.com/yourusername/squares-ev/internal/scheduler"
	"github.com/yourusername/squares-ev/internal/server"
)

var serveFlags struct {
	board string
	port  int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live dashboard API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.board, "board", "b", "", "Board text file to load at startup")
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("Squares EV server starting")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	svc, client, err := buildService()
	if err != nil {
		return err
	}

	checks := map[string]health.Check{}
	if client != nil {
		defer client.Close()
		checks["odds_feed"] = func(ctx context.Context) error {
			if !client.Healthy() {
				return oddsfeed.ErrCircuitOpen
			}
			return nil
		}
	}
	healthHandler := health.NewHandler(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		Checks:      checks,
	})

	if serveFlags.board != "" {
		text, err := readInput(serveFlags.board)
		if err != nil {
			return err
		}
		if _, err := svc.SetBoard(text); err != nil {
			return err
		}
	}

	if cfg.Refresh.Enabled && client != nil {
		sched := scheduler.NewScheduler(svc, appLog)
		if err := sched.ScheduleOddsRefresh(cfg.Refresh.Schedule); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
		go func() { _ = sched.RunOnce(ctx) }()
	}

	port := cfg.Server.Port
	if serveFlags.port > 0 {
		port = serveFlags.port
	}
	srv := server.New(server.Config{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Service:        svc,
		Health:         healthHandler,
		Logger:         appLog,
	})

	healthHandler.SetReady(true)
	return srv.Start(ctx)
}
