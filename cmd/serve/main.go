// Command serve runs a session behind the live snapshot feed: an HTTP
// control API plus a websocket stream of world snapshots.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/feed"
	"github.com/pthm-cable/terrarium/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	addr := flag.String("addr", "", "Listen address (empty = use config)")
	start := flag.Bool("start", false, "Start stepping immediately")
	queue := flag.Int("queue", feed.DefaultQueueSize, "Max unacknowledged snapshots kept for clients")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *addr, *start, *queue, *logStats, logger); err != nil {
		slog.Error("serve failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, addr string, start bool, queue int, logStats bool, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Feed.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := game.NewSession(cfg, game.Options{LogStats: logStats, Logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	hub := feed.NewHub(queue, logger)
	ctrl := feed.NewController(s, cfg.Feed, hub, logger)
	if start {
		ctrl.Start()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           feed.NewHandler(ctrl, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "running", start)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	go ctrl.Run(ctx)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "tick", ctrl.Status().Tick)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
