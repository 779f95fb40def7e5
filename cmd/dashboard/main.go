// Package main is the entry point for the listing event-study dashboard.
//
// Usage: dashboard [COIN...]
//
// With ENABLE_TUI=true (the default) the interactive terminal dashboard is
// started. Otherwise the named coins, or the first common coin, are printed
// as text; the process keeps running if HTTP_ADDR or REFRESH_CRON is set.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/applause/dashboard/internal/config"
	"github.com/applause/dashboard/internal/dashboard"
	"github.com/applause/dashboard/internal/ingest"
	"github.com/applause/dashboard/internal/metrics"
	"github.com/applause/dashboard/internal/scheduler"
	"github.com/applause/dashboard/internal/server"
	"github.com/applause/dashboard/internal/ui"
)

const (
	// ShutdownTimeout bounds the HTTP server drain
	ShutdownTimeout = 5 * time.Second
	// TextChartWidth and TextChartHeight size the headless charts
	TextChartWidth  = 100
	TextChartHeight = 14
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file while it runs
	logOut := io.Writer(os.Stdout)
	if cfg.EnableTUI {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("failed to open log file", "path", cfg.LogFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(setupLogger(cfg.LogLevel, logOut))

	slog.Info("dashboard starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"data_root", cfg.DataRoot,
		"exchanges", exchangeKeys(cfg),
		"window_length", cfg.WindowLength,
		"sample_tail", cfg.SampleTail,
		"highlight", cfg.Highlight,
		"enable_tui", cfg.EnableTUI,
		"http_addr", cfg.HTTPAddr,
		"refresh_cron", cfg.RefreshCron,
		"fetch_timeout", cfg.FetchTimeout,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	tracker := metrics.NewTracker()
	loader := ingest.NewLoader(ingest.NewSource(cfg.DataRoot, cfg.FetchTimeout))
	tracker.SetSource(loader.SourceName())

	opts := dashboard.Options{
		Exchanges:    cfg.Exchanges,
		WindowLength: cfg.WindowLength,
		SampleTail:   cfg.SampleTail,
		Highlight:    cfg.Highlight,
	}

	var (
		app  *ui.App
		ctrl *dashboard.Controller
	)
	if cfg.EnableTUI {
		app = ui.NewApp(tracker)
		ctrl = dashboard.NewController(loader, app, tracker, opts)
		app.Bind(ctrl)
	} else {
		ctrl = dashboard.NewController(loader, dashboard.NewTextRenderer(os.Stdout, TextChartWidth, TextChartHeight), tracker, opts)
	}

	// Optional HTTP API and websocket feed
	var srv *server.Server
	if cfg.HTTPAddr != "" {
		srv = server.New(cfg.HTTPAddr, ctrl, tracker)
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("http_server_error", "error", err)
				cancel()
			}
		}()
	}

	// Optional periodic refresh
	var sched *scheduler.Scheduler
	if cfg.RefreshCron != "" {
		sched = scheduler.New(ctrl, cfg.FetchTimeout*2)
		if err := sched.Register(ctx, cfg.RefreshCron); err != nil {
			slog.Error("failed to schedule refresh", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	if cfg.EnableTUI {
		// TUI mode (blocking)
		slog.Info("starting_tui")

		// Start TUI in goroutine so we can still handle signals
		go func() {
			if err := app.Run(); err != nil {
				slog.Error("tui_error", "error", err)
			}
			cancel()
		}()
		go bootstrap(ctx, ctrl, os.Args[1:], cfg.Highlight)

		// Wait for shutdown signal or the TUI quitting
		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
			app.Stop()
		case <-ctx.Done():
		}
	} else {
		if err := runHeadless(ctx, ctrl, os.Args[1:]); err != nil {
			slog.Error("headless_run_failed", "error", err)
			if srv == nil && sched == nil {
				os.Exit(1)
			}
		}

		// Keep serving until signalled
		if srv != nil || sched != nil {
			select {
			case sig := <-sigChan:
				slog.Info("shutdown_signal_received", "signal", sig.String())
			case <-ctx.Done():
			}
		}
	}

	cancel()

	// Graceful shutdown
	slog.Info("shutting_down")
	if sched != nil {
		sched.Stop()
	}
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http_shutdown_error", "error", err)
		}
		shutdownCancel()
	}

	slog.Info("shutdown_complete")
}

// bootstrap performs the initial loads of the interactive dashboard.
func bootstrap(ctx context.Context, ctrl *dashboard.Controller, args []string, highlight string) {
	coins, err := ctrl.LoadCoins(ctx)
	if err != nil {
		return
	}
	_, _ = ctrl.LoadInsights(ctx)

	initial := firstCoin(args, highlight, coins)
	if initial == "" {
		return
	}
	if _, err := ctrl.SelectCoin(ctx, initial); err != nil && !errors.Is(err, dashboard.ErrStaleResponse) {
		slog.Warn("initial_selection_failed", "coin", initial, "error", err)
	}
}

// runHeadless prints the coins named in args, or the first common coin.
func runHeadless(ctx context.Context, ctrl *dashboard.Controller, args []string) error {
	coins, err := ctrl.LoadCoins(ctx)
	if err != nil && len(args) == 0 {
		return err
	}
	if _, err := ctrl.LoadInsights(ctx); err != nil {
		slog.Warn("insights_unavailable", "error", err)
	}

	targets := args
	if len(targets) == 0 {
		if first := firstCoin(nil, "", coins); first != "" {
			targets = []string{first}
		}
	}

	var failed error
	for _, coin := range targets {
		if _, err := ctrl.SelectCoin(ctx, coin); err != nil {
			failed = errors.Join(failed, err)
		}
	}
	return failed
}

// firstCoin picks the initial selection: the first argument, then the
// highlighted coin, then the first common coin.
func firstCoin(args []string, highlight string, coins []string) string {
	switch {
	case len(args) > 0:
		return strings.ToUpper(args[0])
	case highlight != "":
		return highlight
	case len(coins) > 0:
		return coins[0]
	}
	return ""
}

func exchangeKeys(cfg *config.Config) string {
	keys := make([]string, len(cfg.Exchanges))
	for i, ex := range cfg.Exchanges {
		keys[i] = ex.Key
	}
	return strings.Join(keys, ",")
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(w, opts)
	return slog.New(handler)
}
