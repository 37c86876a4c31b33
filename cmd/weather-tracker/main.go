package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	httpapi "github.com/i474232898/weather-tracker/internal/api/http"
	"github.com/i474232898/weather-tracker/internal/config"
	"github.com/i474232898/weather-tracker/internal/logging"
	"github.com/i474232898/weather-tracker/internal/present"
	"github.com/i474232898/weather-tracker/internal/prompt"
	"github.com/i474232898/weather-tracker/internal/scheduler"
	"github.com/i474232898/weather-tracker/internal/session"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/summary"
	"github.com/i474232898/weather-tracker/internal/weather"
	"github.com/i474232898/weather-tracker/internal/weather/providers"
)

const appName = "weather-tracker"

var version = "dev"

const usage = `Real-Time Weather Tracker.

Polls current conditions for one city, logs every reading to CSV and JSON,
and prints historical statistics for the city when stopped with Ctrl+C.

Usage:
  weather-tracker [options]
  weather-tracker -h | --help
  weather-tracker --version

Options:
  -h --help               Show this screen.
  --version               Show version.
  --city=<name>           City to track; prompts when omitted.
  --interval=<duration>   Delay between polls, e.g. 30s.
  --csv=<path>            CSV log path.
  --json=<path>           JSON log path.
  --dashboard=<addr>      Serve the live dashboard on addr, e.g. :8080.
  --config=<file>         YAML config file.
`

func main() {
	opts, err := docopt.ParseArgs(usage, nil, version)
	if err != nil {
		log.Fatalf("failed to parse arguments: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := applyFlags(cfg, opts); err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stderr, *cfg, version, appName)
	slog.SetDefault(logger)

	os.Exit(run(cfg, logger))
}

func run(cfg *config.AppConfig, logger *slog.Logger) int {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	httpCfg := providers.DefaultHTTPConfig(httpClient)
	httpCfg.Backoff.MaxRetries = cfg.FetchMaxRetries

	geo := newGeocoder(cfg, httpCfg)
	fetcher := providers.NewOpenMeteoProvider(httpCfg)

	interactive := present.IsTerminal(os.Stdout)
	prompt.Banner(os.Stdout, "Real-Time Weather Tracker")

	city := cfg.City
	if city == "" {
		var err error
		city, err = prompt.ReadCity(os.Stdin, os.Stdout, interactive && present.IsTerminal(os.Stdin))
		if err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return 0
			}
			fmt.Println("City name cannot be empty.")
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	csvLog := store.NewCSVLog(cfg.CSVLogPath)
	jsonLog := store.NewJSONLog(cfg.JSONLogPath)

	var live atomic.Pointer[store.Series]
	var app *fiber.App
	if cfg.DashboardAddr != "" {
		app = startDashboard(cfg.DashboardAddr, live.Load, csvLog, logger)
	}

	driver := session.NewDriver(
		geo,
		fetcher,
		store.Tee{csvLog, jsonLog},
		present.New(os.Stdout, liveRedraw(cfg, interactive)),
		summary.NewReporter(csvLog, os.Stdout, logger),
		session.WithLogger(logger),
		session.OnResolve(live.Store),
	)

	err := driver.Run(ctx, city, scheduler.New(cfg.FetchInterval, logger))
	logger.Info("session finished", "session_id", driver.ID(), "iterations", driver.Iteration())

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("dashboard shutdown", "error", err)
		}
	}

	var rerr *weather.ResolutionError
	switch {
	case errors.As(err, &rerr):
		fmt.Println("Invalid city name")
		return 1
	case err != nil:
		logger.Error("session failed", "error", err)
		return 1
	}
	return 0
}

// liveRedraw reports whether frames may be redrawn in place. Dashboard access
// logs share the terminal and would be overwritten.
func liveRedraw(cfg *config.AppConfig, stdoutIsTerminal bool) bool {
	return stdoutIsTerminal && cfg.DashboardAddr == ""
}

func newGeocoder(cfg *config.AppConfig, httpCfg providers.HTTPClientConfig) weather.Geocoder {
	if cfg.Geocoder == "google" {
		return providers.NewGoogleGeocoder(cfg.GoogleAPIKey)
	}
	return providers.NewOpenMeteoGeocoder(httpCfg)
}

func startDashboard(addr string, series httpapi.SeriesSource, history store.Reader, logger *slog.Logger) *fiber.App {
	app := httpapi.NewApp()
	// Access logs go to stderr, away from the live chart.
	app.Use(fiberlogger.New(fiberlogger.Config{Output: os.Stderr}))
	httpapi.RegisterRoutes(app, series, history)

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Error("dashboard stopped", "error", err)
		}
	}()
	logger.Info("dashboard listening", "addr", addr)
	return app
}

// applyFlags overlays command-line options onto cfg. --config is applied
// first so explicit flags win over the file.
func applyFlags(cfg *config.AppConfig, opts docopt.Opts) error {
	if path, _ := opts.String("--config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return err
		}
	}
	if city, _ := opts.String("--city"); city != "" {
		clean, err := prompt.Clean(city)
		if err != nil {
			return err
		}
		cfg.City = clean
	}
	if s, _ := opts.String("--interval"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --interval: %w", err)
		}
		cfg.FetchInterval = d
	}
	if p, _ := opts.String("--csv"); p != "" {
		cfg.CSVLogPath = p
	}
	if p, _ := opts.String("--json"); p != "" {
		cfg.JSONLogPath = p
	}
	if addr, _ := opts.String("--dashboard"); addr != "" {
		cfg.DashboardAddr = addr
	}
	return nil
}
