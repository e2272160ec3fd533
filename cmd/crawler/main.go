package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/config"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/crawler"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/output/bundle"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/process/enrich"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/progress"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/waweb"
)

func main() {
	list := flag.Bool("list", false, "List visible groups with member counts and exit")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogPretty)
	setLogLevel(cfg.LogLevel)

	since, err := cfg.Since()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid EXPORT_SINCE")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := waweb.New(waweb.Config{
		ChromeBin:   cfg.ChromeBin,
		DebuggerURL: cfg.DebuggerURL,
		Headless:    cfg.ChromeHeadless,
		UserDataDir: cfg.UserDataDir,
		NavTimeout:  cfg.NavTimeout,
	}, logger)

	if err := client.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open WhatsApp Web")
	}
	defer client.Close()

	bus := progress.NewBus()
	renderDone := make(chan struct{})

	go renderProgress(ctx, bus, logger, renderDone)

	retry := crawler.RetryConfig{
		MaxRetries:   cfg.RetryAttempts,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     cfg.RetryMaxDelay,
	}
	discovery := crawler.NewDiscovery(client, retry, bus, logger)

	crawl := crawler.New(client, crawler.Config{
		ReadyTimeout: cfg.ReadyTimeout,
		ReadyPoll:    cfg.ReadyPoll,
		MaxMessages:  cfg.MaxMessages,
		PageDelay:    cfg.PageDelay,
		Retry:        retry,
	}, bus, logger)

	writer := bundle.New(cfg.ExportDir, logger)
	runner := crawler.NewRunner(crawl, discovery, writer, enrich.Settings{Since: since}, bus, logger)

	healthServer := startHealthServer(ctx, cfg, client, runner, logger)

	if err := client.AwaitLogin(ctx); err != nil {
		logger.Fatal().Err(err).Msg("WhatsApp Web session did not become ready")
	}

	if healthServer != nil {
		healthServer.SetReady(true)
	}

	if *list {
		err := printGroups(ctx, discovery)

		bus.Close()
		<-renderDone

		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to list groups")
		}

		return
	}

	groups := flag.Args()
	if len(groups) == 0 {
		groups = cfg.SelectedGroups()
	}

	summary, err := runner.Run(ctx, groups)

	bus.Close()
	<-renderDone

	logSummary(logger, summary)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("Crawler stopped")
			return
		}

		logger.Fatal().Err(err).Msg("Crawler error")
	}
}

func newLogger(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// setLogLevel sets the global log level based on the configuration.
func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func startHealthServer(ctx context.Context, cfg *config.Config, client *waweb.Client, runner *crawler.Runner, logger zerolog.Logger) *observability.HealthServer {
	if cfg.HealthPort <= 0 {
		return nil
	}

	start := time.Now()
	stats := func(context.Context) (interface{}, error) {
		return map[string]interface{}{
			"uptime": time.Since(start).String(),
			"run":    runner.Stats(),
		}, nil
	}

	hs := observability.NewHealthServer(client, stats, cfg.HealthPort)

	go func() {
		logger.Info().Int("port", cfg.HealthPort).Msg("Starting health server")

		if err := hs.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()

	return hs
}

func renderProgress(ctx context.Context, bus *progress.Bus, logger zerolog.Logger, done chan<- struct{}) {
	defer close(done)

	for {
		ev, ok := bus.Next(ctx)
		if !ok {
			return
		}

		logger.Info().
			Str("group", ev.Group).
			Str("stage", string(ev.Stage)).
			Int("current", ev.Current).
			Int("total", ev.Total).
			Msg(ev.Message)
	}
}

func printGroups(ctx context.Context, discovery *crawler.Discovery) error {
	groups, err := discovery.Groups(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%7s  %-32s  %s\n", "MEMBERS", "NAME", "ID")

	for _, g := range groups {
		fmt.Printf("%7d  %-32s  %s\n", g.MemberCount, g.Name, g.ID)
	}

	return nil
}

func logSummary(logger zerolog.Logger, summary domain.RunSummary) {
	for _, res := range summary.Results {
		ev := logger.Info()
		if res.Status == domain.StatusFailed {
			ev = logger.Error()
		}

		ev.Str("group", res.GroupName).
			Str("status", string(res.Status)).
			Int("messages", res.MessageCount).
			Int("pages", res.Pages)

		if res.OutputPath != "" {
			ev.Str("path", res.OutputPath)
		}

		if res.Error != "" {
			ev.Str("error", res.Error)
		}

		if len(res.Notes) > 0 {
			ev.Strs("notes", res.Notes)
		}

		ev.Msg("Group finished")
	}

	logger.Info().
		Int("total", summary.TotalGroups).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Run complete")
}
