// Command bot relays the newest entry of an RSS/Atom feed to Bluesky. Each
// invocation performs one fetch-check-post cycle and exits; scheduling is left
// to cron, systemd timers or CI.
//
// Exit codes: 0 posted, 1 failed, 2 nothing new (1 when BOT_EXIT_MODE=legacy).
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"time"

	"osrs-bluesky-bot/internal/config"
	"osrs-bluesky-bot/internal/infra/bluesky"
	"osrs-bluesky-bot/internal/infra/feed"
	"osrs-bluesky-bot/internal/infra/media"
	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/observability/metrics"
	"osrs-bluesky-bot/internal/usecase/relay"
)

const metricsPushTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	logger := initLogger()

	config.LoadDotEnv(logger)
	opts := config.LoadOptions(logger)

	runID := logging.NewRunID()
	logger = logging.WithRunID(logger, runID)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), opts.RunTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	logger.Info("bot starting",
		slog.String("service", opts.Service),
		slog.String("exit_mode", opts.ExitMode),
		slog.String("marker_mode", opts.MarkerMode),
		slog.Duration("run_timeout", opts.RunTimeout),
		slog.Int("retry_max_attempts", opts.RetryMaxAttempts))

	status := relay.NewStatus(os.Stdout)
	runMetrics := metrics.NewRunMetrics()

	orchestrator, err := buildOrchestrator(logger, opts, status, runMetrics)
	if err != nil {
		logger.Error("failed to initialize bot", slog.Any("error", err))
		status.Line(relay.Result{Outcome: relay.OutcomeFailed}.FinalMessage(opts.ExitMode))
		return relay.ExitFailed
	}

	result := orchestrator.Run(ctx)
	status.Line(result.FinalMessage(opts.ExitMode))

	pushMetrics(logger, runMetrics, opts.PushgatewayURL)

	return result.ExitCode(opts.ExitMode)
}

// initLogger writes JSON logs to stderr so stdout carries only status lines.
func initLogger() *slog.Logger {
	logger := logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return logger
}

func buildOrchestrator(logger *slog.Logger, opts config.Options, status *relay.Status, runMetrics *metrics.RunMetrics) (*relay.Orchestrator, error) {
	httpClient := createHTTPClient(opts.HTTPTimeout)

	bskyConfig := bluesky.DefaultConfig()
	bskyConfig.Service = opts.Service
	bskyConfig.RetryMaxAttempts = opts.RetryMaxAttempts
	client, err := bluesky.NewClient(httpClient, bskyConfig)
	if err != nil {
		return nil, err
	}

	strategy, err := relay.StrategyFor(opts.MarkerMode)
	if err != nil {
		return nil, err
	}

	auth := relay.AuthenticatorFunc(func(ctx context.Context, identifier, password string) (relay.Session, error) {
		session, err := client.Login(ctx, identifier, password)
		if err != nil {
			return nil, err
		}
		return session, nil
	})

	detector := relay.NewDetector(feed.NewRSSFetcher(httpClient, opts.RetryMaxAttempts), strategy)
	publisher := relay.NewPublisher(media.NewFetcher(httpClient, int64(opts.MediaMaxBytes)), runMetrics)

	loadConfig := func() (*config.Config, error) {
		return config.Load(logger)
	}

	return relay.NewOrchestrator(loadConfig, auth, detector, publisher, status, runMetrics), nil
}

// createHTTPClient creates the shared HTTP client for feed, media and XRPC calls.
func createHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
	}
}

func pushMetrics(logger *slog.Logger, runMetrics *metrics.RunMetrics, pushgatewayURL string) {
	if pushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()

	instance, _ := os.Hostname()
	if err := runMetrics.Push(ctx, pushgatewayURL, instance); err != nil {
		logger.Warn("failed to push metrics", slog.String("error", logging.SanitizeError(err)))
		return
	}
	logger.Debug("metrics pushed", slog.String("pushgateway", pushgatewayURL))
}
