package config

import (
	"log/slog"
	"time"

	pkgconfig "osrs-bluesky-bot/internal/pkg/config"
)

// Exit modes map a run's outcome to a process exit code.
const (
	// ExitModeTristate distinguishes "nothing new to post" from failure.
	ExitModeTristate = "tristate"
	// ExitModeLegacy reports "nothing new to post" as a failure.
	ExitModeLegacy = "legacy"
)

// Marker modes select how the newest feed entry is compared with the last post.
const (
	// MarkerModeSummary compares the entry summary with the last post text.
	MarkerModeSummary = "summary"
	// MarkerModeLink compares the entry link with the last post's embed URI.
	MarkerModeLink = "link"
)

// Options holds optional operational settings.
type Options struct {
	// Service is the PDS base URL. Default: https://bsky.social
	Service string

	// ExitMode is "tristate" (default) or "legacy".
	ExitMode string

	// MarkerMode is "summary" (default) or "link".
	MarkerMode string

	// HTTPTimeout bounds each outbound HTTP request. Default: 30s
	HTTPTimeout time.Duration

	// RunTimeout bounds the whole run. Default: 5m
	RunTimeout time.Duration

	// RetryMaxAttempts is the number of attempts per retryable call. Default: 1
	RetryMaxAttempts int

	// MediaMaxBytes caps the thumbnail download. Default: 1,000,000
	MediaMaxBytes int

	// PushgatewayURL enables pushing run metrics when non-empty.
	PushgatewayURL string
}

// DefaultOptions returns the defaults used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Service:          "https://bsky.social",
		ExitMode:         ExitModeTristate,
		MarkerMode:       MarkerModeSummary,
		HTTPTimeout:      30 * time.Second,
		RunTimeout:       5 * time.Minute,
		RetryMaxAttempts: 1,
		MediaMaxBytes:    1_000_000,
	}
}

// LoadOptions reads optional settings from the environment. Invalid values
// fall back to their defaults with a warning; LoadOptions never fails.
//
// Environment variables:
//   - BLUESKY_SERVICE
//   - BOT_EXIT_MODE
//   - BOT_MARKER_MODE
//   - BOT_HTTP_TIMEOUT
//   - BOT_RUN_TIMEOUT
//   - BOT_RETRY_MAX_ATTEMPTS
//   - BOT_MEDIA_MAX_BYTES
//   - PUSHGATEWAY_URL
func LoadOptions(logger *slog.Logger) Options {
	opts := DefaultOptions()

	opts.Service = warnFallback(logger, "Service",
		pkgconfig.LoadEnvWithFallback("BLUESKY_SERVICE", opts.Service, pkgconfig.ValidateHTTPURL))

	opts.ExitMode = warnFallback(logger, "ExitMode",
		pkgconfig.LoadEnvWithFallback("BOT_EXIT_MODE", opts.ExitMode,
			pkgconfig.ValidateOneOf(ExitModeTristate, ExitModeLegacy)))

	opts.MarkerMode = warnFallback(logger, "MarkerMode",
		pkgconfig.LoadEnvWithFallback("BOT_MARKER_MODE", opts.MarkerMode,
			pkgconfig.ValidateOneOf(MarkerModeSummary, MarkerModeLink)))

	opts.HTTPTimeout = warnFallback(logger, "HTTPTimeout",
		pkgconfig.LoadEnvDuration("BOT_HTTP_TIMEOUT", opts.HTTPTimeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
		}))

	opts.RunTimeout = warnFallback(logger, "RunTimeout",
		pkgconfig.LoadEnvDuration("BOT_RUN_TIMEOUT", opts.RunTimeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, 10*time.Second, time.Hour)
		}))

	opts.RetryMaxAttempts = warnFallback(logger, "RetryMaxAttempts",
		pkgconfig.LoadEnvInt("BOT_RETRY_MAX_ATTEMPTS", opts.RetryMaxAttempts, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 5)
		}))

	opts.MediaMaxBytes = warnFallback(logger, "MediaMaxBytes",
		pkgconfig.LoadEnvInt("BOT_MEDIA_MAX_BYTES", opts.MediaMaxBytes, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1024, 1_000_000)
		}))

	pushgateway := pkgconfig.LoadEnvString("PUSHGATEWAY_URL", "")
	if pushgateway != "" {
		if err := pkgconfig.ValidateHTTPURL(pushgateway); err != nil {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "PushgatewayURL"),
				slog.String("warning", err.Error()))
			pushgateway = ""
		}
	}
	opts.PushgatewayURL = pushgateway

	return opts
}

func warnFallback[T any](logger *slog.Logger, field string, result pkgconfig.LoadResult[T]) T {
	if result.FallbackApplied {
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}
	return result.Value
}
