// Package config loads the bot's configuration from the process environment.
//
// Three settings are required and checked in a fixed order; loading stops at
// the first absent key. Operational settings are optional and fall back to
// defaults (see Options).
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Required environment variables, in the order they are checked.
const (
	EnvUsername = "BLUESKY_USERNAME"
	EnvPassword = "BLUESKY_PASSWORD"
	EnvFeedURL  = "OSRS_RSS_URL"
)

// Config is the immutable per-run configuration.
type Config struct {
	// AccountID is the Bluesky handle, DID or email used to log in.
	AccountID string

	// AccountSecret is the account or app password.
	AccountSecret string

	// FeedURL is the RSS/Atom feed to poll.
	FeedURL string
}

// LogValue implements slog.LogValuer so that the secret never reaches logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("account_id", c.AccountID),
		slog.String("account_secret", "****"),
		slog.String("feed_url", c.FeedURL),
	)
}

// Load reads the required keys from the environment.
//
// A key counts as present even when its value is empty. On the first absent
// key, Load logs which key it was and returns a *MissingKeyError; later keys
// are not inspected.
func Load(logger *slog.Logger) (*Config, error) {
	logger.Info("loading environment variables")

	values := make(map[string]string, 3)
	for _, key := range []string{EnvUsername, EnvPassword, EnvFeedURL} {
		v, ok := os.LookupEnv(key)
		if !ok {
			logger.Error("required environment variable not set", slog.String("key", key))
			return nil, &MissingKeyError{Key: key}
		}
		values[key] = v
	}

	return &Config{
		AccountID:     values[EnvUsername],
		AccountSecret: values[EnvPassword],
		FeedURL:       values[EnvFeedURL],
	}, nil
}

// LoadDotEnv loads variables from the given files (".env" if none) into the
// process environment. Variables already set are not overridden and missing
// files are skipped.
func LoadDotEnv(logger *slog.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		switch {
		case err == nil:
			logger.Debug("loaded env file", slog.String("file", file))
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			logger.Warn("failed to load env file", slog.String("file", file), slog.Any("error", err))
		}
	}
}
