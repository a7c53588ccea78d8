// Package config provides fail-open environment loaders and reusable validators
// for optional operational settings.
//
// Every loader returns a LoadResult: when the variable is unset the default is
// used silently, when it is set but fails parsing or validation the default is
// used and a warning is attached so the caller can log it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading a single configuration value.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the value of envKey, or defaultValue if unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it.
//
// Example:
//
//	result := LoadEnvWithFallback("BOT_EXIT_MODE", "tristate", ValidateOneOf("tristate", "legacy"))
//	mode := result.Value
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return load(envKey, defaultValue, func(raw string) (string, error) {
		return strings.TrimSpace(raw), nil
	}, validator)
}

// LoadEnvDuration loads a value parseable by time.ParseDuration (e.g., "30s", "5m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer. Surrounding whitespace is not accepted.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return load(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvBool loads a boolean accepted by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return load(envKey, defaultValue, strconv.ParseBool, nil)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, fmt.Errorf("parse: %w", err))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}

	return LoadResult[T]{Value: parsed}
}

func fallback[T any](envKey, raw string, defaultValue T, cause error) LoadResult[T] {
	return LoadResult[T]{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, cause, defaultValue,
		)},
		FallbackApplied: true,
	}
}
