package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "custom_value")
	assert.Equal(t, "custom_value", LoadEnvString("TEST_STRING", "default_value"))

	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "default_value", LoadEnvString("TEST_STRING", "default_value"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	validator := ValidateOneOf("tristate", "legacy")

	tests := []struct {
		name         string
		value        string
		want         string
		wantFallback bool
	}{
		{name: "unset uses default silently", value: "", want: "tristate"},
		{name: "valid value", value: "legacy", want: "legacy"},
		{name: "surrounding whitespace trimmed", value: " legacy ", want: "legacy"},
		{name: "invalid value falls back", value: "binary", want: "tristate", wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_MODE", tt.value)

			result := LoadEnvWithFallback("TEST_MODE", "tristate", validator)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, result.Warnings, 1)
				assert.Contains(t, result.Warnings[0], "TEST_MODE")
			} else {
				assert.Empty(t, result.Warnings)
			}
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	inRange := func(d time.Duration) error { return ValidateDuration(d, time.Second, 5*time.Minute) }

	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{name: "unset", value: "", want: 30 * time.Second},
		{name: "valid", value: "1m30s", want: 90 * time.Second},
		{name: "unparseable", value: "soon", want: 30 * time.Second, wantFallback: true},
		{name: "below minimum", value: "10ms", want: 30 * time.Second, wantFallback: true},
		{name: "above maximum", value: "1h", want: 30 * time.Second, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIMEOUT", tt.value)

			result := LoadEnvDuration("TEST_TIMEOUT", 30*time.Second, inRange)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 5) }

	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{name: "unset", value: "", want: 1},
		{name: "valid", value: "3", want: 3},
		{name: "decimal rejected", value: "2.5", want: 1, wantFallback: true},
		{name: "whitespace rejected", value: " 3", want: 1, wantFallback: true},
		{name: "out of range", value: "9", want: 1, wantFallback: true},
		{name: "negative", value: "-1", want: 1, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ATTEMPTS", tt.value)

			result := LoadEnvInt("TEST_ATTEMPTS", 1, inRange)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("TEST_FLAG", "true")
	assert.True(t, LoadEnvBool("TEST_FLAG", false).Value)

	t.Setenv("TEST_FLAG", "maybe")
	result := LoadEnvBool("TEST_FLAG", false)
	assert.False(t, result.Value)
	assert.True(t, result.FallbackApplied)
}
