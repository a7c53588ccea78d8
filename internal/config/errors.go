package config

import (
	"errors"
	"fmt"
)

// ErrMissingConfigKey indicates that a required environment variable is absent.
var ErrMissingConfigKey = errors.New("missing required configuration key")

// MissingKeyError names the first required key found absent.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingConfigKey.Error(), e.Key)
}

// Unwrap allows errors.Is(err, ErrMissingConfigKey).
func (e *MissingKeyError) Unwrap() error {
	return ErrMissingConfigKey
}
