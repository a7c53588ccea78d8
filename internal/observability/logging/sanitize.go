package logging

import (
	"regexp"
	"strings"
)

var (
	// atproto access and refresh tokens are JWTs.
	jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)

	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)\S+`)

	// app passwords look like xxxx-xxxx-xxxx-xxxx
	appPasswordPattern = regexp.MustCompile(`\b[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}\b`)
)

// SanitizeError returns err's message with tokens and passwords masked.
// secrets are additional literal values to mask, such as the account password.
func SanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), secrets...)
}

// SanitizeString masks tokens and passwords in msg.
func SanitizeString(msg string, secrets ...string) string {
	for _, s := range secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, "****")
		}
	}
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = jwtPattern.ReplaceAllString(msg, "eyJ****")
	msg = appPasswordPattern.ReplaceAllString(msg, "****-****-****-****")
	return msg
}
