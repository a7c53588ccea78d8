// Package relay implements the bot's single fetch-check-post cycle: it reads
// the account's latest post as a de-duplication marker, detects whether the
// feed's newest entry is unseen, and publishes it as a link-preview post.
package relay

import "errors"

// Sentinel errors for relay operations. Every component converts failures of
// its collaborators into one of these (wrapped with context).
var (
	// ErrAuth indicates that the login call failed.
	ErrAuth = errors.New("authentication failed")

	// ErrFeedUnavailable indicates that the feed could not be fetched or
	// parsed, had no entries, or its newest entry lacked an expected field.
	ErrFeedUnavailable = errors.New("cannot find content in feed")

	// ErrNoNewItem indicates that the newest feed entry matches the marker.
	// It is a benign early exit, not a failure of any collaborator.
	ErrNoNewItem = errors.New("no new feed item")

	// ErrMediaMissing indicates that the thumbnail could not be downloaded.
	ErrMediaMissing = errors.New("media payload is absent")

	// ErrPublish indicates that validation, upload or post submission failed.
	ErrPublish = errors.New("publish failed")
)
