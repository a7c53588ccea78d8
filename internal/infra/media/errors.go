// Package media downloads link-preview thumbnails.
package media

import "errors"

var (
	// ErrInvalidURL indicates that the media URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid media URL")

	// ErrTooLarge indicates that the response body exceeds the size limit.
	ErrTooLarge = errors.New("media exceeds size limit")

	// ErrNotImage indicates that the response is neither an image nor an
	// HTML page advertising one.
	ErrNotImage = errors.New("media is not an image")

	// ErrNoPreviewImage indicates that an HTML page has no og:image or
	// twitter:image meta tag.
	ErrNoPreviewImage = errors.New("page has no preview image")
)
