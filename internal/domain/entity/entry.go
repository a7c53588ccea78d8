// Package entity defines the core domain entities passed through the relay
// pipeline: the feed entry detected as new, the media side-loaded for its
// link preview, and the post payload submitted to the social network.
package entity

// FeedEntry is the normalized form of the newest item of the configured feed.
// It exists only for the duration of a single run.
type FeedEntry struct {
	Title         string
	Summary       string
	Link          string
	PublishedDate string
	ImageURL      string
}

// Validate reports the first required field that is empty.
// PublishedDate is informational and not required for publishing.
func (e *FeedEntry) Validate() error {
	if e == nil {
		return &ValidationError{Field: "entry", Message: "is nil"}
	}

	required := []struct {
		field string
		value string
	}{
		{"title", e.Title},
		{"summary", e.Summary},
		{"link", e.Link},
		{"imageUrl", e.ImageURL},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: "is missing"}
		}
	}

	return nil
}

// Media is a downloaded binary payload destined for a blob upload.
type Media struct {
	Data      []byte
	MimeType  string
	SourceURL string
}
