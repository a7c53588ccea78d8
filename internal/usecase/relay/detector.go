package relay

import (
	"context"
	"fmt"
	"log/slog"

	"osrs-bluesky-bot/internal/domain/entity"
	"osrs-bluesky-bot/internal/observability/logging"
)

// Detector decides whether the feed's newest entry is unseen.
type Detector struct {
	fetcher  FeedFetcher
	strategy MarkerStrategy
}

// NewDetector creates a Detector. A nil strategy means SummaryMarker.
func NewDetector(fetcher FeedFetcher, strategy MarkerStrategy) *Detector {
	if strategy == nil {
		strategy = SummaryMarker{}
	}
	return &Detector{fetcher: fetcher, strategy: strategy}
}

// Detect fetches feedURL and compares its first entry with marker.
//
// Only the first entry is ever considered. It returns ErrFeedUnavailable when
// the feed cannot be fetched, is empty, or the first entry lacks a field, and
// ErrNoNewItem when the entry has already been published. The summary is
// checked and compared before the remaining fields are inspected.
func (d *Detector) Detect(ctx context.Context, feedURL string, marker Marker) (*entity.FeedEntry, error) {
	logger := logging.FromContext(ctx)

	items, err := d.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		logger.Warn("cannot find content in feed",
			slog.String("url", feedURL),
			slog.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	if len(items) == 0 {
		logger.Warn("cannot find content in feed", slog.String("url", feedURL), slog.String("reason", "no entries"))
		return nil, fmt.Errorf("%w: feed has no entries", ErrFeedUnavailable)
	}

	newest := items[0]
	if newest.Summary == "" {
		return nil, missingField(logger, feedURL, "summary")
	}

	if d.strategy.Seen(marker, newest) {
		logger.Info("newest feed entry already posted",
			slog.String("strategy", d.strategy.Name()),
			slog.String("link", newest.Link))
		return nil, ErrNoNewItem
	}

	for _, f := range []struct{ name, value string }{
		{"title", newest.Title},
		{"link", newest.Link},
		{"published", newest.Published},
		{"image", newest.ImageURL},
	} {
		if f.value == "" {
			return nil, missingField(logger, feedURL, f.name)
		}
	}

	return &entity.FeedEntry{
		Title:         newest.Title,
		Summary:       newest.Summary,
		Link:          newest.Link,
		PublishedDate: newest.Published,
		ImageURL:      newest.ImageURL,
	}, nil
}

func missingField(logger *slog.Logger, feedURL, field string) error {
	logger.Warn("cannot find content in feed",
		slog.String("url", feedURL),
		slog.String("missing_field", field))
	return fmt.Errorf("%w: newest entry has no %s", ErrFeedUnavailable, field)
}
