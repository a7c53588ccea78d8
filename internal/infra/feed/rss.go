// Package feed fetches RSS/Atom feeds with gofeed and maps their entries onto
// relay.FeedItem.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/resilience/circuitbreaker"
	"osrs-bluesky-bot/internal/resilience/retry"
	"osrs-bluesky-bot/internal/usecase/relay"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// UserAgent is sent with every feed request.
const UserAgent = "OSRSBlueskyBot/1.0"

// RSSFetcher implements relay.FeedFetcher using the gofeed library.
// Requests go through a circuit breaker and retry.WithBackoff.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates an RSSFetcher that makes at most maxAttempts
// attempts per Fetch.
func NewRSSFetcher(client *http.Client, maxAttempts int) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(maxAttempts),
	}
}

// Fetch retrieves and parses the feed at feedURL. Entries are returned in
// document order. feedURL may also be a file:// URL or a local path.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]relay.FeedItem, error) {
	var items []relay.FeedItem

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			switch {
			case errors.Is(err, gobreaker.ErrOpenState):
				logging.FromContext(ctx).Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", f.circuitBreaker.Name()),
					slog.String("url", feedURL))
			case f.circuitBreaker.IsOpen():
				logging.FromContext(ctx).Warn("feed fetch circuit breaker tripped",
					slog.String("service", f.circuitBreaker.Name()),
					slog.String("url", feedURL))
			}
			return err
		}

		items = cbResult.([]relay.FeedItem)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("fetch feed: %w", retryErr)
	}

	return items, nil
}

func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]relay.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = UserAgent
	fp.Client = f.client

	var (
		parsed *gofeed.Feed
		err    error
	)
	if path, ok := localPath(feedURL); ok {
		parsed, err = parseFile(fp, path)
	} else {
		parsed, err = fp.ParseURLWithContext(feedURL, ctx)
	}
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}

	items := make([]relay.FeedItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		items = append(items, toFeedItem(it))
	}

	return items, nil
}

func parseFile(fp *gofeed.Parser, path string) (*gofeed.Feed, error) {
	file, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return fp.Parse(file)
}

// localPath reports whether feedURL refers to the local filesystem.
func localPath(feedURL string) (string, bool) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return u.Path, true
	case "":
		return feedURL, true
	default:
		return "", false
	}
}

// toFeedItem maps a gofeed item. The summary prefers Description, and the
// image prefers an enclosure over the item image and the first link.
func toFeedItem(it *gofeed.Item) relay.FeedItem {
	summary := it.Description
	if summary == "" {
		summary = it.Content
	}

	var firstLink string
	if len(it.Links) > 0 {
		firstLink = it.Links[0]
	}

	link := it.Link
	if link == "" {
		link = firstLink
	}

	image := firstLink
	switch {
	case len(it.Enclosures) > 0 && it.Enclosures[0] != nil && it.Enclosures[0].URL != "":
		image = it.Enclosures[0].URL
	case it.Image != nil && it.Image.URL != "":
		image = it.Image.URL
	}

	return relay.FeedItem{
		Title:     it.Title,
		Summary:   summary,
		Link:      link,
		Published: it.Published,
		ImageURL:  image,
	}
}
