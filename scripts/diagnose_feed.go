// Command diagnose_feed checks that a feed can be relayed without touching
// Bluesky: it fetches the feed, runs change detection against an unknown
// marker and downloads the thumbnail.
//
// Usage:
//
//	go run ./scripts/diagnose_feed.go [feed-url]
//
// The URL defaults to $OSRS_RSS_URL.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"osrs-bluesky-bot/internal/config"
	"osrs-bluesky-bot/internal/infra/feed"
	"osrs-bluesky-bot/internal/infra/media"
	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/usecase/relay"
)

// FeedDiagnostic is the diagnostic result for the configured feed.
type FeedDiagnostic struct {
	URL          string          `json:"url"`
	Status       string          `json:"status"` // "OK", "FETCH_ERROR", "EMPTY", "INCOMPLETE", "NO_MEDIA"
	ItemCount    int             `json:"item_count"`
	Newest       *relay.FeedItem `json:"newest,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	MediaType    string          `json:"media_type,omitempty"`
	MediaBytes   int             `json:"media_bytes,omitempty"`
	MediaSource  string          `json:"media_source,omitempty"`
	ResponseTime int64           `json:"response_time_ms"`
}

// staticFetcher serves already-fetched items to the detector.
type staticFetcher []relay.FeedItem

func (s staticFetcher) Fetch(context.Context, string) ([]relay.FeedItem, error) {
	return s, nil
}

func main() {
	url := os.Getenv(config.EnvFeedURL)
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	if url == "" {
		log.Fatalf("usage: diagnose_feed <feed-url> (or set %s)", config.EnvFeedURL)
	}

	diag := diagnoseFeed(url, 30*time.Second)

	generateReport(diag)
	generateJSONReport(diag)

	if diag.Status != "OK" {
		os.Exit(1)
	}
}

func diagnoseFeed(url string, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{URL: url}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logging.NewTextLogger(os.Stderr))

	client := &http.Client{Timeout: timeout}

	startTime := time.Now()
	items, err := feed.NewRSSFetcher(client, 1).Fetch(ctx, url)
	diag.ResponseTime = time.Since(startTime).Milliseconds()
	if err != nil {
		diag.Status = "FETCH_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.ItemCount = len(items)
	if len(items) == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "Feed has no items"
		return diag
	}
	diag.Newest = &items[0]

	entry, err := relay.NewDetector(staticFetcher(items), nil).Detect(ctx, url, relay.Marker{})
	if err != nil {
		diag.Status = "INCOMPLETE"
		diag.ErrorMessage = err.Error()
		return diag
	}

	m := media.NewFetcher(client, media.DefaultMaxBytes).Download(ctx, entry.ImageURL)
	if m == nil {
		diag.Status = "NO_MEDIA"
		diag.ErrorMessage = fmt.Sprintf("thumbnail %s could not be downloaded", entry.ImageURL)
		return diag
	}
	diag.MediaType = m.MimeType
	diag.MediaBytes = len(m.Data)
	diag.MediaSource = m.SourceURL

	diag.Status = "OK"
	return diag
}

func generateReport(diag FeedDiagnostic) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("FEED DIAGNOSTIC REPORT")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("URL:           %s\n", diag.URL)
	fmt.Printf("Status:        %s\n", diag.Status)
	fmt.Printf("Items:         %d\n", diag.ItemCount)
	fmt.Printf("Response time: %dms\n", diag.ResponseTime)
	if diag.Newest != nil {
		fmt.Println()
		fmt.Println("Newest entry:")
		fmt.Printf("  title:     %s\n", diag.Newest.Title)
		fmt.Printf("  summary:   %s\n", diag.Newest.Summary)
		fmt.Printf("  link:      %s\n", diag.Newest.Link)
		fmt.Printf("  published: %s\n", diag.Newest.Published)
		fmt.Printf("  image:     %s\n", diag.Newest.ImageURL)
	}
	if diag.MediaSource != "" {
		fmt.Printf("\nThumbnail: %s (%s, %d bytes)\n", diag.MediaSource, diag.MediaType, diag.MediaBytes)
	}
	if diag.ErrorMessage != "" {
		fmt.Printf("\nError: %s\n", diag.ErrorMessage)
	}
	fmt.Println()
}

func generateJSONReport(diag FeedDiagnostic) {
	data, err := json.MarshalIndent(diag, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal JSON report: %v", err)
		return
	}

	const path = "feed_diagnostic_report.json"
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}
	log.Printf("JSON report written to %s", path)
}
