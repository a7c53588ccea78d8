package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"osrs-bluesky-bot/internal/domain/entity"
	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/resilience/retry"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultMaxBytes is the Bluesky blob size limit.
	DefaultMaxBytes = 1_000_000

	// maxPageBytes bounds HTML pages read while looking for a preview image.
	maxPageBytes = 10 * 1024 * 1024

	userAgent = "OSRSBlueskyBot/1.0"
)

// previewSelectors are tried in order on HTML pages.
var previewSelectors = []string{
	`meta[property="og:image:secure_url"]`,
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[property="twitter:image"]`,
}

// Fetcher implements relay.MediaFetcher over HTTP.
//
// A URL that serves an HTML page is resolved to the page's og:image (or
// twitter:image) and that image is downloaded instead. Only one such hop is
// followed.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a Fetcher. A maxBytes of zero or less means
// DefaultMaxBytes.
func NewFetcher(client *http.Client, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Download fetches the image at url. It returns nil on any failure; the
// cause is logged.
func (f *Fetcher) Download(ctx context.Context, url string) *entity.Media {
	media, err := f.download(ctx, url)
	if err != nil {
		logging.FromContext(ctx).Warn("media download failed",
			slog.String("event", "MediaDownloadFailure"),
			slog.String("url", url),
			slog.String("error", logging.SanitizeError(err)))
		return nil
	}
	return media
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*entity.Media, error) {
	body, mimeType, finalURL, err := f.get(ctx, rawURL, true)
	if err != nil {
		return nil, err
	}

	if mimeType == "text/html" || mimeType == "application/xhtml+xml" {
		imageURL, err := previewImage(body, finalURL)
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Debug("resolved preview image from page",
			slog.String("page", rawURL),
			slog.String("image", imageURL))

		body, mimeType, _, err = f.get(ctx, imageURL, false)
		if err != nil {
			return nil, fmt.Errorf("preview image: %w", err)
		}
		rawURL = imageURL
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	return &entity.Media{Data: body, MimeType: mimeType, SourceURL: rawURL}, nil
}

// get performs a GET and returns the body, its media type and the final URL
// after redirects. HTML bodies are only accepted when allowHTML is set.
func (f *Fetcher) get(ctx context.Context, rawURL string, allowHTML bool) ([]byte, string, *url.URL, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*, text/html;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	declared := mediaType(resp.Header.Get("Content-Type"))
	limit := f.maxBytes
	if allowHTML && (declared == "text/html" || declared == "application/xhtml+xml") {
		limit = maxPageBytes
	}
	if resp.ContentLength > limit {
		return nil, "", nil, fmt.Errorf("%w: content length %d exceeds %d bytes", ErrTooLarge, resp.ContentLength, limit)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, limit)
	}

	mimeType := declared
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mediaType(http.DetectContentType(data))
	}
	if !allowHTML && !strings.HasPrefix(mimeType, "image/") {
		return nil, "", nil, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return data, mimeType, finalURL, nil
}

// previewImage extracts the absolute preview image URL from an HTML page.
func previewImage(page []byte, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	for _, sel := range previewSelectors {
		content, ok := doc.Find(sel).First().Attr("content")
		content = strings.TrimSpace(content)
		if !ok || content == "" {
			continue
		}
		ref, err := url.Parse(content)
		if err != nil {
			continue
		}
		return base.ResolveReference(ref).String(), nil
	}

	return "", ErrNoPreviewImage
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	return nil
}
