package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"osrs-bluesky-bot/internal/domain/entity"
	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/utils/text"
)

// Publisher turns a detected entry into a post with a thumbnail.
type Publisher struct {
	media    MediaFetcher
	recorder Recorder
	now      func() time.Time
}

// NewPublisher creates a Publisher. recorder may be nil.
func NewPublisher(media MediaFetcher, recorder Recorder) *Publisher {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Publisher{media: media, recorder: recorder, now: time.Now}
}

// Publish validates entry, downloads and uploads its image, and submits the
// post. It returns the URI of the created post.
//
// Validation happens before any network I/O. A missing image is a publish
// failure, not a reason to post without a thumbnail. Every error wraps
// ErrPublish; a blob uploaded before a failed submit is left orphaned.
func (p *Publisher) Publish(ctx context.Context, session Session, entry *entity.FeedEntry) (string, error) {
	logger := logging.FromContext(ctx)

	if err := entry.Validate(); err != nil {
		logger.Error("feed entry is incomplete", slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}

	if text.ExceedsPostLimit(entry.Summary) {
		logger.Warn("post text is longer than the server limit and may be rejected",
			slog.Int("runes", text.CountRunes(entry.Summary)),
			slog.Int("limit", text.PostLengthLimit))
	}

	media := p.media.Download(ctx, entry.ImageURL)
	if media == nil {
		p.recorder.RecordMediaFailure()
		logger.Error("thumbnail unavailable", slog.String("image_url", entry.ImageURL))
		return "", fmt.Errorf("%w: %w", ErrPublish, ErrMediaMissing)
	}

	blob, err := session.UploadBlob(ctx, media)
	if err != nil {
		logger.Error("blob upload failed", slog.String("error", logging.SanitizeError(err)))
		return "", fmt.Errorf("%w: upload blob: %w", ErrPublish, err)
	}
	logger.Debug("blob uploaded",
		slog.String("cid", blob.CID),
		slog.String("mime_type", blob.MimeType),
		slog.Int64("size", blob.Size))

	payload := Compose(entry, blob, p.now())

	uri, err := session.CreatePost(ctx, payload)
	if err != nil {
		logger.Error("post submission failed",
			slog.String("error", logging.SanitizeError(err)),
			slog.String("orphaned_blob", blob.CID))
		return "", fmt.Errorf("%w: create post: %w", ErrPublish, err)
	}

	p.recorder.RecordPublished()
	logger.Info("post published", slog.String("uri", uri), slog.String("link", entry.Link))

	return uri, nil
}
