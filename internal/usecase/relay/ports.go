package relay

import (
	"context"
	"time"

	"osrs-bluesky-bot/internal/domain/entity"
)

// FeedItem is one entry of a parsed feed. Empty fields are absent fields.
type FeedItem struct {
	Title     string
	Summary   string
	Link      string
	Published string
	ImageURL  string
}

// FeedFetcher fetches and parses an RSS/Atom feed, preserving document order.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedItem, error)
}

// Session is an authenticated handle to the social network, scoped to one run.
type Session interface {
	// LatestPost returns the newest post authored by the session's account,
	// or nil if the account has none.
	LatestPost(ctx context.Context) (*entity.Post, error)

	// UploadBlob uploads media and returns its blob reference.
	UploadBlob(ctx context.Context, media *entity.Media) (*entity.BlobRef, error)

	// CreatePost submits payload and returns the new post's URI.
	CreatePost(ctx context.Context, payload entity.PostPayload) (string, error)

	// Close releases the session on the server.
	Close(ctx context.Context) error
}

// Authenticator exchanges account credentials for a Session.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (Session, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, identifier, password string) (Session, error)

// Login calls f.
func (f AuthenticatorFunc) Login(ctx context.Context, identifier, password string) (Session, error) {
	return f(ctx, identifier, password)
}

// MediaFetcher downloads media on a best-effort basis. It returns nil when
// the download fails for any reason.
type MediaFetcher interface {
	Download(ctx context.Context, url string) *entity.Media
}

// Recorder receives run metrics. A nil Recorder is replaced with a no-op.
type Recorder interface {
	ObserveStage(stage string, d time.Duration)
	RecordRun(outcome string)
	RecordPublished()
	RecordMediaFailure()
}

type noopRecorder struct{}

func (noopRecorder) ObserveStage(string, time.Duration) {}
func (noopRecorder) RecordRun(string)                   {}
func (noopRecorder) RecordPublished()                   {}
func (noopRecorder) RecordMediaFailure()                {}
