package relay

import (
	"context"
	"log/slog"

	"osrs-bluesky-bot/internal/observability/logging"
)

// FetchMarker reads the account's newest post. It never fails: when the
// account has no posts or the lookup errors, it returns the unknown Marker,
// so the next feed entry is treated as new.
func FetchMarker(ctx context.Context, session Session) Marker {
	logger := logging.FromContext(ctx)

	post, err := session.LatestPost(ctx)
	if err != nil {
		logger.Warn("cannot get previous post",
			slog.String("error", logging.SanitizeError(err)))
		return Marker{}
	}
	if post == nil {
		logger.Info("account has no previous posts")
		return Marker{}
	}

	logger.Debug("fetched previous post",
		slog.String("uri", post.URI),
		slog.String("external_uri", post.ExternalURI))

	return Marker{Text: post.Text, Link: post.ExternalURI}
}

// FetchLastPostBody returns the plain-text body of the account's newest post,
// or "" when it is unavailable.
func FetchLastPostBody(ctx context.Context, session Session) string {
	return FetchMarker(ctx, session).Text
}
