package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"osrs-bluesky-bot/internal/domain/entity"
	"osrs-bluesky-bot/internal/observability/logging"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/ipfs/go-cid"
)

const collectionPost = "app.bsky.feed.post"

var postLangs = []string{"en"}

// Session is an authenticated account session. Close must be called once
// the session is no longer needed.
type Session struct {
	client *Client

	DID    string
	Handle string

	mu         sync.Mutex
	accessJwt  string
	refreshJwt string
	expiresAt  time.Time
	closed     bool
}

// accessToken returns the token for an authenticated call.
func (s *Session) accessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}
	if !s.expiresAt.IsZero() && !s.client.now().Before(s.expiresAt) {
		return "", fmt.Errorf("%w at %s", ErrSessionExpired, s.expiresAt.UTC().Format(time.RFC3339))
	}
	return s.accessJwt, nil
}

// LatestPost returns the newest app.bsky.feed.post record of the account, or
// nil if it has none.
func (s *Session) LatestPost(ctx context.Context) (*entity.Post, error) {
	token, err := s.accessToken()
	if err != nil {
		return nil, err
	}

	var out *atproto.RepoListRecords_Output
	err = s.client.call(ctx, true, func() error {
		var err error
		out, err = atproto.RepoListRecords(ctx, s.client.lex(token, nil), collectionPost, "", 1, s.DID, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	if len(out.Records) == 0 {
		return nil, nil
	}

	rec := out.Records[0]
	if rec.Value == nil {
		return nil, fmt.Errorf("%w: listRecords: record without value", ErrMalformedResponse)
	}
	fp, ok := rec.Value.Val.(*bsky.FeedPost)
	if !ok {
		return nil, fmt.Errorf("%w: listRecords: record is %T, not a post", ErrMalformedResponse, rec.Value.Val)
	}

	post := &entity.Post{
		URI:       rec.Uri,
		Text:      fp.Text,
		CreatedAt: fp.CreatedAt,
	}
	if fp.Embed != nil && fp.Embed.EmbedExternal != nil && fp.Embed.EmbedExternal.External != nil {
		post.ExternalURI = fp.Embed.EmbedExternal.External.Uri
	}
	return post, nil
}

// UploadBlob uploads media with com.atproto.repo.uploadBlob.
func (s *Session) UploadBlob(ctx context.Context, media *entity.Media) (*entity.BlobRef, error) {
	if media == nil || len(media.Data) == 0 {
		return nil, errors.New("upload blob: empty media")
	}

	token, err := s.accessToken()
	if err != nil {
		return nil, err
	}

	mimeType := media.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(media.Data)
	}

	if err := s.client.writeLimiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	lc := s.client.lex(token, map[string]string{"Content-Type": mimeType})

	var out *atproto.RepoUploadBlob_Output
	err = s.client.call(ctx, true, func() error {
		var err error
		out, err = atproto.RepoUploadBlob(ctx, lc, bytes.NewReader(media.Data))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	if out.Blob == nil || !out.Blob.Ref.Defined() {
		return nil, fmt.Errorf("%w: uploadBlob: missing blob ref", ErrMalformedResponse)
	}

	ref := &entity.BlobRef{CID: out.Blob.Ref.String(), MimeType: out.Blob.MimeType, Size: out.Blob.Size}
	if ref.MimeType == "" {
		ref.MimeType = mimeType
	}
	if ref.Size == 0 {
		ref.Size = int64(len(media.Data))
	}
	return ref, nil
}

// CreatePost writes an app.bsky.feed.post record with an external embed and
// returns its at:// URI. It is never retried.
func (s *Session) CreatePost(ctx context.Context, payload entity.PostPayload) (string, error) {
	token, err := s.accessToken()
	if err != nil {
		return "", err
	}

	record, err := s.postRecord(payload)
	if err != nil {
		return "", err
	}

	if err := s.client.writeLimiter.Allow(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	input := &atproto.RepoCreateRecord_Input{
		Repo:       s.DID,
		Collection: collectionPost,
		Record:     &lexutil.LexiconTypeDecoder{Val: record},
	}

	var out *atproto.RepoCreateRecord_Output
	err = s.client.call(ctx, false, func() error {
		var err error
		out, err = atproto.RepoCreateRecord(ctx, s.client.lex(token, nil), input)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	if out.Uri == "" {
		return "", fmt.Errorf("%w: createRecord: missing uri", ErrMalformedResponse)
	}
	return out.Uri, nil
}

func (s *Session) postRecord(payload entity.PostPayload) (*bsky.FeedPost, error) {
	createdAt := payload.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.client.now()
	}

	ext := &bsky.EmbedExternal_External{
		Uri:         payload.External.URI,
		Title:       payload.External.Title,
		Description: payload.External.Description,
	}
	if thumb := payload.External.Thumb; thumb != nil {
		c, err := cid.Decode(thumb.CID)
		if err != nil {
			return nil, fmt.Errorf("thumb blob ref %q: %w", thumb.CID, err)
		}
		ext.Thumb = &lexutil.LexBlob{
			Ref:      lexutil.LexLink(c),
			MimeType: thumb.MimeType,
			Size:     thumb.Size,
		}
	}

	return &bsky.FeedPost{
		LexiconTypeID: collectionPost,
		Text:          payload.Text,
		CreatedAt:     createdAt.UTC().Format(time.RFC3339Nano),
		Langs:         postLangs,
		Embed: &bsky.FeedPost_Embed{
			EmbedExternal: &bsky.EmbedExternal{External: ext},
		},
	}, nil
}

// Close deletes the session on the server using the refresh token. Calling
// Close more than once is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	refresh := s.refreshJwt
	s.mu.Unlock()

	if refresh == "" {
		return nil
	}

	err := s.client.call(ctx, false, func() error {
		return atproto.ServerDeleteSession(ctx, s.client.lex(refresh, nil))
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	logging.FromContext(ctx).Debug("bluesky session deleted",
		slog.String("did", s.DID),
		slog.Time("expires_at", s.expiresAt))
	return nil
}
