package relay

import (
	"context"
	"sync"
	"time"

	"osrs-bluesky-bot/internal/domain/entity"
)

type fakeFeed struct {
	items []FeedItem
	err   error
	calls []string
}

func (f *fakeFeed) Fetch(_ context.Context, feedURL string) ([]FeedItem, error) {
	f.calls = append(f.calls, feedURL)
	return f.items, f.err
}

type fakeSession struct {
	latest    *entity.Post
	latestErr error

	blob      *entity.BlobRef
	uploadErr error
	uploaded  []*entity.Media

	postURI  string
	postErr  error
	payloads []entity.PostPayload

	closeErr error
	closed   int
}

func (s *fakeSession) LatestPost(context.Context) (*entity.Post, error) {
	return s.latest, s.latestErr
}

func (s *fakeSession) UploadBlob(_ context.Context, media *entity.Media) (*entity.BlobRef, error) {
	s.uploaded = append(s.uploaded, media)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return s.blob, nil
}

func (s *fakeSession) CreatePost(_ context.Context, payload entity.PostPayload) (string, error) {
	s.payloads = append(s.payloads, payload)
	if s.postErr != nil {
		return "", s.postErr
	}
	return s.postURI, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed++
	return s.closeErr
}

type fakeAuth struct {
	session  *fakeSession
	err      error
	calls    int
	id, pass string
}

func (a *fakeAuth) Login(_ context.Context, identifier, password string) (Session, error) {
	a.calls++
	a.id, a.pass = identifier, password
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

type fakeMedia struct {
	media *entity.Media
	urls  []string
}

func (m *fakeMedia) Download(_ context.Context, url string) *entity.Media {
	m.urls = append(m.urls, url)
	return m.media
}

type fakeRecorder struct {
	mu            sync.Mutex
	stages        []string
	runs          []string
	published     int
	mediaFailures int
}

func (r *fakeRecorder) ObserveStage(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *fakeRecorder) RecordRun(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, outcome)
}

func (r *fakeRecorder) RecordPublished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published++
}

func (r *fakeRecorder) RecordMediaFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mediaFailures++
}

func newsItem(summary string) FeedItem {
	return FeedItem{
		Title:     "Game Update: Sailing Beta",
		Summary:   summary,
		Link:      "https://secure.runescape.com/m=news/sailing-beta",
		Published: "Wed, 21 Aug 2024 11:00:00 GMT",
		ImageURL:  "https://cdn.runescape.com/assets/img/external/oldschool/2024/newsposts/sailing.png",
	}
}

func pngMedia() *entity.Media {
	return &entity.Media{Data: []byte("\x89PNG\r\n\x1a\n"), MimeType: "image/png", SourceURL: "https://cdn.example.com/i.png"}
}
