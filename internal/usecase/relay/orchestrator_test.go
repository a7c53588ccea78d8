package relay

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osrs-bluesky-bot/internal/config"
	"osrs-bluesky-bot/internal/domain/entity"
)

type harness struct {
	cfgErr   error
	auth     *fakeAuth
	session  *fakeSession
	feed     *fakeFeed
	media    *fakeMedia
	recorder *fakeRecorder
	out      bytes.Buffer
	cfgCalls int
}

func newHarness() *harness {
	session := &fakeSession{
		latest:  &entity.Post{URI: "at://did:plc:abc/app.bsky.feed.post/1", Text: "old"},
		blob:    &entity.BlobRef{CID: "bafkreithumb", MimeType: "image/png", Size: 8},
		postURI: "at://did:plc:abc/app.bsky.feed.post/2",
	}
	return &harness{
		auth:     &fakeAuth{session: session},
		session:  session,
		feed:     &fakeFeed{items: []FeedItem{{Title: "T", Summary: "new", Link: "L", Published: "D", ImageURL: "I"}}},
		media:    &fakeMedia{media: pngMedia()},
		recorder: &fakeRecorder{},
	}
}

func (h *harness) orchestrator(strategy MarkerStrategy) *Orchestrator {
	load := func() (*config.Config, error) {
		h.cfgCalls++
		if h.cfgErr != nil {
			return nil, h.cfgErr
		}
		return &config.Config{AccountID: "u", AccountSecret: "p", FeedURL: "F"}, nil
	}
	return NewOrchestrator(
		load,
		h.auth,
		NewDetector(h.feed, strategy),
		NewPublisher(h.media, h.recorder),
		NewStatus(&h.out),
		h.recorder,
	)
}

func (h *harness) lines() []string {
	return strings.Split(strings.TrimRight(h.out.String(), "\n"), "\n")
}

func statusLines(msgs ...string) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = statusPrefix + m
	}
	return out
}

func TestOrchestrator_HappyPath(t *testing.T) {
	h := newHarness()

	result := h.orchestrator(nil).Run(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, StageSuccess, result.Stage)
	assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/2", result.PostURI)
	assert.Equal(t, "u", h.auth.id)
	assert.Equal(t, "p", h.auth.pass)
	assert.Equal(t, []string{"F"}, h.feed.calls)
	assert.Equal(t, []string{"I"}, h.media.urls)

	require.Len(t, h.session.payloads, 1)
	post := h.session.payloads[0]
	assert.Equal(t, "new", post.Text)
	assert.Equal(t, "T", post.External.Title)
	assert.Equal(t, "L", post.External.URI)

	assert.Equal(t, statusLines(
		msgStarting, msgConfigLoading, msgConfigLoaded, msgLoggedIn, msgMarkerFetched, msgFoundNewItem, msgPosted,
	), h.lines())
	assert.Equal(t, 1, h.session.closed)
	assert.Equal(t, []string{"success"}, h.recorder.runs)
	assert.Equal(t, []string{"config", "login", "marker", "detect", "publish"}, h.recorder.stages)
}

func TestOrchestrator_MissingConfigPerformsNoIO(t *testing.T) {
	h := newHarness()
	h.cfgErr = &config.MissingKeyError{Key: config.EnvPassword}

	result := h.orchestrator(nil).Run(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageInit, result.Stage)
	assert.ErrorIs(t, result.Err, config.ErrMissingConfigKey)
	assert.Zero(t, h.auth.calls, "no login")
	assert.Empty(t, h.feed.calls, "no feed fetch")
	assert.Empty(t, h.media.urls, "no download")
	assert.Zero(t, h.session.closed)
	assert.Equal(t, statusLines(
		msgStarting,
		msgConfigLoading,
		"Bot cannot find key 'BLUESKY_PASSWORD' in environment variables..",
		msgConfigFailed,
	), h.lines())
}

func TestOrchestrator_LoginFailure(t *testing.T) {
	h := newHarness()
	h.auth.err = errors.New("XRPC 401: AuthenticationRequired: Invalid identifier or password p")

	result := h.orchestrator(nil).Run(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageConfigLoaded, result.Stage)
	assert.ErrorIs(t, result.Err, ErrAuth)
	assert.Empty(t, h.feed.calls)
	assert.Zero(t, h.session.closed, "no session to close")
	assert.Equal(t, statusLines(msgStarting, msgConfigLoading, msgConfigLoaded, msgLoginFailed), h.lines())
	assert.Equal(t, []string{"failed"}, h.recorder.runs)
}

func TestOrchestrator_NilSessionIsLoginFailure(t *testing.T) {
	h := newHarness()
	orch := h.orchestrator(nil)
	orch.auth = AuthenticatorFunc(func(context.Context, string, string) (Session, error) {
		return nil, nil
	})

	result := orch.Run(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrAuth)
}

func TestOrchestrator_IdleWhenAlreadyPosted(t *testing.T) {
	h := newHarness()
	h.session.latest.Text = "new"

	orch := h.orchestrator(nil)
	for i := 0; i < 2; i++ {
		h.out.Reset()
		result := orch.Run(context.Background())

		assert.Equal(t, OutcomeIdle, result.Outcome)
		assert.Equal(t, StageMarkerFetched, result.Stage)
		assert.ErrorIs(t, result.Err, ErrNoNewItem)
		assert.False(t, result.Succeeded())
		assert.Equal(t, statusLines(
			msgStarting, msgConfigLoading, msgConfigLoaded, msgLoggedIn, msgMarkerFetched, msgNoNewItem,
		), h.lines())
	}

	assert.Empty(t, h.media.urls, "no download")
	assert.Empty(t, h.session.uploaded, "no upload")
	assert.Empty(t, h.session.payloads, "no post")
	assert.Equal(t, 2, h.session.closed)
	assert.Equal(t, []string{"idle", "idle"}, h.recorder.runs)
}

func TestOrchestrator_MarkerUnavailableStillPosts(t *testing.T) {
	h := newHarness()
	h.session.latest = nil
	h.session.latestErr = errors.New("XRPC 502")

	result := h.orchestrator(nil).Run(context.Background())

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Contains(t, h.lines(), statusPrefix+msgMarkerUnavailable)
}

func TestOrchestrator_FeedUnavailable(t *testing.T) {
	h := newHarness()
	h.feed.items = nil
	h.feed.err = errors.New("parse feed: unexpected EOF")

	result := h.orchestrator(nil).Run(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageMarkerFetched, result.Stage)
	assert.ErrorIs(t, result.Err, ErrFeedUnavailable)
	assert.Equal(t, statusLines(
		msgStarting, msgConfigLoading, msgConfigLoaded, msgLoggedIn, msgMarkerFetched, msgFeedNoContent, msgNoNewItem,
	), h.lines())
	assert.Equal(t, 1, h.session.closed)
}

func TestOrchestrator_PublishFailure(t *testing.T) {
	h := newHarness()
	h.media.media = nil

	result := h.orchestrator(nil).Run(context.Background())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, StageChangeDetected, result.Stage)
	assert.ErrorIs(t, result.Err, ErrMediaMissing)
	assert.Equal(t, statusLines(
		msgStarting, msgConfigLoading, msgConfigLoaded, msgLoggedIn, msgMarkerFetched, msgFoundNewItem, msgPostFailed,
	), h.lines())
	assert.Equal(t, 1, h.session.closed)
}

func TestOrchestrator_CloseErrorDoesNotChangeOutcome(t *testing.T) {
	h := newHarness()
	h.session.closeErr = errors.New("XRPC 400: ExpiredToken")

	result := h.orchestrator(nil).Run(context.Background())

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, 1, h.session.closed)
}

func TestOrchestrator_ClosesSessionAfterCancel(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	orch := h.orchestrator(nil)
	orch.auth = AuthenticatorFunc(func(context.Context, string, string) (Session, error) {
		cancel()
		return h.session, nil
	})
	h.feed.err = context.Canceled

	result := orch.Run(ctx)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, 1, h.session.closed)
}

func TestOrchestrator_LinkStrategy(t *testing.T) {
	h := newHarness()
	h.session.latest.Text = "differently worded"
	h.session.latest.ExternalURI = "L"

	result := h.orchestrator(LinkMarker{}).Run(context.Background())

	assert.Equal(t, OutcomeIdle, result.Outcome)
	assert.Empty(t, h.session.payloads)
}

func TestOrchestrator_EmbedOnlyLastPostReportsMarkerUnavailable(t *testing.T) {
	h := newHarness()
	h.session.latest.Text = ""
	h.session.latest.ExternalURI = "L"

	result := h.orchestrator(LinkMarker{}).Run(context.Background())

	assert.Equal(t, OutcomeIdle, result.Outcome, "link still matches")
	assert.Equal(t, statusLines(
		msgStarting, msgConfigLoading, msgConfigLoaded, msgLoggedIn, msgMarkerUnavailable, msgNoNewItem,
	), h.lines())
}

func TestResult_ExitCodeAndFinalMessage(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		mode     string
		wantCode int
		wantMsg  string
	}{
		{OutcomeSuccess, config.ExitModeTristate, ExitSuccess, msgSucceeded},
		{OutcomeIdle, config.ExitModeTristate, ExitIdle, msgIdle},
		{OutcomeFailed, config.ExitModeTristate, ExitFailed, msgFailed},
		{OutcomeSuccess, config.ExitModeLegacy, ExitSuccess, msgSucceeded},
		{OutcomeIdle, config.ExitModeLegacy, ExitFailed, msgFailed},
		{OutcomeFailed, config.ExitModeLegacy, ExitFailed, msgFailed},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String()+"/"+tt.mode, func(t *testing.T) {
			r := Result{Outcome: tt.outcome}
			assert.Equal(t, tt.wantCode, r.ExitCode(tt.mode))
			assert.Equal(t, tt.wantMsg, r.FinalMessage(tt.mode))
		})
	}
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "init", StageInit.String())
	assert.Equal(t, "success", StageSuccess.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
}
