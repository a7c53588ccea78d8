package bluesky

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testDID    = "did:plc:osrsbot123"
	testHandle = "osrs-news.bsky.social"

	// testThumbCID is a valid CIDv1 (raw, sha256), as indigo parses blob refs.
	testThumbCID = "bafkreiems4ijbgh2wgqofio7bxxqrou633n2vlvrvshm4ftad4q5z476mq"
)

const (
	nsidCreateSession = "com.atproto.server.createSession"
	nsidDeleteSession = "com.atproto.server.deleteSession"
	nsidListRecords   = "com.atproto.repo.listRecords"
	nsidUploadBlob    = "com.atproto.repo.uploadBlob"
	nsidCreateRecord  = "com.atproto.repo.createRecord"
)

// recorded is one request received by the fake PDS.
type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	CType  string
	Body   []byte
}

// fakePDS serves canned responses per NSID and records requests.
type fakePDS struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []recorded
	server   *httptest.Server
}

func newFakePDS(t *testing.T) *fakePDS {
	t.Helper()
	p := &fakePDS{t: t, handlers: map[string]http.HandlerFunc{}}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		p.mu.Lock()
		p.requests = append(p.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			CType:  r.Header.Get("Content-Type"),
			Body:   body,
		})
		h, ok := p.handlers[r.URL.Path]
		p.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotImplemented)
			_, _ = io.WriteString(w, `{"error":"MethodNotImplemented","message":"no handler"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePDS) handle(nsid string, h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers["/xrpc/"+nsid] = h
}

func (p *fakePDS) json(nsid string, status int, body interface{}) {
	p.handle(nsid, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (p *fakePDS) calls(nsid string) []recorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recorded
	for _, r := range p.requests {
		if r.Path == "/xrpc/"+nsid {
			out = append(out, r)
		}
	}
	return out
}

func (p *fakePDS) client(t *testing.T, attempts int) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Service = p.server.URL
	cfg.RetryMaxAttempts = attempts
	cfg.WriteRate = 1000
	c, err := NewClient(p.server.Client(), cfg)
	require.NoError(t, err)
	c.retryConfig.InitialDelay = time.Millisecond
	c.retryConfig.MaxDelay = 5 * time.Millisecond
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scope": "com.atproto.appPass",
		"sub":   testDID,
		"exp":   exp.Unix(),
	}).SignedString([]byte("pds-secret"))
	require.NoError(t, err)
	return token
}

// loggedIn registers a createSession handler and returns a fresh session.
func (p *fakePDS) loggedIn(t *testing.T, attempts int) (*Client, *Session) {
	t.Helper()
	p.json(nsidCreateSession, http.StatusOK, map[string]string{
		"accessJwt":  signedToken(t, time.Now().Add(2*time.Hour)),
		"refreshJwt": "refresh-token",
		"handle":     testHandle,
		"did":        testDID,
	})
	c := p.client(t, attempts)
	s, err := c.Login(t.Context(), testHandle, "abcd-efgh-ijkl-mnop")
	require.NoError(t, err)
	return c, s
}
