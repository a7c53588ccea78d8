package bluesky

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/resilience/circuitbreaker"
	"osrs-bluesky-bot/internal/resilience/retry"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"
)

// DefaultService is the PDS entryway used when none is configured.
const DefaultService = "https://bsky.social"

const userAgent = "OSRSBlueskyBot/1.0"

// Config contains the client settings.
type Config struct {
	// Service is the PDS base URL, e.g. https://bsky.social.
	Service string

	// RetryMaxAttempts bounds attempts for idempotent calls. 1 disables retries.
	RetryMaxAttempts int

	// WriteRate and WriteBurst configure the write limiter.
	WriteRate  float64
	WriteBurst int
}

// DefaultConfig returns settings for bsky.social without retries.
func DefaultConfig() Config {
	return Config{
		Service:          DefaultService,
		RetryMaxAttempts: 1,
		WriteRate:        DefaultWriteRate,
		WriteBurst:       DefaultWriteBurst,
	}
}

// Client talks XRPC to a single PDS through indigo. It is safe for
// concurrent use.
type Client struct {
	base           *xrpc.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	writeLimiter   *RateLimiter
	now            func() time.Time
}

// NewClient creates a Client. A nil httpClient means http.DefaultClient.
func NewClient(httpClient *http.Client, cfg Config) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	service := strings.TrimRight(strings.TrimSpace(cfg.Service), "/")
	if service == "" {
		service = DefaultService
	}
	if !strings.HasPrefix(service, "http://") && !strings.HasPrefix(service, "https://") {
		return nil, fmt.Errorf("invalid service URL %q: must be http or https", cfg.Service)
	}

	writeRate, writeBurst := cfg.WriteRate, cfg.WriteBurst
	if writeRate <= 0 {
		writeRate = DefaultWriteRate
	}
	if writeBurst <= 0 {
		writeBurst = DefaultWriteBurst
	}

	ua := userAgent
	return &Client{
		base: &xrpc.Client{
			Client:    httpClient,
			Host:      service,
			UserAgent: &ua,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.XRPCConfig()),
		retryConfig:    retry.XRPCConfig(cfg.RetryMaxAttempts),
		writeLimiter:   NewRateLimiter(writeRate, writeBurst),
		now:            time.Now,
	}, nil
}

// Login creates a session with com.atproto.server.createSession.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	logger := logging.FromContext(ctx)

	input := &atproto.ServerCreateSession_Input{Identifier: identifier, Password: password}

	var out *atproto.ServerCreateSession_Output
	err := c.call(ctx, true, func() error {
		var err error
		out, err = atproto.ServerCreateSession(ctx, c.lex("", nil), input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if out.AccessJwt == "" || out.Did == "" {
		return nil, fmt.Errorf("%w: createSession: missing accessJwt or did", ErrMalformedResponse)
	}

	expiresAt, err := tokenExpiry(out.AccessJwt)
	if err != nil {
		logger.Debug("access token expiry unknown", slog.String("error", err.Error()))
		expiresAt = time.Time{}
	}

	logger.Info("bluesky session created",
		slog.String("handle", out.Handle),
		slog.String("did", out.Did),
		slog.String("service", c.base.Host),
		slog.Time("expires_at", expiresAt))

	return &Session{
		client:     c,
		DID:        out.Did,
		Handle:     out.Handle,
		accessJwt:  out.AccessJwt,
		refreshJwt: out.RefreshJwt,
		expiresAt:  expiresAt,
	}, nil
}
