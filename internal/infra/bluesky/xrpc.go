package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/resilience/retry"

	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const defaultRetryAfter = 5 * time.Second

// call runs fn through the client's circuit breaker, and through
// retry.WithBackoff when retryable is set.
func (c *Client) call(ctx context.Context, retryable bool, fn func() error) error {
	run := func() error {
		_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, fn()
		})
		if errors.Is(err, gobreaker.ErrOpenState) {
			logging.FromContext(ctx).Warn("XRPC circuit breaker open, request rejected",
				slog.String("circuit", c.circuitBreaker.Name()),
				slog.String("state", c.circuitBreaker.State().String()))
		}
		return err
	}

	if !retryable {
		return run()
	}
	return retry.WithBackoff(ctx, c.retryConfig, run)
}

// lexClient adapts one authenticated xrpc.Client to lexutil.LexClient,
// logging each call and translating indigo errors into this package's types.
type lexClient struct {
	xc  *xrpc.Client
	now func() time.Time
}

var _ lexutil.LexClient = (*lexClient)(nil)

// lex returns a LexClient sending token as the bearer. headers override the
// request headers set by indigo, e.g. the upload Content-Type.
func (c *Client) lex(token string, headers map[string]string) *lexClient {
	xc := *c.base
	if token != "" {
		xc.Auth = &xrpc.AuthInfo{AccessJwt: token}
	}
	if len(headers) > 0 {
		xc.Headers = headers
	}
	return &lexClient{xc: &xc, now: c.now}
}

func (l *lexClient) LexDo(ctx context.Context, method, inputEncoding, endpoint string, params map[string]any, bodyData any, out any) error {
	start := time.Now()
	err := l.xc.LexDo(ctx, method, inputEncoding, endpoint, params, bodyData, out)

	attrs := []any{
		slog.String("request_id", uuid.NewString()),
		slog.String("nsid", endpoint),
		slog.Duration("duration", time.Since(start)),
	}
	var xe *xrpc.Error
	if errors.As(err, &xe) {
		attrs = append(attrs, slog.Int("status", xe.StatusCode))
	}
	logging.FromContext(ctx).Debug("XRPC call", attrs...)

	return classify(endpoint, err, l.now())
}

// classify maps indigo errors:
//   - 429: *RateLimitError
//   - other non-200: *XRPCError
//   - undecodable 200 body: ErrMalformedResponse
//   - transport failures are returned as is
func classify(nsid string, err error, now time.Time) error {
	if err == nil {
		return nil
	}

	var xe *xrpc.Error
	if !errors.As(err, &xe) {
		if isDecodeError(err) {
			return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, nsid, err)
		}
		return fmt.Errorf("%s: %w", nsid, err)
	}

	var name, message string
	var body *xrpc.XRPCError
	if errors.As(xe.Wrapped, &body) {
		name, message = body.ErrStr, body.Message
	}

	if xe.IsThrottled() {
		return &RateLimitError{
			RetryAfter: retryAfter(xe, now),
			Message:    fmt.Sprintf("%s rate limited", nsid),
		}
	}

	if name == "" && message == "" {
		message = http.StatusText(xe.StatusCode)
	}
	return &XRPCError{StatusCode: xe.StatusCode, Name: name, Message: message}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, lexutil.ErrUnrecognizedType)
}

// retryAfter reads the ratelimit-reset time reported by the PDS, defaulting
// to 5s when it is absent or already past.
func retryAfter(xe *xrpc.Error, now time.Time) time.Duration {
	if xe.Ratelimit != nil && !xe.Ratelimit.Reset.IsZero() {
		if d := xe.Ratelimit.Reset.Sub(now); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}
