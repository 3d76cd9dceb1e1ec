package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults of a Fetcher.
const (
	DefaultAttempts = 3
	DefaultTimeout  = 30 * time.Second
	DefaultBackoff  = 1500 * time.Millisecond

	// MaxAttempts bounds the attempts a Fetcher can be configured with.
	MaxAttempts = 10
)

var (
	// ErrUnreachable wraps the last error once every attempt failed.
	ErrUnreachable = errors.New("source unreachable")
	// ErrRetryExhausted is returned when no attempt could run at all.
	ErrRetryExhausted = errors.New("retry exhausted without any attempt")
)

// Kind classifies a failed attempt.
type Kind int

const (
	Transport Kind = iota // the request could not be sent or read
	Timeout               // the attempt exceeded its timeout
	Transient             // HTTP 408, 429 or 5xx
	Permanent             // any other non 2xx status
	Disguised             // a 2xx response carrying an HTML page
	Malformed             // a body that is not valid JSON
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case Disguised:
		return "disguised"
	case Malformed:
		return "malformed"
	}
	return "transport"
}

// FetchError is the classified failure of a single attempt.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Timeout    time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case Timeout:
		return fmt.Sprintf("request timed out after %v", e.Timeout)
	case Transient:
		return fmt.Sprintf("server busy (HTTP %d)", e.StatusCode)
	case Permanent:
		return fmt.Sprintf("connection failed (HTTP %d)", e.StatusCode)
	case Disguised:
		return "relay returned an HTML page instead of JSON (probably a timeout page)"
	case Malformed:
		return "response is not valid JSON"
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *FetchError) Retryable() bool { return e.Kind != Permanent }

// classify maps a status code to Transient or Permanent.
func classify(status int) Kind {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500 {
		return Transient
	}
	return Permanent
}

// Fetcher GETs JSON documents from unreliable endpoints, with a timeout per
// attempt and exponential backoff between attempts.
type Fetcher struct {
	client   *http.Client
	attempts int
	timeout  time.Duration
	backoff  time.Duration
	logger   logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// NewFetcher creates a Fetcher with 3 attempts, a 30s timeout per attempt and
// a 1.5s initial backoff.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{},
		attempts: DefaultAttempts,
		timeout:  DefaultTimeout,
		backoff:  DefaultBackoff,
		logger:   logrus.StandardLogger(),
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithAttempts sets the total number of attempts, including the first one,
// up to MaxAttempts.
func WithAttempts(n int) Option {
	return func(f *Fetcher) { f.attempts = min(n, MaxAttempts) }
}

// WithTimeout sets the timeout of each attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithBackoff sets the wait before the second attempt; it doubles afterwards.
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) { f.backoff = d }
}

// WithHTTPClient sets a custom HTTP client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		if hc != nil {
			f.client = hc
		}
	}
}

// WithLogger sets the logger retry warnings go to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Delay returns the wait after the failed attempt i (0-indexed). Once doubling
// would overflow, the delay stays at the largest duration.
func (f *Fetcher) Delay(i int) time.Duration {
	if i <= 0 {
		return f.backoff
	}
	if f.backoff <= 0 {
		return 0
	}
	d := f.backoff << i
	if i >= 63 || d < 0 || d>>i != f.backoff {
		return math.MaxInt64
	}
	return d
}

// Fetch GETs addr and decodes its JSON body. Failed attempts are retried up to
// the attempt budget, except permanent HTTP failures. The returned error wraps
// ErrUnreachable and the last *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, addr string) (any, error) {
	var lastErr *FetchError
	for i := 0; i < f.attempts; i++ {
		v, err := f.attempt(ctx, addr)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !err.Retryable() || i == f.attempts-1 {
			break
		}
		delay := f.Delay(i)
		f.logger.WithFields(logrus.Fields{
			"attempt":  i + 1,
			"attempts": f.attempts,
			"delay":    delay,
			"url":      addr,
		}).Warnf("request failed: %v, retrying", err)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	if lastErr == nil {
		return nil, ErrRetryExhausted
	}
	return nil, fmt.Errorf("%w: %w", ErrUnreachable, lastErr)
}

// attempt performs a single GET bounded by the attempt timeout. The response
// is fully read and closed before it returns.
func (f *Fetcher) attempt(ctx context.Context, addr string) (any, *FetchError) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fail := func(kind Kind, status int, err error) *FetchError {
		return &FetchError{Kind: kind, URL: addr, StatusCode: status, Timeout: f.timeout, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fail(Transport, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fail(Timeout, 0, err)
		}
		return nil, fail(Transport, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fail(Timeout, resp.StatusCode, err)
		}
		return nil, fail(Transport, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(classify(resp.StatusCode), resp.StatusCode, fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status))
	}
	if isHTML(body) {
		return nil, fail(Disguised, resp.StatusCode, errors.New("html body"))
	}
	v, err := decodeJSON(body)
	if err != nil {
		return nil, fail(Malformed, resp.StatusCode, err)
	}
	return v, nil
}

// isHTML detects relay error pages served with a success status.
func isHTML(body []byte) bool {
	b := bytes.TrimSpace(body)
	return hasPrefixFold(b, "<!doctype") || hasPrefixFold(b, "<html")
}

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}

// decodeJSON decodes a single JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return v, nil
}
