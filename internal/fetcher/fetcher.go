package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single attempt, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after a timed-out attempt,
	// so a fetch makes at most DefaultMaxRetries+1 attempts.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the pause before each retry.
	DefaultRetryDelay = time.Second

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:115.0) Gecko/20100101 Firefox/115.0"
)

// Fetcher performs HTTP GETs with timeout retries.
type Fetcher struct {
	// client is the resty client shared by all attempts.
	client *resty.Client

	// timeout bounds each attempt.
	timeout time.Duration

	// maxRetries is the number of retries after a timeout.
	maxRetries uint64

	// retryDelay is the constant pause between attempts.
	retryDelay time.Duration

	// userAgent is the User-Agent header.
	userAgent string

	// headers are extra request headers.
	headers map[string]string

	// logger narrates fetch progress.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxRetries sets how many times a timed-out fetch is retried.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = uint64(n)
		}
	}
}

// WithRetryDelay sets the pause before each retry.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelay = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds request headers sent with every fetch.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to use a custom
// transport. The per-attempt timeout is applied on top of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.client = resty.NewWithClient(hc)
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     resty.New(),
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		userAgent:  DefaultUserAgent,
		headers:    make(map[string]string),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	// Retries are driven by Fetch, never by resty itself.
	f.client.
		SetTimeout(f.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: f.logger}).
		SetHeader("User-Agent", f.userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetHeaders(f.headers)

	return f
}

// Fetch retrieves rawURL and returns the response body.
//
// A timed-out attempt is retried up to the configured bound; the error of
// the last attempt is returned once retries run out. Any other transport
// error, or a status other than 200, is returned immediately. Cancelling
// ctx stops further attempts.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	attempt := 0

	operation := func() ([]byte, error) {
		attempt++
		f.logger.Info("fetching page", "url", rawURL, "attempt", attempt)

		resp, err := f.client.R().SetContext(ctx).Get(rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			if IsTimeout(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		if resp.StatusCode() != http.StatusOK {
			return nil, backoff.Permanent(&StatusError{URL: rawURL, StatusCode: resp.StatusCode()})
		}

		return resp.Body(), nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("connection timeout, trying again",
			"url", rawURL,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retryDelay), f.maxRetries),
		ctx,
	)

	body, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err != nil {
		if IsTimeout(err) {
			f.logger.Error("connection timeout, no more tries left", "url", rawURL, "attempts", attempt)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	f.logger.Info("page fetched", "url", rawURL, "bytes", len(body))
	return body, nil
}

// restyLogger routes resty's own diagnostics into slog at debug level;
// Fetch already reports every failure that matters.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf("resty: "+format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf("resty: "+format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf("resty: "+format, v...))
}
