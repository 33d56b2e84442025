// Package source acquires the raw bytes of an API description document from
// a local file or a remote URL.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/logger"
)

// maxDocumentSize bounds remote responses.
const maxDocumentSize = 64 << 20

// IsRemote reports whether src is an http:// or https:// URL.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LeveledZap adapts a zap logger to retryablehttp's leveled logger.
type LeveledZap struct {
	inner *zap.SugaredLogger
}

// Error is logged at warn level: a failed attempt is usually retried.
func (l LeveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l LeveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l LeveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

func (l LeveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// ClientOptions tunes the retrying HTTP client.
type ClientOptions struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultClientOptions retries connection errors, 5xx (except 501) and 429
// three times with 1s to 10s backoff.
var DefaultClientOptions = ClientOptions{
	RetryMax:     3,
	RetryWaitMin: 1 * time.Second,
	RetryWaitMax: 10 * time.Second,
}

// NewHTTPClient returns a stdlib client backed by retryablehttp. There is
// no overall timeout; callers bound a fetch through its context.
func NewHTTPClient(log *zap.SugaredLogger, opts ClientOptions) *http.Client {
	if log == nil {
		log = logger.Nop()
	}
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledZap{log})
	return retryClient.StandardClient()
}

// Read returns the document at src. Remote sources are fetched with client;
// everything else is read from the local file system.
func Read(ctx context.Context, src string, client *http.Client) ([]byte, error) {
	if IsRemote(src) {
		return fetch(ctx, src, client)
	}
	return readFile(src)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	err = errors.Mark(errors.Wrapf(err, "reading %s", path), errors.ErrInput)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.WithHint(err, "pass a path to an OpenAPI document or an http(s):// URL")
	}
	return nil, err
}

func fetch(ctx context.Context, url string, client *http.Client) ([]byte, error) {
	if client == nil {
		client = NewHTTPClient(nil, DefaultClientOptions)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "building request for %s", url), errors.ErrInput)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	req.Header.Set("User-Agent", "apitypes")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "fetching %s", url), errors.ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Mark(
			errors.Newf("fetching %s: unexpected status %s", url, resp.Status),
			errors.ErrFetch,
		)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading response from %s", url), errors.ErrFetch)
	}
	if len(data) > maxDocumentSize {
		return nil, errors.Mark(
			errors.Newf("document at %s exceeds %s", url, humanSize(maxDocumentSize)),
			errors.ErrFetch,
		)
	}
	return data, nil
}

func humanSize(n int) string {
	return fmt.Sprintf("%d MiB", n>>20)
}
