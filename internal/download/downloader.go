// Package download fetches pronunciation audio and writes it to a BlobStore.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/metrics"
	"github.com/JakeFAU/dictcrawler/internal/retry"
	"github.com/JakeFAU/dictcrawler/internal/storage"
)

const (
	defaultTimeout = 3 * time.Second
	contentType    = "audio/mpeg"
)

var (
	// ErrDownloadExhausted is returned once the configured attempt cap is hit.
	ErrDownloadExhausted = errors.New("download attempts exhausted")
	// ErrDownloadRejected is returned without retrying when a failure cannot
	// clear up on its own: a client error status or an invalid target path.
	ErrDownloadRejected = errors.New("download rejected")
)

// StatusError reports a non-2xx audio response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Temporary reports whether the status may succeed on a later attempt.
// 4xx responses are final except 408 and 429.
func (e *StatusError) Temporary() bool {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, storage.ErrInvalidPath) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

// Config tunes the downloader.
type Config struct {
	// Timeout bounds one attempt, including streaming the body.
	Timeout   time.Duration
	UserAgent string
	// Client defaults to a plain http.Client.
	Client *http.Client
}

// Downloader saves audio files under <lang>/<word>.mp3 in its store.
type Downloader struct {
	client    *http.Client
	store     dict.BlobStore
	policy    *retry.Policy
	limiter   dict.Limiter
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// New constructs a Downloader. limiter may be nil; a nil policy retries
// until the context ends.
func New(
	store dict.BlobStore,
	policy *retry.Policy,
	limiter dict.Limiter,
	cfg Config,
	logger *zap.Logger,
) (*Downloader, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if policy == nil {
		policy = retry.NewExponential(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Downloader{
		client:    cfg.Client,
		store:     store,
		policy:    policy,
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		logger:    logger.Named("download"),
	}, nil
}

// Download fetches url and stores it for word and lang. A nil or empty url
// is a no-op. Transport errors, timeouts and 5xx responses are retried per
// the policy; other failures return ErrDownloadRejected at once. An existing
// file is overwritten only by a complete new one.
func (d *Downloader) Download(ctx context.Context, word dict.Word, lang dict.Lang, url *string) error {
	if url == nil || strings.TrimSpace(*url) == "" {
		return nil
	}
	target := *url
	path := dict.AudioPath(word, lang)
	log := d.logger.With(zap.String("word", string(word)), zap.String("lang", string(lang)))

	for attempt := 1; ; attempt++ {
		n, err := d.fetchOnce(ctx, path, target)
		metrics.ObserveDownload(string(lang), target, n, err)
		if err == nil {
			log.Debug("audio saved", zap.String("path", path), zap.Int64("bytes", n))
			return nil
		}
		if ctx.Err() == nil && !retryable(err) {
			return fmt.Errorf("download %s: %w: %w", path, ErrDownloadRejected, err)
		}
		if !d.policy.ShouldRetry(ctx, err, attempt) {
			if ctx.Err() != nil {
				return fmt.Errorf("download %s: %w", path, ctx.Err())
			}
			return fmt.Errorf("download %s after %d attempts: %w: %w", path, attempt, ErrDownloadExhausted, err)
		}
		log.Warn("download failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if err := d.policy.Wait(ctx, attempt-1); err != nil {
			return fmt.Errorf("download %s: %w", path, err)
		}
	}
}

func (d *Downloader) fetchOnce(ctx context.Context, path, target string) (int64, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, target); err != nil {
			return 0, fmt.Errorf("rate limit: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body := &countingReader{r: resp.Body}
	if _, err := d.store.PutObject(reqCtx, path, contentType, body); err != nil {
		return body.n, fmt.Errorf("store audio: %w", err)
	}
	return body.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
