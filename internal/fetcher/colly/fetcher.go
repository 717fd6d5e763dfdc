// Package collyfetcher implements dict.PageFetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/dictcrawler/internal/dict"
)

const defaultTimeout = 2 * time.Second

// Config controls collector behavior.
type Config struct {
	// URLTemplate is the lookup URL with a single %s for the escaped word.
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
}

// Fetcher implements dict.PageFetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	limiter       dict.Limiter
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. limiter may be nil.
func New(cfg Config, limiter dict.Limiter) (*Fetcher, error) {
	if strings.Count(cfg.URLTemplate, "%s") != 1 {
		return nil, fmt.Errorf("url template must contain exactly one %%s: %q", cfg.URLTemplate)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := colly.NewCollector(colly.Async(false))
	// Retries visit the same URL again.
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		limiter:       limiter,
		baseCollector: c,
	}, nil
}

// URLFor returns the lookup URL for word.
func (f *Fetcher) URLFor(word dict.Word) string {
	return fmt.Sprintf(f.cfg.URLTemplate, url.QueryEscape(string(word)))
}

// Fetch executes a single HTTP GET for the word's dictionary page.
func (f *Fetcher) Fetch(ctx context.Context, word dict.Word) ([]byte, error) {
	target := f.URLFor(word)
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, target); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", word, err)
		}
	}

	var (
		body     []byte
		fetchErr error
	)
	// Clones share the base transport and visit store but not callbacks.
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, &body, &fetchErr)

	if err := f.runCollector(ctx, collector, target, &fetchErr); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("colly fetch produced no response")
	}
	return body, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *[]byte, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*body = append([]byte{}, r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, target string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
