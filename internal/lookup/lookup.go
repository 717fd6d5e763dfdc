// Package lookup turns a word into its best-effort pronunciation fields by
// combining a page fetcher, a field extractor and a retry policy.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/metrics"
	"github.com/JakeFAU/dictcrawler/internal/retry"
)

// DefaultEmptyRetries is the number of extra fetch+extract cycles made when a
// page yields no pronunciation fields at all.
const DefaultEmptyRetries = 3

// ErrLookupExhausted is returned when the transport attempt cap is reached
// before any page could be fetched.
var ErrLookupExhausted = errors.New("lookup attempts exhausted")

// Config tunes the retrying lookup.
type Config struct {
	// EmptyRetries bounds repeats after an all-empty extraction. Negative
	// values select DefaultEmptyRetries.
	EmptyRetries int
}

// RetryingLookup fetches and extracts a word, retrying transport failures
// per its policy and all-empty extractions a bounded number of times.
type RetryingLookup struct {
	fetcher      dict.PageFetcher
	extractor    dict.FieldExtractor
	policy       *retry.Policy
	emptyRetries int
	logger       *zap.Logger
}

// New constructs a RetryingLookup. A nil policy never gives up on transport
// errors.
func New(
	fetcher dict.PageFetcher,
	extractor dict.FieldExtractor,
	policy *retry.Policy,
	cfg Config,
	logger *zap.Logger,
) *RetryingLookup {
	if policy == nil {
		policy = retry.NewExponential(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	emptyRetries := cfg.EmptyRetries
	if emptyRetries < 0 {
		emptyRetries = DefaultEmptyRetries
	}
	return &RetryingLookup{
		fetcher:      fetcher,
		extractor:    extractor,
		policy:       policy,
		emptyRetries: emptyRetries,
		logger:       logger.Named("lookup"),
	}
}

// Lookup returns the extracted fields for word. A result with every field
// absent is returned with a nil error once the empty retries are used up.
// Errors are only returned for cancellation or an exhausted transport cap.
func (l *RetryingLookup) Lookup(ctx context.Context, word dict.Word) (dict.LookupResult, error) {
	log := l.logger.With(zap.String("word", string(word)))
	last := dict.LookupResult{SourceWord: word}

	for cycle := 0; ; cycle++ {
		page, err := l.fetchPage(ctx, word, log)
		if err != nil {
			return last, err
		}

		result, err := l.extractor.Extract(word, page)
		if err != nil {
			log.Debug("extract failed", zap.Int("cycle", cycle), zap.Error(err))
			result = dict.LookupResult{SourceWord: word}
		}
		result.SourceWord = word
		last = result

		if !result.Empty() {
			return result, nil
		}
		if cycle >= l.emptyRetries {
			log.Info("no pronunciation fields found", zap.Int("attempts", cycle+1))
			return last, nil
		}
		metrics.ObserveEmptyRetry()
		log.Debug("retrying lookup", zap.Int("cycle", cycle), zap.Error(dict.ErrEmptyExtraction))
	}
}

func (l *RetryingLookup) fetchPage(ctx context.Context, word dict.Word, log *zap.Logger) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("lookup %q: %w", word, err)
		}
		page, err := l.fetcher.Fetch(ctx, word)
		metrics.ObserveFetch(err)
		if err == nil {
			return page, nil
		}
		if !l.policy.ShouldRetry(ctx, err, attempt) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lookup %q: %w", word, ctx.Err())
			}
			return nil, fmt.Errorf("lookup %q after %d attempts: %w: %w", word, attempt, ErrLookupExhausted, err)
		}
		log.Warn("fetch failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if err := l.policy.Wait(ctx, attempt-1); err != nil {
			return nil, fmt.Errorf("lookup %q: %w", word, err)
		}
	}
}
