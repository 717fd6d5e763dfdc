package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/retry"
)

type fakeFetcher struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, word dict.Word) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return []byte("<html>" + string(word) + "</html>"), nil
}

type fakeExtractor struct {
	results []dict.LookupResult
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(word dict.Word, _ []byte) (dict.LookupResult, error) {
	f.calls++
	if f.err != nil {
		return dict.LookupResult{}, f.err
	}
	if len(f.results) == 0 {
		return dict.LookupResult{SourceWord: word}, nil
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res, nil
}

func fastPolicy(maxAttempts int) *retry.Policy {
	return retry.NewExponential(maxAttempts, time.Millisecond, 2*time.Millisecond)
}

func TestLookupReturnsFirstNonEmptyResult(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	extractor := &fakeExtractor{results: []dict.LookupResult{{
		Headword:   dict.StringPtr("run"),
		USPhonetic: dict.StringPtr("[rʌn]"),
	}}}
	l := New(fetcher, extractor, fastPolicy(0), Config{EmptyRetries: DefaultEmptyRetries}, zap.NewNop())

	res, err := l.Lookup(context.Background(), "run")
	require.NoError(t, err)
	assert.Equal(t, dict.Word("run"), res.SourceWord)
	assert.Equal(t, "[rʌn]", dict.Deref(res.USPhonetic))
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, extractor.calls)
}

func TestLookupDegradesAfterFourEmptyAttempts(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	extractor := &fakeExtractor{}
	l := New(fetcher, extractor, fastPolicy(0), Config{EmptyRetries: DefaultEmptyRetries}, zap.NewNop())

	res, err := l.Lookup(context.Background(), "qwxz")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Nil(t, res.Headword)
	assert.Equal(t, dict.Word("qwxz"), res.SourceWord)
	assert.Equal(t, 4, fetcher.calls)
	assert.Equal(t, 4, extractor.calls)
}

func TestLookupTreatsExtractErrorAsEmpty(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	extractor := &fakeExtractor{err: dict.ErrEmptyExtraction}
	l := New(fetcher, extractor, fastPolicy(0), Config{EmptyRetries: 1}, zap.NewNop())

	res, err := l.Lookup(context.Background(), "flit")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 2, fetcher.calls)
}

func TestLookupDoesNotRetryPartialResult(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	extractor := &fakeExtractor{results: []dict.LookupResult{{
		UKAudioURL: dict.StringPtr("https://audio.example.com/flit.mp3"),
	}}}
	l := New(fetcher, extractor, fastPolicy(0), Config{EmptyRetries: DefaultEmptyRetries}, zap.NewNop())

	res, err := l.Lookup(context.Background(), "flit")
	require.NoError(t, err)
	assert.Nil(t, res.USPhonetic)
	assert.Nil(t, res.UKPhonetic)
	assert.Nil(t, res.USAudioURL)
	assert.Equal(t, "https://audio.example.com/flit.mp3", dict.Deref(res.UKAudioURL))
	assert.Equal(t, 1, fetcher.calls)
}

func TestLookupRetriesTransportErrors(t *testing.T) {
	t.Parallel()

	transient := errors.New("connection reset")
	fetcher := &fakeFetcher{errs: []error{transient, transient, nil}}
	extractor := &fakeExtractor{results: []dict.LookupResult{{UKPhonetic: dict.StringPtr("[flɪt]")}}}
	l := New(fetcher, extractor, fastPolicy(0), Config{EmptyRetries: DefaultEmptyRetries}, zap.NewNop())

	res, err := l.Lookup(context.Background(), "flit")
	require.NoError(t, err)
	assert.Equal(t, "[flɪt]", dict.Deref(res.UKPhonetic))
	assert.Equal(t, 3, fetcher.calls)
	assert.Equal(t, 1, extractor.calls)
}

func TestLookupHonorsAttemptCap(t *testing.T) {
	t.Parallel()

	transient := errors.New("timeout")
	fetcher := &fakeFetcher{errs: []error{transient, transient, transient, transient}}
	l := New(fetcher, &fakeExtractor{}, fastPolicy(2), Config{EmptyRetries: DefaultEmptyRetries}, zap.NewNop())

	_, err := l.Lookup(context.Background(), "flit")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupExhausted)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 2, fetcher.calls)
}

func TestLookupStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := &fakeFetcher{}
	l := New(fetcher, &fakeExtractor{}, fastPolicy(0), Config{}, zap.NewNop())

	_, err := l.Lookup(ctx, "flit")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fetcher.calls)
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	l := New(&fakeFetcher{}, &fakeExtractor{}, nil, Config{EmptyRetries: -1}, nil)
	assert.Equal(t, DefaultEmptyRetries, l.emptyRetries)
	assert.NotNil(t, l.policy)
	assert.Zero(t, l.policy.MaxAttempts())
}
