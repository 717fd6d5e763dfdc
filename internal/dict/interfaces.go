package dict

import (
	"context"
	"io"
)

// PageFetcher retrieves the raw dictionary page for a word.
type PageFetcher interface {
	Fetch(ctx context.Context, word Word) ([]byte, error)
}

// FieldExtractor pulls pronunciation fields out of a raw page.
type FieldExtractor interface {
	Extract(word Word, page []byte) (LookupResult, error)
}

// Lookup produces the best-effort field set for a word.
type Lookup interface {
	Lookup(ctx context.Context, word Word) (LookupResult, error)
}

// AssetDownloader saves one audio file. A nil or empty URL is a no-op.
type AssetDownloader interface {
	Download(ctx context.Context, word Word, lang Lang, url *string) error
}

// BlobStore writes artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// ResultStore lists and appends persisted records.
type ResultStore interface {
	ListProcessedWords(ctx context.Context) (map[Word]struct{}, error)
	Persist(ctx context.Context, record Record) error
	Close() error
}

// WordSource loads the raw candidate word list.
type WordSource interface {
	LoadAll(ctx context.Context) ([]string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Limiter paces outbound requests.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}
