// Package job runs the per-word pipeline: look up the page, download both
// audio variants, persist the record and optionally announce it.
package job

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/metrics"
)

// Config controls WordJob behavior.
type Config struct {
	// Topic receives one message per persisted record. Empty disables
	// publishing.
	Topic string
}

// WordJob processes a single word end to end.
type WordJob struct {
	lookup     dict.Lookup
	downloader dict.AssetDownloader
	store      dict.ResultStore
	publisher  dict.Publisher
	cfg        Config
	logger     *zap.Logger
}

// New constructs a WordJob. publisher may be nil.
func New(
	lookup dict.Lookup,
	downloader dict.AssetDownloader,
	store dict.ResultStore,
	publisher dict.Publisher,
	cfg Config,
	logger *zap.Logger,
) *WordJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordJob{
		lookup:     lookup,
		downloader: downloader,
		store:      store,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Process runs the pipeline for word. Persist is reached only after both
// downloads succeeded, so a stored word always has its audio on disk.
func (j *WordJob) Process(ctx context.Context, word dict.Word) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveWord(err, time.Since(start)) }()

	log := j.logger.With(zap.String("word", string(word)))

	result, err := j.lookup.Lookup(ctx, word)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	result.SourceWord = word

	for _, lang := range []dict.Lang{dict.LangUS, dict.LangUK} {
		if err := j.downloader.Download(ctx, word, lang, result.AudioURL(lang)); err != nil {
			return fmt.Errorf("download %s audio: %w", lang, err)
		}
	}

	record := result.Record()
	if err := j.store.Persist(ctx, record); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	log.Info("word stored",
		zap.Bool("has_us_phonetic", record.USPhonetic != nil),
		zap.Bool("has_uk_phonetic", record.UKPhonetic != nil),
		zap.Bool("has_us_audio", record.USAudioURL != nil),
		zap.Bool("has_uk_audio", record.UKAudioURL != nil),
	)

	j.publish(ctx, record, log)
	return nil
}

func (j *WordJob) publish(ctx context.Context, record dict.Record, log *zap.Logger) {
	if j.publisher == nil || j.cfg.Topic == "" {
		return
	}
	id, err := j.publisher.Publish(ctx, j.cfg.Topic, record)
	if err != nil {
		log.Warn("publish record failed", zap.String("topic", j.cfg.Topic), zap.Error(err))
		return
	}
	log.Debug("record published", zap.String("message_id", id))
}
