// Package scheduler drains a work set with a fixed pool of workers.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/dict"
	"github.com/JakeFAU/dictcrawler/internal/metrics"
)

// Processor handles one word.
type Processor interface {
	Process(ctx context.Context, word dict.Word) error
}

// Source hands out words; ok is false once it is exhausted.
type Source interface {
	Pop() (dict.Word, bool)
}

// Summary counts the outcome of a run.
type Summary struct {
	Processed int
	Failed    int
}

// Scheduler fans words out to workers.
type Scheduler struct {
	processor Processor
	logger    *zap.Logger
}

// New creates a Scheduler.
func New(processor Processor, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{processor: processor, logger: logger}
}

// Run starts workerCount workers that pop and process words until the source
// is empty or ctx ends, and blocks until all of them stopped. Word failures
// are logged and counted, never returned.
func (s *Scheduler) Run(ctx context.Context, source Source, workerCount int) Summary {
	if workerCount <= 0 {
		workerCount = 1
	}
	var (
		wg        sync.WaitGroup
		processed atomic.Int64
		failed    atomic.Int64
	)
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			log := s.logger.Named("worker").With(zap.Int("index", index))
			log.Info("worker started")
			n := s.work(ctx, source, log, &processed, &failed)
			log.Info("worker stopped", zap.Int("words", n))
		}(i)
	}
	wg.Wait()
	return Summary{Processed: int(processed.Load()), Failed: int(failed.Load())}
}

func (s *Scheduler) work(ctx context.Context, source Source, log *zap.Logger, processed, failed *atomic.Int64) int {
	n := 0
	for {
		if ctx.Err() != nil {
			return n
		}
		word, ok := source.Pop()
		if !ok {
			return n
		}
		n++
		if err := s.processOne(ctx, word); err != nil {
			failed.Add(1)
			log.Error("word failed", zap.String("word", string(word)), zap.Error(err))
			continue
		}
		processed.Add(1)
	}
}

func (s *Scheduler) processOne(ctx context.Context, word dict.Word) (err error) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %q: %v", word, r)
		}
	}()
	return s.processor.Process(ctx, word)
}
