package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/config"
	"github.com/JakeFAU/dictcrawler/internal/dict"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	words := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(words, []byte("run\nflit\n"), 0o600))

	return config.Config{
		Crawler:  config.CrawlerConfig{WorkerCount: 2, UserAgent: "test"},
		Input:    config.InputConfig{Path: words},
		Lookup:   config.LookupConfig{URLTemplate: "http://127.0.0.1/dict?q=%s", FetchTimeoutMs: 100, EmptyRetries: 3},
		Download: config.DownloadConfig{TimeoutMs: 100},
		Retry:    config.RetryConfig{BackoffInitialMs: 1, BackoffMaxMs: 2},
		Storage:  config.StorageConfig{Backend: "local", BaseDir: filepath.Join(dir, "mp3")},
		DB: config.DBConfig{
			Driver:      "sqlite",
			DSN:         filepath.Join(dir, "dict.db"),
			Table:       "dict",
			AutoMigrate: true,
		},
	}
}

func TestNewWithSQLiteMigrates(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	ctx := context.Background()
	require.NoError(t, a.Store().Persist(ctx, dict.Record{Word: "run"}))
	words, err := a.Store().ListProcessedWords(ctx)
	require.NoError(t, err)
	assert.Contains(t, words, dict.Word("run"))

	lines, err := a.Source().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "flit"}, lines)
}

func TestPipelineBuildsWithLocalStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	wj, err := a.Pipeline(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, wj)

	info, err := os.Stat(cfg.Storage.BaseDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPipelineMemoryBackends(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DB = config.DBConfig{Driver: "memory"}
	cfg.Storage = config.StorageConfig{Backend: "memory"}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Pipeline(context.Background())
	require.NoError(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DB.Driver = "mysql"
	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestPipelineRejectsBadTemplate(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DB = config.DBConfig{Driver: "memory"}
	cfg.Lookup.URLTemplate = "http://example.com/"
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Pipeline(context.Background())
	require.Error(t, err)
}
