package gcs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	blobstorage "github.com/JakeFAU/dictcrawler/internal/storage"
	"github.com/JakeFAU/dictcrawler/internal/storage/gcs"
)

func newTestStore(t *testing.T, handler http.Handler, prefix string) *gcs.BlobStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := gcs.New(client, gcs.Config{Bucket: "audio-bucket", Prefix: prefix})
	require.NoError(t, err)
	return store
}

func TestNewValidation(t *testing.T) {
	_, err := gcs.New(nil, gcs.Config{Bucket: "b"})
	assert.Error(t, err)

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()
	_, err = gcs.New(client, gcs.Config{})
	assert.Error(t, err)
}

func TestPutObjectUploads(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "audio-bucket")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "dict/us/run.mp3")
		assert.Contains(t, string(body), "ID3 audio")
		assert.Contains(t, string(body), "audio/mpeg")

		fmt.Fprintln(w, `{"name":"dict/us/run.mp3","bucket":"audio-bucket"}`)
	})
	store := newTestStore(t, handler, "/dict/")

	uri, err := store.PutObject(context.Background(), "us/run.mp3", "audio/mpeg", strings.NewReader("ID3 audio"))
	require.NoError(t, err)
	assert.Equal(t, "gs://audio-bucket/dict/us/run.mp3", uri)
}

func TestPutObjectServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store := newTestStore(t, handler, "")

	_, err := store.PutObject(context.Background(), "uk/run.mp3", "audio/mpeg", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestPutObjectReaderError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		fmt.Fprintln(w, `{"name":"uk/run.mp3"}`)
	})
	store := newTestStore(t, handler, "")

	_, err := store.PutObject(context.Background(), "uk/run.mp3", "audio/mpeg", errReader{})
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()

	store, err := gcs.New(client, gcs.Config{Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "us/a.mp3", store.ObjectName("us/a.mp3"))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("stream reset") }

func TestPutObjectRejectsEmptyPath(t *testing.T) {
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected for an empty path")
	})
	store := newTestStore(t, handler, "")

	_, err := store.PutObject(context.Background(), " ", "audio/mpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, blobstorage.ErrInvalidPath)
}
