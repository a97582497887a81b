package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	buf      bytes.Buffer
	closed   bool
	closeErr error
}

func (w *recordingWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *recordingWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestPutObject(t *testing.T) {
	t.Parallel()

	var gotObject, gotType string
	w := &recordingWriter{}
	store, err := newBlobStore(Config{Bucket: "jobs"}, func(_ context.Context, object, contentType string) io.WriteCloser {
		gotObject, gotType = object, contentType
		return w
	})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "/runs/r1/jobs.json", "application/json", strings.NewReader("[]"))
	require.NoError(t, err)
	require.Equal(t, "gs://jobs/runs/r1/jobs.json", uri)
	require.Equal(t, "runs/r1/jobs.json", gotObject)
	require.Equal(t, "application/json", gotType)
	require.Equal(t, "[]", w.buf.String())
	require.True(t, w.closed)
	require.NoError(t, store.Close())
}

func TestPutObjectErrors(t *testing.T) {
	t.Parallel()

	_, err := newBlobStore(Config{}, nil)
	require.Error(t, err)

	_, err = NewWithClient(nil, Config{Bucket: "jobs"})
	require.Error(t, err)

	w := &recordingWriter{}
	store, err := newBlobStore(Config{Bucket: "jobs"}, func(context.Context, string, string) io.WriteCloser { return w })
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), " ", "", strings.NewReader("x"))
	require.Error(t, err)

	_, err = store.PutObject(context.Background(), "a.json", "", brokenReader{})
	require.ErrorContains(t, err, "read failed")
	require.True(t, w.closed)

	failing := &recordingWriter{closeErr: errors.New("precondition failed")}
	store, err = newBlobStore(Config{Bucket: "jobs"}, func(context.Context, string, string) io.WriteCloser { return failing })
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "a.json", "", strings.NewReader("x"))
	require.ErrorContains(t, err, "precondition failed")
}
