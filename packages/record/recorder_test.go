package record

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/easyhttp/packages/mock"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Internal", "yes")
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = w.Write([]byte("echo:" + string(body)))
	}))
	t.Cleanup(server.Close)
	return server
}

func send(t *testing.T, d transport.Dispatcher, method, rawURL, body string) *http.Response {
	t.Helper()
	req, err := transport.Open(method, rawURL)
	require.NoError(t, err)
	if body != "" {
		req.Body = io.NopCloser(strings.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil }
		req.ContentLength = int64(len(body))
	}
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := d.Dispatch(&transport.Prepared{Request: req})
	require.NoError(t, err)
	return resp
}

func TestRecorder_RecordsAndPassesBodyThrough(t *testing.T) {
	server := echoServer(t)
	rec := New(transport.NewNetTransport())

	resp := send(t, rec, http.MethodPost, server.URL+"/items?x=1", "a=1")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "echo:a=1", string(body))

	recs := rec.Recordings()
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/items", r.Path)
	assert.Equal(t, server.URL+"/items?x=1", r.URL)
	assert.Equal(t, "a=1", r.RequestBody)
	assert.Equal(t, "{{AUTHORIZATION}}", r.RequestHeader["Authorization"])
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "echo:a=1", r.ResponseBody)
	assert.Equal(t, "yes", r.ResponseHeader["X-Internal"])
	assert.Positive(t, r.Duration)
}

func TestRecorder_StreamedBodyNotCaptured(t *testing.T) {
	server := echoServer(t)
	rec := New(transport.NewNetTransport())

	req, err := transport.Open(http.MethodPost, server.URL+"/upload")
	require.NoError(t, err)
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte("streamed"))
		_ = pw.Close()
	}()
	req.Body = pr

	resp, err := rec.Dispatch(&transport.Prepared{Request: req})
	require.NoError(t, err)
	resp.Body.Close()

	r := rec.Recordings()[0]
	assert.True(t, r.Streamed)
	assert.Empty(t, r.RequestBody)
	assert.Equal(t, "echo:streamed", r.ResponseBody)
}

func TestRecorder_ExcludeAndDeduplicate(t *testing.T) {
	server := echoServer(t)
	rec := New(transport.NewNetTransport(), WithExclude("/health"), WithDeduplicate(true))

	for _, path := range []string{"/health", "/a", "/a", "/b"} {
		send(t, rec, http.MethodGet, server.URL+path, "").Body.Close()
	}

	var paths []string
	for _, r := range rec.Recordings() {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/a", "/b"}, paths)

	rec.Clear()
	assert.Empty(t, rec.Recordings())
	send(t, rec, http.MethodGet, server.URL+"/a", "").Body.Close()
	assert.Len(t, rec.Recordings(), 1)
}

func TestRecorder_TruncatesAndEncodesBinary(t *testing.T) {
	binary := transport.DispatcherFunc(func(p *transport.Prepared) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("\xff\xfe\xfd\xfc")),
			Request:    p.Request,
		}, nil
	})
	rec := New(binary, WithMaxBody(2), WithSanitize())

	resp := send(t, rec, http.MethodGet, "http://x.test/bin", "")
	full, _ := io.ReadAll(resp.Body)
	assert.Len(t, full, 4, "caller sees the whole body")

	r := rec.Recordings()[0]
	assert.True(t, r.Truncated)
	assert.Equal(t, "base64", r.BodyEncoding)
	assert.Equal(t, "//4=", r.ResponseBody)
	assert.Equal(t, "Bearer secret", r.RequestHeader["Authorization"])
}

func TestRecorder_RecordsTransportErrors(t *testing.T) {
	failing := transport.DispatcherFunc(func(*transport.Prepared) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	rec := New(failing)

	req, err := transport.Open(http.MethodGet, "http://x.test/")
	require.NoError(t, err)
	_, err = rec.Dispatch(&transport.Prepared{Request: req})
	require.Error(t, err)

	r := rec.Recordings()[0]
	assert.Equal(t, "connection refused", r.Error)
	assert.Zero(t, r.Status)
}

func TestWriteAndReadFile(t *testing.T) {
	server := echoServer(t)
	rec := New(transport.NewNetTransport())
	send(t, rec, http.MethodGet, server.URL+"/one", "").Body.Close()

	path := filepath.Join(t.TempDir(), "recordings.json")
	require.NoError(t, rec.WriteFile(path))

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "/one", recs[0].Path)

	empty, err := New(nil).JSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestWriteRoutes_ReplaysThroughMock(t *testing.T) {
	server := echoServer(t)
	rec := New(transport.NewNetTransport())
	send(t, rec, http.MethodPost, server.URL+"/items", "x").Body.Close()
	send(t, rec, http.MethodGet, server.URL+"/missing", "").Body.Close()

	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, WriteRoutes(path, rec.Recordings()))

	responder, err := mock.Load(path)
	require.NoError(t, err)
	require.Len(t, responder.Routes(), 2)

	resp := send(t, responder, http.MethodPost, "http://replay.test/items", "")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "echo:x", string(body))
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("X-Internal"))

	resp = send(t, responder, http.MethodGet, "http://replay.test/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
