package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/easyhttp/packages/assertions"
)

func sample() *Result {
	return &Result{
		Method:     "GET",
		URL:        "http://x.test/users/1",
		Status:     200,
		StatusText: "200 OK",
		Header:     http.Header{"Content-Type": {"application/json"}, "X-Id": {"7"}},
		Body:       []byte(`{"id":1,"tags":["a"]}`),
		Duration:   42 * time.Millisecond,
		Captures:   map[string]any{"id": float64(1), "tags": []any{"a"}},
	}
}

func TestConsole_Format(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	require.NoError(t, c.Format(sample()))
	out := buf.String()

	assert.Contains(t, out, "HTTP/1.1 200 OK\n")
	assert.Contains(t, out, "GET http://x.test/users/1 (42ms)")
	assert.Contains(t, out, "Content-Type: application/json\nX-Id: 7\n")
	assert.Contains(t, out, "\"id\": 1")
	assert.Contains(t, out, "id = 1")
	assert.Contains(t, out, "tags = [1 items]")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsole_HeadersOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(WithWriter(&buf), WithNoColor(true)).Format(sample()))
	assert.NotContains(t, buf.String(), "X-Id")
}

func TestConsole_Quiet(t *testing.T) {
	var buf bytes.Buffer
	r := sample()
	r.Body = []byte("plain text")

	require.NoError(t, NewConsole(WithWriter(&buf), WithQuiet(true)).Format(r))
	assert.Equal(t, "plain text\n", buf.String())
}

func TestConsole_SavedFileSchemaAndHistory(t *testing.T) {
	var buf bytes.Buffer
	r := sample()
	r.Captures = nil
	r.SavedTo = "/tmp/out.bin"
	r.Written = 2048
	r.SchemaErr = errors.New("id: Invalid type")
	r.HistoryID = "abc123"
	r.StatusText = ""

	require.NoError(t, NewConsole(WithWriter(&buf), WithNoColor(true)).Format(r))
	out := buf.String()

	assert.Contains(t, out, "HTTP/1.1 200\n")
	assert.Contains(t, out, "saved 2048 bytes to /tmp/out.bin")
	assert.NotContains(t, out, `"id"`)
	assert.Contains(t, out, "schema: id: Invalid type")
	assert.Contains(t, out, "history abc123")
}

func TestConsole_Checks(t *testing.T) {
	var buf bytes.Buffer
	r := sample()
	r.Checks = []*assertions.Result{
		{Subject: "status", Operator: "==", Passed: true},
		{Subject: "body.id", Operator: "exists", Message: "expected to exist"},
	}

	require.NoError(t, NewConsole(WithWriter(&buf), WithNoColor(true)).Format(r))
	out := buf.String()

	assert.Contains(t, out, "Checks\n")
	assert.Contains(t, out, "  ✓ status ==\n")
	assert.Contains(t, out, "  ✗ body.id exists: expected to exist\n")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(true, &buf).Format(sample()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, float64(200), doc["status"])
	assert.Equal(t, float64(42), doc["durationMs"])
	assert.Equal(t, map[string]any{"id": float64(1), "tags": []any{"a"}}, doc["body"])
	assert.Equal(t, float64(1), doc["captures"].(map[string]any)["id"])
}

func TestJSONFormatter_TextAndBinaryBodies(t *testing.T) {
	r := sample()

	var buf bytes.Buffer
	r.Body = []byte("hello")
	require.NoError(t, NewJSON(&buf).Format(r))
	assert.Contains(t, buf.String(), `"body": "hello"`)

	buf.Reset()
	r.Body = []byte{0xff, 0xfe}
	require.NoError(t, NewJSON(&buf).Format(r))
	assert.NotContains(t, buf.String(), `"body"`)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "{2 keys}", summarize(map[string]any{"a": 1, "b": 2}, 10))
	assert.Equal(t, "abc...", summarize("abcdef", 3))
	assert.Equal(t, "7", summarize(7, 10))
}
