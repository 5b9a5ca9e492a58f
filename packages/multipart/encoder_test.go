package multipart

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEncode_TwoParts(t *testing.T) {
	path := writeTempFile(t, "name.txt", "file body")
	enc := NewEncoder()

	var body bytes.Buffer
	err := enc.Encode(&body, []form.KeyValue{
		form.Field("a", "1"),
		form.File("f", "name.txt", path),
	})
	require.NoError(t, err)

	raw := body.String()
	assert.Equal(t, 2, strings.Count(raw, "\r\n--"+enc.Boundary()+"\r\n"))
	assert.Equal(t, 1, strings.Count(raw, "\r\n--"+enc.Boundary()+"--\r\n"))
	assert.True(t, strings.HasSuffix(raw, "\r\n--"+enc.Boundary()+"--\r\n"))

	reader := multipart.NewReader(&body, enc.Boundary())

	plain, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "a", plain.FormName())
	value, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Equal(t, "1", string(value))

	file, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "f", file.FormName())
	assert.Equal(t, "name.txt", file.FileName())
	assert.Equal(t, "*/*", file.Header.Get("Content-Type"))
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(content))

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEncode_ExplicitAndDetectedContentType(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "plain text content\n")
	enc := NewEncoder()

	var body bytes.Buffer
	require.NoError(t, enc.Encode(&body, []form.KeyValue{
		form.FileWithType("typed", "notes.txt", path, "text/markdown"),
		form.FileWithType("sniffed", "notes.txt", path, form.DetectContentType),
	}))

	reader := multipart.NewReader(&body, enc.Boundary())

	typed, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", typed.Header.Get("Content-Type"))

	sniffed, err := reader.NextPart()
	require.NoError(t, err)
	assert.Contains(t, sniffed.Header.Get("Content-Type"), "text/plain")
}

func TestEncode_MissingFile(t *testing.T) {
	enc := NewEncoder()

	var body bytes.Buffer
	err := enc.Encode(&body, []form.KeyValue{
		form.Field("a", "1"),
		form.File("f", "gone.txt", filepath.Join(t.TempDir(), "gone.txt")),
	})

	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	// The plain part was already written; nothing is rolled back.
	assert.Contains(t, body.String(), `name="a"`)
}

func TestEncode_Empty(t *testing.T) {
	enc := NewEncoder()

	var body bytes.Buffer
	require.NoError(t, enc.Encode(&body, nil))

	assert.Equal(t, "\r\n--"+enc.Boundary()+"--\r\n", body.String())
}

func TestContentType(t *testing.T) {
	enc := NewEncoder()

	assert.True(t, strings.HasPrefix(enc.Boundary(), boundaryPrefix))
	assert.Equal(t, "multipart/form-data; boundary="+enc.Boundary(), enc.ContentType())
}
