package decode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestIsGzip(t *testing.T) {
	assert.True(t, IsGzip("gzip"))
	assert.True(t, IsGzip("GZIP"))
	assert.True(t, IsGzip(" gzip "))
	assert.False(t, IsGzip(""))
	assert.False(t, IsGzip("br"))
}

func TestText_Plain(t *testing.T) {
	text, err := Text(strings.NewReader("hello"), "", false)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestText_Gzip(t *testing.T) {
	text, err := Text(bytes.NewReader(gzipped(t, "compressed body")), "utf-8", true)
	require.NoError(t, err)
	assert.Equal(t, "compressed body", text)
}

func TestText_MislabeledGzip(t *testing.T) {
	_, err := Text(strings.NewReader("not gzip at all"), "utf-8", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")
}

func TestText_Latin1(t *testing.T) {
	text, err := Text(bytes.NewReader([]byte("caf\xe9")), "ISO-8859-1", false)
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestText_GzipWithCharset(t *testing.T) {
	text, err := Text(bytes.NewReader(gzipped(t, "na\xefve")), "windows-1252", true)
	require.NoError(t, err)
	assert.Equal(t, "naïve", text)
}

func TestText_UnknownEncoding(t *testing.T) {
	_, err := Text(strings.NewReader("x"), "no-such-charset", false)
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestText_AutoUTF8(t *testing.T) {
	text, err := Text(strings.NewReader("plain ascii text that is also valid utf-8"), Auto, false)
	require.NoError(t, err)
	assert.Equal(t, "plain ascii text that is also valid utf-8", text)
}

func TestCharsetFromContentType(t *testing.T) {
	assert.Equal(t, "ISO-8859-1", CharsetFromContentType("text/html; charset=ISO-8859-1"))
	assert.Equal(t, "", CharsetFromContentType("application/json"))
	assert.Equal(t, "", CharsetFromContentType(""))
	assert.Equal(t, "", CharsetFromContentType(";;;"))
}

func TestBufferSize(t *testing.T) {
	assert.Equal(t, 1024, BufferSize(-1))
	assert.Equal(t, 1024, BufferSize(1024))
	assert.Equal(t, 10*1024, BufferSize(1025))
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0644))

	payload := bytes.Repeat([]byte("x"), 5000)
	written, err := ToFile(bytes.NewReader(payload), 10, path)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestToFile_BadPath(t *testing.T) {
	_, err := ToFile(strings.NewReader("x"), 1, filepath.Join(t.TempDir(), "missing", "out.bin"))
	assert.Error(t, err)
}

func TestImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	decoded, format, err := Image(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, decoded.Bounds().Dx())
	assert.Equal(t, 2, decoded.Bounds().Dy())

	_, _, err = Image(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestUncompressed(t *testing.T) {
	r, err := Uncompressed(strings.NewReader("raw"), false)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "raw", string(data))

	r, err = Uncompressed(bytes.NewReader(gzipped(t, "inflated")), true)
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "inflated", string(data))
}
