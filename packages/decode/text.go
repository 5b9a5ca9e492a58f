package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Auto asks Text to detect the character encoding from the content.
const Auto = "auto"

// ErrUnknownEncoding is returned for an encoding label charset cannot map.
var ErrUnknownEncoding = errors.New("unknown character encoding")

// IsGzip reports whether a Content-Encoding value names gzip.
func IsGzip(contentEncoding string) bool {
	return strings.EqualFold(strings.TrimSpace(contentEncoding), "gzip")
}

// Uncompressed returns r itself, or a gzip reader over it when gzipped.
func Uncompressed(r io.Reader, gzipped bool) (io.Reader, error) {
	if !gzipped {
		return r, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return gz, nil
}

// Text reads r to the end and returns it as a UTF-8 string. When gzipped is
// true the stream is decompressed first.
func Text(r io.Reader, encoding string, gzipped bool) (string, error) {
	r, err := Uncompressed(r, gzipped)
	if err != nil {
		return "", err
	}

	label := normalizeLabel(encoding)
	if label == "utf-8" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if label == Auto {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		label = Detect(data)
		if label == "utf-8" {
			return string(data), nil
		}
		r = bytes.NewReader(data)
	}

	utf8Reader, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownEncoding, encoding)
	}
	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Detect guesses the character encoding of data, defaulting to utf-8.
func Detect(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return normalizeLabel(result.Charset)
}

// CharsetFromContentType returns the charset parameter of a Content-Type
// value, or "" when there is none.
func CharsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf8", "utf-8":
		return "utf-8"
	case "gb-18030":
		return "gb18030"
	}
	return label
}
