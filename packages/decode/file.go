package decode

import (
	"io"
	"os"
)

const (
	smallBuffer   = 1024
	largeBuffer   = 10 * 1024
	largeResponse = 1024
)

// BufferSize picks the copy buffer for a body of the expected length.
func BufferSize(expected int64) int {
	if expected > largeResponse {
		return largeBuffer
	}
	return smallBuffer
}

// ToFile copies r into path, replacing any existing file, and returns the
// number of bytes written. It does not compare against expected; that is
// only used to size the copy buffer.
func ToFile(r io.Reader, expected int64, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	// Wrapping both ends hides ReaderFrom/WriterTo so the sized buffer is used.
	written, err := io.CopyBuffer(struct{ io.Writer }{file}, struct{ io.Reader }{r}, make([]byte, BufferSize(expected)))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return written, err
}
