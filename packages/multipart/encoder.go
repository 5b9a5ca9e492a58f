package multipart

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	"github.com/gabriel-vasile/mimetype"
)

const (
	boundaryPrefix = "---------------------------"
	copyBufferSize = 4096
)

// Encoder writes one multipart body.
type Encoder struct {
	boundary string
}

// NewEncoder returns an Encoder with a fresh boundary.
func NewEncoder() *Encoder {
	return &Encoder{boundary: NewBoundary()}
}

// NewBoundary derives a boundary token from the current time.
func NewBoundary() string {
	return boundaryPrefix + strconv.FormatInt(time.Now().UnixNano(), 16)
}

// Boundary returns the boundary token.
func (e *Encoder) Boundary() string {
	return e.boundary
}

// ContentType returns the Content-Type header value for the body.
func (e *Encoder) ContentType() string {
	return "multipart/form-data; boundary=" + e.boundary
}

// Encode writes every field in order followed by the closing boundary. An
// error opening or reading an attachment is returned as is; whatever was
// already written stays written.
func (e *Encoder) Encode(w io.Writer, fields []form.KeyValue) error {
	delimiter := "\r\n--" + e.boundary + "\r\n"
	buf := make([]byte, copyBufferSize)

	for _, field := range fields {
		if _, err := io.WriteString(w, delimiter); err != nil {
			return err
		}

		if !field.IsFile() {
			part := fmt.Sprintf("Content-Disposition: form-data; name=%q\r\n\r\n%s", field.Key, field.Value)
			if _, err := io.WriteString(w, part); err != nil {
				return err
			}
			continue
		}

		if err := e.writeFile(w, field, buf); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\r\n--"+e.boundary+"--\r\n")
	return err
}

func (e *Encoder) writeFile(w io.Writer, field form.KeyValue, buf []byte) error {
	file, err := os.Open(field.FilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	contentType, err := contentTypeOf(field)
	if err != nil {
		return err
	}

	head := fmt.Sprintf("Content-Disposition: form-data; name=%q; filename=%q\r\nContent-Type: %s\r\n\r\n",
		field.Key, field.Value, contentType)
	if _, err := io.WriteString(w, head); err != nil {
		return err
	}

	_, err = io.CopyBuffer(w, file, buf)
	return err
}

func contentTypeOf(field form.KeyValue) (string, error) {
	switch field.ContentType {
	case "":
		return form.DefaultContentType, nil
	case form.DetectContentType:
		mtype, err := mimetype.DetectFile(field.FilePath)
		if err != nil {
			return "", err
		}
		return mtype.String(), nil
	default:
		return field.ContentType, nil
	}
}
