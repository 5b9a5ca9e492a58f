package http

import (
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/abdul-hamid-achik/easyhttp/packages/decode"
)

// FileResult reports how much of a response body reached the file.
type FileResult struct {
	Written  int64
	Expected int64 // -1 when the length was not announced or the body was compressed
}

// Complete reports whether the announced length was written. It is true
// when no length was announced.
func (r FileResult) Complete() bool {
	return r.Expected < 0 || r.Written == r.Expected
}

// ExecuteForString executes and decodes the body as text. The charset is
// the request's response encoding, else the session default, else the one
// named by the Content-Type, else UTF-8.
func (c *Client) ExecuteForString(method string) (string, error) {
	resp, err := c.executeChecked(method)
	if err != nil {
		return "", err
	}
	return c.ReadString(resp)
}

// ReadString decodes and closes the body of a response returned by
// Execute, choosing the charset the way ExecuteForString does. The status
// code is not checked.
func (c *Client) ReadString(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	encoding := c.state.encoding.Or(c.defaultEncoding).ValueOr(decode.CharsetFromContentType(resp.Header.Get("Content-Type")))
	text, err := decode.Text(resp.Body, encoding, decode.IsGzip(resp.Header.Get("Content-Encoding")))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return text, nil
}

func (c *Client) GetForString() (string, error) {
	return c.ExecuteForString(http.MethodGet)
}

func (c *Client) PostForString() (string, error) {
	return c.ExecuteForString(http.MethodPost)
}

// PostBodyForString posts body in place of the encoded parameters.
func (c *Client) PostBodyForString(body string) (string, error) {
	return c.Body(body).ExecuteForString(http.MethodPost)
}

func (c *Client) PutForString() (string, error) {
	return c.ExecuteForString(http.MethodPut)
}

func (c *Client) DeleteForString() (string, error) {
	return c.ExecuteForString(http.MethodDelete)
}

// ExecuteForBytes executes and returns the (decompressed) body.
func (c *Client) ExecuteForBytes(method string) ([]byte, error) {
	resp, err := c.executeChecked(method)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := uncompressed(resp)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return data, nil
}

// ExecuteForFile executes and writes the body to path, replacing any file
// already there.
func (c *Client) ExecuteForFile(method, path string) (FileResult, error) {
	resp, err := c.executeChecked(method)
	if err != nil {
		return FileResult{}, err
	}
	defer resp.Body.Close()

	result := FileResult{Expected: resp.ContentLength}
	if decode.IsGzip(resp.Header.Get("Content-Encoding")) {
		result.Expected = -1
	}

	body, err := uncompressed(resp)
	if err != nil {
		return FileResult{}, err
	}
	result.Written, err = decode.ToFile(body, resp.ContentLength, path)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return result, nil
}

func (c *Client) GetForFile(path string) (FileResult, error) {
	return c.ExecuteForFile(http.MethodGet, path)
}

func (c *Client) PostForFile(path string) (FileResult, error) {
	return c.ExecuteForFile(http.MethodPost, path)
}

func (c *Client) PutForFile(path string) (FileResult, error) {
	return c.ExecuteForFile(http.MethodPut, path)
}

func (c *Client) DeleteForFile(path string) (FileResult, error) {
	return c.ExecuteForFile(http.MethodDelete, path)
}

// ExecuteForImage executes and decodes the body as a PNG, JPEG or GIF.
func (c *Client) ExecuteForImage(method string) (image.Image, error) {
	resp, err := c.executeChecked(method)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := uncompressed(resp)
	if err != nil {
		return nil, err
	}
	img, _, err := decode.Image(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

func (c *Client) GetForImage() (image.Image, error) {
	return c.ExecuteForImage(http.MethodGet)
}

func (c *Client) PostForImage() (image.Image, error) {
	return c.ExecuteForImage(http.MethodPost)
}

func (c *Client) PutForImage() (image.Image, error) {
	return c.ExecuteForImage(http.MethodPut)
}

func (c *Client) DeleteForImage() (image.Image, error) {
	return c.ExecuteForImage(http.MethodDelete)
}

// Get performs a full GET round trip and discards the body.
func (c *Client) Get() error {
	return c.discard(http.MethodGet)
}

func (c *Client) Post() error {
	return c.discard(http.MethodPost)
}

func (c *Client) Put() error {
	return c.discard(http.MethodPut)
}

func (c *Client) Delete() error {
	return c.discard(http.MethodDelete)
}

func (c *Client) discard(method string) error {
	resp, err := c.executeChecked(method)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// executeChecked executes and turns status codes of 400 and above into a
// *StatusError, closing the body in that case.
func (c *Client) executeChecked(method string) (*http.Response, error) {
	resp, err := c.Execute(method)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{
			Method:     method,
			URL:        requestURL(resp),
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}
	return resp, nil
}

func uncompressed(resp *http.Response) (io.Reader, error) {
	body, err := decode.Uncompressed(resp.Body, decode.IsGzip(resp.Header.Get("Content-Encoding")))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return body, nil
}

func requestURL(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
