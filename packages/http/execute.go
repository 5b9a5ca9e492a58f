package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	"github.com/abdul-hamid-achik/easyhttp/packages/header"
	"github.com/abdul-hamid-achik/easyhttp/packages/multipart"
	"github.com/abdul-hamid-achik/easyhttp/packages/trace"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
)

const formContentType = "application/x-www-form-urlencoded"

// Execute sends the current request with method and returns the raw
// response for any status code. The caller must close its body.
func (c *Client) Execute(method string) (*http.Response, error) {
	return c.ExecuteContext(context.Background(), method)
}

// ExecuteContext is Execute with a context governing the exchange.
func (c *Client) ExecuteContext(ctx context.Context, method string) (*http.Response, error) {
	st := c.state
	if st.baseURL == "" {
		return nil, fmt.Errorf("%w: no URL configured, call NewRequest first", ErrInvalidURL)
	}

	method = strings.ToUpper(method)
	st.phase = PhaseExecuting

	p, ex, finish, err := c.prepare(ctx, method)
	if err != nil {
		st.phase = PhaseFailed
		return nil, err
	}

	start := time.Now()
	resp, err := c.dispatcher().Dispatch(p)
	ex.Duration = time.Since(start)
	if encErr := finish(); encErr != nil {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = nil, encErr
	} else if err != nil {
		err = fmt.Errorf("%w: %s %s: %w", ErrTransport, method, p.URL, err)
	} else if resp == nil {
		err = fmt.Errorf("%w: %s %s: no response", ErrTransport, method, p.URL)
	}

	if err != nil {
		st.phase = PhaseFailed
		ex.Err = err
		c.tracer.TryRecord(c.logLevel(), ex)
		return nil, err
	}

	if resp.Request == nil {
		resp.Request = p.Request
	}
	c.jar.Absorb(resp.Request.URL, resp)
	c.lastResponse = resp
	st.phase = PhaseCompleted

	ex.Status = resp.StatusCode
	ex.ResponseHeader = resp.Header
	c.tracer.TryRecord(c.logLevel(), ex)

	return resp, nil
}

func (c *Client) dispatcher() transport.Dispatcher {
	if c.interceptor != nil {
		return c.interceptor
	}
	return c.transport
}

func (c *Client) logLevel() trace.Level {
	return c.state.logLevel.ValueOr(c.defaultLogLevel)
}

// prepare builds the outgoing request. finish must be called once dispatch
// has returned; it reports a failure of the multipart body writer.
func (c *Client) prepare(ctx context.Context, method string) (*transport.Prepared, trace.Exchange, func() error, error) {
	st := c.state
	opts := header.Resolve(st.options, c.defaults)
	finish := func() error { return nil }

	var req *http.Request
	if method == http.MethodPost {
		req = st.pending.Clone(ctx)
	} else {
		target := st.baseURL
		if len(st.params) > 0 {
			target += "?" + form.Encode(st.params)
		}
		opened, err := transport.Open(method, target)
		if err != nil {
			return nil, trace.Exchange{}, nil, err
		}
		req = opened.WithContext(ctx)
	}

	skipped := header.Merge(req.Header, c.defaultHeaders, st.headers)

	ex := trace.Exchange{
		Method:  method,
		URL:     req.URL.String(),
		Skipped: skipped,
	}

	switch {
	case method == http.MethodPost && st.multipart:
		if err := checkAttachments(st.params); err != nil {
			return nil, trace.Exchange{}, nil, err
		}
		enc := multipart.NewEncoder()
		opts.ContentType = header.Some(enc.ContentType())
		opts.KeepAlive = header.Some(true)
		finish = c.streamMultipart(req, enc, st.params)
		ex.Params = st.params
		ex.Multipart = true

	case method == http.MethodPost:
		body, ok := st.body.Get()
		if !ok {
			body = form.Encode(st.params)
			ex.Params = st.params
		}
		if err := c.writeBody(req, &opts, body); err != nil {
			return nil, trace.Exchange{}, nil, err
		}
		ex.Body = body

	case method == http.MethodPut || method == http.MethodDelete:
		if body, ok := st.body.Get(); ok {
			if err := c.writeBody(req, &opts, body); err != nil {
				return nil, trace.Exchange{}, nil, err
			}
			ex.Body = body
		}
		ex.Params = st.params

	default:
		ex.Params = st.params
	}

	header.Apply(req, opts)
	c.attachCookies(req)
	ex.RequestHeader = req.Header

	return &transport.Prepared{Request: req, Options: opts}, ex, finish, nil
}

// writeBody sets a fixed body encoded with the post encoding. The form
// content type is used unless one was resolved.
func (c *Client) writeBody(req *http.Request, opts *header.Options, body string) error {
	data, err := c.encodeBody(body)
	if err != nil {
		return err
	}
	if v, ok := opts.ContentType.Get(); !ok || v == "" {
		opts.ContentType = header.Some(formContentType)
	}

	req.ContentLength = int64(len(data))
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}

func (c *Client) encodeBody(body string) ([]byte, error) {
	label := strings.ToLower(strings.TrimSpace(c.postEncoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return []byte(body), nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: unknown post encoding %q", ErrEncode, c.postEncoding)
	}
	data, err := enc.NewEncoder().String(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return []byte(data), nil
}

// streamMultipart makes enc's output the body of req, written by a
// goroutine as the transport reads it.
func (c *Client) streamMultipart(req *http.Request, enc *multipart.Encoder, fields []form.KeyValue) func() error {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		err := enc.Encode(pw, fields)
		pw.CloseWithError(err)
		done <- err
	}()

	req.Body = pr
	req.ContentLength = -1
	req.GetBody = nil

	return func() error {
		// Runs the writer to the end even when the dispatcher never read
		// the body. A transport that closed pr already makes this a no-op.
		_, _ = io.Copy(io.Discard, pr)
		pr.Close()
		err := <-done
		if err == nil || errors.Is(err, io.ErrClosedPipe) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
}

// checkAttachments fails before dispatch when a file part cannot be read.
func checkAttachments(fields []form.KeyValue) error {
	for _, f := range fields {
		if !f.IsFile() {
			continue
		}
		info, err := os.Stat(f.FilePath)
		if err != nil {
			return fmt.Errorf("%w: attachment %q: %w", ErrEncode, f.Key, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: attachment %q: %s is a directory", ErrEncode, f.Key, f.FilePath)
		}
	}
	return nil
}

func (c *Client) attachCookies(req *http.Request) {
	cookies := c.jar.HeaderString(req.URL.String())
	if cookies == "" {
		return
	}
	if existing := req.Header.Get("Cookie"); existing != "" {
		cookies = existing + "; " + cookies
	}
	req.Header.Set("Cookie", cookies)
}
