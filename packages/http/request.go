package http

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	"github.com/abdul-hamid-achik/easyhttp/packages/header"
	"github.com/abdul-hamid-achik/easyhttp/packages/trace"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
)

// Phase is the lifecycle position of the current request.
type Phase int

const (
	PhaseConfiguring Phase = iota
	PhaseExecuting
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseConfiguring:
		return "configuring"
	case PhaseExecuting:
		return "executing"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// requestState is everything NewRequest resets. It is replaced as a whole,
// never cleared field by field.
type requestState struct {
	phase     Phase
	baseURL   string
	pending   *http.Request // POST reuses this request
	params    []form.KeyValue
	multipart bool
	body      header.Opt[string]
	options   header.Options
	headers   http.Header
	encoding  header.Opt[string]
	logLevel  header.Opt[trace.Level]
}

func newRequestState(rawURL string) (*requestState, error) {
	if _, err := transport.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	base, query := form.SplitURL(rawURL)
	pending, err := transport.Open(http.MethodPost, base)
	if err != nil {
		return nil, err
	}

	return &requestState{
		phase:   PhaseConfiguring,
		baseURL: base,
		pending: pending,
		params:  form.Decode(query),
		headers: make(http.Header),
	}, nil
}

// Data appends a form field or query parameter.
func (c *Client) Data(key, value string) *Client {
	c.state.params = append(c.state.params, form.Field(key, value))
	return c
}

// File appends a file part and switches the request to multipart.
func (c *Client) File(key, fileName, filePath string) *Client {
	return c.addFile(form.File(key, fileName, filePath))
}

// FileWithType is File with an explicit part Content-Type; form.DetectContentType
// sniffs it from the file.
func (c *Client) FileWithType(key, fileName, filePath, contentType string) *Client {
	return c.addFile(form.FileWithType(key, fileName, filePath, contentType))
}

func (c *Client) addFile(kv form.KeyValue) *Client {
	c.state.params = append(c.state.params, kv)
	c.state.multipart = true
	return c
}

// Params appends pairs in order. Any file pair switches to multipart.
func (c *Client) Params(pairs ...form.KeyValue) *Client {
	c.state.params = append(c.state.params, pairs...)
	if form.HasFiles(pairs) {
		c.state.multipart = true
	}
	return c
}

// Body sets a raw body that replaces the encoded parameters.
func (c *Client) Body(body string) *Client {
	c.state.body = header.Some(body)
	return c
}

// AsMultipart sends the parameters as multipart/form-data on POST.
func (c *Client) AsMultipart() *Client {
	c.state.multipart = true
	return c
}

// Header sets a header for this request only. Accept, Connection,
// Content-Type, Referer and User-Agent are stored as the matching option.
func (c *Client) Header(name, value string) *Client {
	if !c.state.options.Set(name, value) {
		c.state.headers.Set(name, value)
	}
	return c
}

func (c *Client) UserAgent(ua string) *Client {
	c.state.options.UserAgent = header.Some(ua)
	return c
}

func (c *Client) Referer(referer string) *Client {
	c.state.options.Referer = header.Some(referer)
	return c
}

func (c *Client) Accept(accept string) *Client {
	c.state.options.Accept = header.Some(accept)
	return c
}

func (c *Client) ContentType(contentType string) *Client {
	c.state.options.ContentType = header.Some(contentType)
	return c
}

func (c *Client) AcceptEncoding(encoding string) *Client {
	c.state.headers.Set("Accept-Encoding", encoding)
	return c
}

func (c *Client) AcceptLanguage(language string) *Client {
	c.state.headers.Set("Accept-Language", language)
	return c
}

func (c *Client) KeepAlive(keepAlive bool) *Client {
	c.state.options.KeepAlive = header.Some(keepAlive)
	return c
}

func (c *Client) Expect100Continue(expect bool) *Client {
	c.state.options.Expect100Continue = header.Some(expect)
	return c
}

// Timeout bounds the whole exchange, redirects and body read included.
func (c *Client) Timeout(d time.Duration) *Client {
	c.state.options.Timeout = header.Some(d)
	return c
}

func (c *Client) FollowRedirects(follow bool) *Client {
	c.state.options.FollowRedirects = header.Some(follow)
	return c
}

// Credentials sends basic authentication.
func (c *Client) Credentials(username, password string) *Client {
	c.state.options.Credentials = header.Some(header.Credentials{Username: username, Password: password})
	return c
}

// Connection sets the Connection header; "close" also closes the connection
// after the response.
func (c *Client) Connection(connection string) *Client {
	c.state.options.Connection = header.Some(connection)
	return c
}

func (c *Client) AutoDecompress(auto bool) *Client {
	c.state.options.AutoDecompress = header.Some(auto)
	return c
}

func (c *Client) ClientCertificates(certs ...tls.Certificate) *Client {
	c.state.options.ClientCertificates = header.Some(certs)
	return c
}

// Cookie stores a cookie for the current URL in the jar. It is best effort:
// without a usable URL nothing is stored.
func (c *Client) Cookie(name, value string) *Client {
	c.jar.TrySet(c.state.baseURL, name, value)
	return c
}

// Cookies stores every cookie of a "a=1; b=2" string for the current URL.
// Attribute tokens such as Path are ignored.
func (c *Client) Cookies(cookieHeader string) *Client {
	c.jar.SetFromHeaderString(c.state.baseURL, cookieHeader)
	return c
}

// ResponseEncoding sets the charset used to decode the text response.
func (c *Client) ResponseEncoding(label string) *Client {
	c.state.encoding = header.Some(label)
	return c
}

func (c *Client) LogLevel(level trace.Level) *Client {
	c.state.logLevel = header.Some(level)
	return c
}
