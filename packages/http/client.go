package http

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/cookie"
	"github.com/abdul-hamid-achik/easyhttp/packages/core/config"
	"github.com/abdul-hamid-achik/easyhttp/packages/header"
	"github.com/abdul-hamid-achik/easyhttp/packages/trace"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
)

// Client is one HTTP conversation: session defaults and a cookie jar that
// outlive NewRequest, plus the state of the request being configured.
// A Client must not be used from more than one goroutine at a time.
type Client struct {
	state *requestState

	defaults        header.Options
	defaultHeaders  http.Header
	defaultLogLevel trace.Level
	defaultEncoding header.Opt[string]
	postEncoding    string
	jar             *cookie.Jar
	transport       transport.Dispatcher
	interceptor     transport.Dispatcher
	tracer          *trace.Tracer
	lastResponse    *http.Response
}

type ClientOption func(*Client)

// New returns a client with no request configured yet. Call NewRequest
// before executing.
func New(opts ...ClientOption) *Client {
	c := &Client{
		state:          &requestState{phase: PhaseConfiguring, headers: make(http.Header)},
		defaultHeaders: make(http.Header),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.jar == nil {
		c.jar = cookie.New()
	}
	if c.transport == nil {
		c.transport = transport.NewNetTransport()
	}
	if c.tracer == nil {
		c.tracer = trace.New(nil)
	}

	return c
}

// With creates a client and configures a request for rawURL.
func With(rawURL string, opts ...ClientOption) (*Client, error) {
	c := New(opts...)
	if err := c.NewRequest(rawURL); err != nil {
		return nil, err
	}
	return c, nil
}

// WithTransport replaces the network dispatcher.
func WithTransport(d transport.Dispatcher) ClientOption {
	return func(c *Client) {
		c.transport = d
	}
}

// WithInterceptor registers a dispatcher that replaces the network for
// every request of the client.
func WithInterceptor(d transport.Dispatcher) ClientOption {
	return func(c *Client) {
		c.interceptor = d
	}
}

// WithJar shares a cookie jar between clients.
func WithJar(jar *cookie.Jar) ClientOption {
	return func(c *Client) {
		c.jar = jar
	}
}

func WithTracer(t *trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithConfig turns a loaded configuration into session defaults.
func WithConfig(cfg *config.Config) ClientOption {
	return func(c *Client) {
		if cfg == nil {
			return
		}
		for name, value := range map[string]string{
			"User-Agent":   cfg.UserAgent,
			"Accept":       cfg.Accept,
			"Referer":      cfg.Referer,
			"Content-Type": cfg.ContentType,
		} {
			if value != "" {
				c.defaults.Set(name, value)
			}
		}
		c.DefaultFollowRedirects(cfg.GetFollowRedirects()).
			DefaultKeepAlive(cfg.GetKeepAlive()).
			DefaultExpect100Continue(cfg.GetExpect100Continue()).
			DefaultAutoDecompress(cfg.GetAutoDecompress())
		if cfg.Timeout > 0 {
			c.DefaultTimeout(time.Duration(cfg.Timeout) * time.Millisecond)
		}
		for k, v := range cfg.Headers {
			c.DefaultHeader(k, v)
		}
		if cfg.ResponseEncoding != "" {
			c.DefaultResponseEncoding(cfg.ResponseEncoding)
		}
		if cfg.PostEncoding != "" {
			c.PostEncoding(cfg.PostEncoding)
		}
		if level, err := trace.ParseLevel(cfg.LogLevel); err == nil {
			c.DefaultLogLevel(level)
		}
		if c.transport == nil && cfg.MaxRedirects > 0 {
			c.transport = transport.NewNetTransport(transport.WithMaxRedirects(cfg.MaxRedirects))
		}
	}
}

// NewRequest starts a new request for rawURL. Every per-request setting is
// cleared; session defaults and cookies are kept. The query string of
// rawURL becomes the initial parameter list. An invalid URL leaves the
// client untouched.
func (c *Client) NewRequest(rawURL string) error {
	st, err := newRequestState(rawURL)
	if err != nil {
		return err
	}
	c.state = st
	return nil
}

// Phase reports where the current request is in its lifecycle.
func (c *Client) Phase() Phase {
	return c.state.phase
}

// URL returns the current request URL without its query string.
func (c *Client) URL() string {
	return c.state.baseURL
}

// Jar returns the client's cookie jar.
func (c *Client) Jar() *cookie.Jar {
	return c.jar
}

// LastResponse returns the response of the most recent execution, if any.
// Its body has usually been consumed by then.
func (c *Client) LastResponse() *http.Response {
	return c.lastResponse
}

// Session defaults. These survive NewRequest and apply whenever the
// current request does not set the same field.

// DefaultHeader sets a header for every request. Accept, Connection,
// Content-Type, Referer and User-Agent are stored as the matching default
// option.
func (c *Client) DefaultHeader(name, value string) *Client {
	if !c.defaults.Set(name, value) {
		c.defaultHeaders.Set(name, value)
	}
	return c
}

func (c *Client) DefaultUserAgent(ua string) *Client {
	c.defaults.UserAgent = header.Some(ua)
	return c
}

func (c *Client) DefaultReferer(referer string) *Client {
	c.defaults.Referer = header.Some(referer)
	return c
}

func (c *Client) DefaultAccept(accept string) *Client {
	c.defaults.Accept = header.Some(accept)
	return c
}

func (c *Client) DefaultContentType(contentType string) *Client {
	c.defaults.ContentType = header.Some(contentType)
	return c
}

func (c *Client) DefaultAcceptEncoding(encoding string) *Client {
	c.defaultHeaders.Set("Accept-Encoding", encoding)
	return c
}

func (c *Client) DefaultAcceptLanguage(language string) *Client {
	c.defaultHeaders.Set("Accept-Language", language)
	return c
}

func (c *Client) DefaultKeepAlive(keepAlive bool) *Client {
	c.defaults.KeepAlive = header.Some(keepAlive)
	return c
}

func (c *Client) DefaultExpect100Continue(expect bool) *Client {
	c.defaults.Expect100Continue = header.Some(expect)
	return c
}

func (c *Client) DefaultTimeout(d time.Duration) *Client {
	c.defaults.Timeout = header.Some(d)
	return c
}

func (c *Client) DefaultFollowRedirects(follow bool) *Client {
	c.defaults.FollowRedirects = header.Some(follow)
	return c
}

func (c *Client) DefaultCredentials(username, password string) *Client {
	c.defaults.Credentials = header.Some(header.Credentials{Username: username, Password: password})
	return c
}

func (c *Client) DefaultAutoDecompress(auto bool) *Client {
	c.defaults.AutoDecompress = header.Some(auto)
	return c
}

func (c *Client) DefaultConnection(connection string) *Client {
	c.defaults.Connection = header.Some(connection)
	return c
}

func (c *Client) DefaultClientCertificates(certs ...tls.Certificate) *Client {
	c.defaults.ClientCertificates = header.Some(certs)
	return c
}

// DefaultResponseEncoding sets the charset used to decode text responses
// when the request does not choose one. decode.Auto sniffs it.
func (c *Client) DefaultResponseEncoding(label string) *Client {
	c.defaultEncoding = header.Some(label)
	return c
}

func (c *Client) DefaultLogLevel(level trace.Level) *Client {
	c.defaultLogLevel = level
	return c
}

// PostEncoding sets the charset form bodies are encoded in. The label is
// checked when a body is encoded.
func (c *Client) PostEncoding(label string) *Client {
	c.postEncoding = label
	return c
}
