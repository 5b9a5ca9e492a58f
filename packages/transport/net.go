package transport

import (
	"crypto/tls"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTimeout applies when a request carries no timeout of its own.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
	// ExpectContinueTimeout bounds the wait for "100 Continue" before the
	// body is sent anyway.
	ExpectContinueTimeout = time.Second
)

// NetTransport dispatches requests over net/http.
type NetTransport struct {
	roundTripper http.RoundTripper
	timeout      time.Duration
	maxRedirects int

	mu       sync.Mutex
	variants map[variant]http.RoundTripper
}

// variant identifies a derived *http.Transport. Certificates are not part
// of the key; a request carrying them gets a transport of its own.
type variant struct {
	expectContinue bool
	noKeepAlive    bool
	noCompression  bool
}

type NetOption func(*NetTransport)

func NewNetTransport(opts ...NetOption) *NetTransport {
	t := &NetTransport{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		variants:     make(map[variant]http.RoundTripper),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.roundTripper == nil {
		t.roundTripper = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		}
	}

	return t
}

// WithBaseTimeout sets the timeout used when a request does not set one.
// Zero disables it.
func WithBaseTimeout(d time.Duration) NetOption {
	return func(t *NetTransport) {
		t.timeout = d
	}
}

func WithMaxRedirects(max int) NetOption {
	return func(t *NetTransport) {
		t.maxRedirects = max
	}
}

// WithRoundTripper replaces the underlying round tripper. Keep-alive,
// expect-continue and certificate options are only applied when it is an
// *http.Transport.
func WithRoundTripper(rt http.RoundTripper) NetOption {
	return func(t *NetTransport) {
		t.roundTripper = rt
	}
}

// Dispatch sends p with a client configured from p.Options.
func (t *NetTransport) Dispatch(p *Prepared) (*http.Response, error) {
	follow := p.Options.FollowRedirects.ValueOr(true)
	rt, release := t.roundTripperFor(p)

	client := &http.Client{
		Transport: rt,
		Timeout:   p.Options.Timeout.ValueOr(t.timeout),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !follow {
				return http.ErrUseLastResponse
			}
			if len(via) >= t.maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	resp, err := client.Do(p.Request)
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

// roundTripperFor returns the round tripper honouring the connection level
// options of p, and a func to call once the response is done with.
func (t *NetTransport) roundTripperFor(p *Prepared) (http.RoundTripper, func()) {
	noop := func() {}

	base, ok := t.roundTripper.(*http.Transport)
	if !ok {
		return t.roundTripper, noop
	}

	v := variant{
		expectContinue: p.Options.Expect100Continue.ValueOr(false),
		noKeepAlive:    !p.Options.KeepAlive.ValueOr(true),
		noCompression:  !p.Options.AutoDecompress.ValueOr(true),
	}

	if certs, ok := p.Options.ClientCertificates.Get(); ok && len(certs) > 0 {
		tr := derive(base, v)
		cfg := &tls.Config{}
		if tr.TLSClientConfig != nil {
			cfg = tr.TLSClientConfig.Clone()
		}
		cfg.Certificates = certs
		tr.TLSClientConfig = cfg
		return tr, tr.CloseIdleConnections
	}

	if v == (variant{}) {
		return base, noop
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rt, ok := t.variants[v]
	if !ok {
		rt = derive(base, v)
		t.variants[v] = rt
	}
	return rt, noop
}

func derive(base *http.Transport, v variant) *http.Transport {
	tr := base.Clone()
	if v.expectContinue && tr.ExpectContinueTimeout == 0 {
		tr.ExpectContinueTimeout = ExpectContinueTimeout
	}
	if v.noKeepAlive {
		tr.DisableKeepAlives = true
	}
	if v.noCompression {
		tr.DisableCompression = true
	}
	return tr
}

// CloseIdleConnections closes idle connections of every transport in use.
func (t *NetTransport) CloseIdleConnections() {
	type idleCloser interface{ CloseIdleConnections() }

	if c, ok := t.roundTripper.(idleCloser); ok {
		c.CloseIdleConnections()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rt := range t.variants {
		if c, ok := rt.(idleCloser); ok {
			c.CloseIdleConnections()
		}
	}
}

type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
