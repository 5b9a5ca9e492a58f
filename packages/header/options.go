package header

import (
	"crypto/tls"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

// Credentials are sent as HTTP basic authentication.
type Credentials struct {
	Username string
	Password string
}

// Options are the per-field settings resolved for one outgoing request.
type Options struct {
	Accept      Opt[string]
	ContentType Opt[string]
	Referer     Opt[string]
	UserAgent   Opt[string]

	AutoDecompress     Opt[bool]
	ClientCertificates Opt[[]tls.Certificate]
	Connection         Opt[string]
	Credentials        Opt[Credentials]
	KeepAlive          Opt[bool]
	FollowRedirects    Opt[bool]
	Timeout            Opt[time.Duration]
	Expect100Continue  Opt[bool]
}

// Resolve merges explicit per-request options over session defaults. A field
// set on explicit wins; string fields must also be non-empty to win.
func Resolve(explicit, defaults Options) Options {
	return Options{
		Accept:      orText(explicit.Accept, defaults.Accept),
		ContentType: orText(explicit.ContentType, defaults.ContentType),
		Referer:     orText(explicit.Referer, defaults.Referer),
		UserAgent:   orText(explicit.UserAgent, defaults.UserAgent),

		AutoDecompress:     explicit.AutoDecompress.Or(defaults.AutoDecompress),
		ClientCertificates: explicit.ClientCertificates.Or(defaults.ClientCertificates),
		Connection:         orText(explicit.Connection, defaults.Connection),
		Credentials:        explicit.Credentials.Or(defaults.Credentials),
		KeepAlive:          explicit.KeepAlive.Or(defaults.KeepAlive),
		FollowRedirects:    explicit.FollowRedirects.Or(defaults.FollowRedirects),
		Timeout:            explicit.Timeout.Or(defaults.Timeout),
		Expect100Continue:  explicit.Expect100Continue.Or(defaults.Expect100Continue),
	}
}

// Apply writes the header-level fields of o onto req. Transport-level fields
// (timeout, redirects, certificates) are left to the transport.
func Apply(req *http.Request, o Options) {
	if v, ok := o.Accept.Get(); ok && v != "" {
		req.Header.Set("Accept", v)
	}
	if v, ok := o.ContentType.Get(); ok && v != "" {
		req.Header.Set("Content-Type", v)
	}
	if v, ok := o.Referer.Get(); ok && v != "" {
		req.Header.Set("Referer", v)
	}
	if v, ok := o.UserAgent.Get(); ok && v != "" {
		req.Header.Set("User-Agent", v)
	}

	if v, ok := o.Connection.Get(); ok && v != "" {
		req.Header.Set("Connection", v)
		if strings.EqualFold(v, "close") {
			req.Close = true
		}
	}
	if keepAlive, ok := o.KeepAlive.Get(); ok && !keepAlive {
		req.Close = true
	}

	if c, ok := o.Credentials.Get(); ok {
		token := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		req.Header.Set("Authorization", "Basic "+token)
	}

	if expect, ok := o.Expect100Continue.Get(); ok && expect {
		req.Header.Set("Expect", "100-continue")
	}
}

// Set routes one of the option-backed header names into o and reports
// whether the name was one of them.
func (o *Options) Set(name, value string) bool {
	switch http.CanonicalHeaderKey(name) {
	case "Accept":
		o.Accept = Some(value)
	case "Content-Type":
		o.ContentType = Some(value)
	case "Referer":
		o.Referer = Some(value)
	case "User-Agent":
		o.UserAgent = Some(value)
	case "Connection":
		o.Connection = Some(value)
	default:
		return false
	}
	return true
}
