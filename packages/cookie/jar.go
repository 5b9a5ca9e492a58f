package cookie

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// attributes are Set-Cookie attribute names that must not be stored as
// cookies when a raw header string is parsed.
var attributes = map[string]bool{
	"expires":  true,
	"path":     true,
	"domain":   true,
	"max-age":  true,
	"httponly": true,
	"secure":   true,
	"samesite": true,
}

// Jar stores cookies per request authority.
type Jar struct {
	jar *cookiejar.Jar
}

// New returns an empty jar.
func New() *Jar {
	// cookiejar.New only fails on a nil-safe options value it never rejects.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Jar{jar: jar}
}

// HTTPJar exposes the underlying jar for use as http.Client.Jar.
func (j *Jar) HTTPJar() http.CookieJar {
	return j.jar
}

// TrySet stores one cookie for the authority of domainURL. It is best
// effort: an unusable URL makes it a no-op and it returns false.
func (j *Jar) TrySet(domainURL, name, value string) bool {
	u, ok := parse(domainURL)
	if !ok || name == "" {
		return false
	}
	j.jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	return true
}

// SetFromHeaderString parses "a=1; b=2" style text and stores each cookie
// for domainURL. Attribute tokens such as Path or Expires are dropped.
// Only ';' separates tokens, so values containing ',' survive intact.
// It returns the number of cookies stored.
func (j *Jar) SetFromHeaderString(domainURL, header string) int {
	u, ok := parse(domainURL)
	if !ok {
		return 0
	}

	var cookies []*http.Cookie
	for _, token := range strings.Split(header, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(token), "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || attributes[strings.ToLower(name)] {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: strings.TrimSpace(value), Path: "/"})
	}

	if len(cookies) > 0 {
		j.jar.SetCookies(u, cookies)
	}
	return len(cookies)
}

// Absorb stores every Set-Cookie of resp for u, the URL the response was
// finally served from.
func (j *Jar) Absorb(u *url.URL, resp *http.Response) int {
	if u == nil || resp == nil {
		return 0
	}
	cookies := resp.Cookies()
	if len(cookies) > 0 {
		j.jar.SetCookies(u, cookies)
	}
	return len(cookies)
}

// Cookies returns the cookies the jar would send to baseURL.
func (j *Jar) Cookies(baseURL string) []*http.Cookie {
	u, ok := parse(baseURL)
	if !ok {
		return nil
	}
	return j.jar.Cookies(u)
}

// GetAll returns name to value for baseURL; on duplicate names the last
// cookie wins.
func (j *Jar) GetAll(baseURL string) map[string]string {
	result := make(map[string]string)
	for _, c := range j.Cookies(baseURL) {
		result[c.Name] = c.Value
	}
	return result
}

// HeaderString renders the cookies for baseURL as a Cookie header value.
func (j *Jar) HeaderString(baseURL string) string {
	cookies := j.Cookies(baseURL)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func parse(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	return u, true
}
