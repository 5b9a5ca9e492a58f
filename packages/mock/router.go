package mock

import (
	"regexp"
	"strings"
)

// Route is one canned answer.
type Route struct {
	Name    string            `yaml:"name,omitempty" json:"name,omitempty"`
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	Path    string            `yaml:"path" json:"path"`
	Status  int               `yaml:"status,omitempty" json:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty" json:"body,omitempty"`

	pattern *regexp.Regexp
}

var paramPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// compile turns "/users/{{id}}" into ^/users/(?P<id>[^/]+)$, quoting every
// literal part.
func (rt *Route) compile() error {
	path := normalizePath(rt.Path)
	var b strings.Builder
	b.WriteByte('^')
	last := 0
	for _, loc := range paramPattern.FindAllStringSubmatchIndex(path, -1) {
		b.WriteString(regexp.QuoteMeta(path[last:loc[0]]))
		b.WriteString(`(?P<` + path[loc[2]:loc[3]] + `>[^/]+)`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(path[last:]))
	b.WriteByte('$')

	re, err := regexp.Compile(b.String())
	if err != nil {
		return err
	}
	rt.pattern = re
	return nil
}

// match reports whether the route answers method and path, and returns the
// captured path parameters.
func (rt *Route) match(method, path string) (map[string]string, bool) {
	if rt.Method != "" && rt.Method != "*" && !strings.EqualFold(rt.Method, method) {
		return nil, false
	}
	m := rt.pattern.FindStringSubmatch(normalizePath(path))
	if m == nil {
		return nil, false
	}
	params := make(map[string]string)
	for i, name := range rt.pattern.SubexpNames() {
		if i > 0 && name != "" {
			params[name] = m[i]
		}
	}
	return params, true
}

// Router holds routes in match order.
type Router struct {
	routes []*Route
}

// Add compiles rt and appends it. Earlier routes win.
func (r *Router) Add(rt *Route) error {
	if err := rt.compile(); err != nil {
		return err
	}
	r.routes = append(r.routes, rt)
	return nil
}

// Match returns the first route answering method and path.
func (r *Router) Match(method, path string) (*Route, map[string]string) {
	for _, rt := range r.routes {
		if params, ok := rt.match(method, path); ok {
			return rt, params
		}
	}
	return nil, nil
}

// Routes returns the routes in match order.
func (r *Router) Routes() []*Route {
	return r.routes
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
