package header

import "net/http"

// reserved headers are owned by the transport and never copied from a bag.
var reserved = map[string]bool{
	"Host":              true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Connection":        true,
	"Proxy-Connection":  true,
	"Keep-Alive":        true,
	"Expect":            true,
	"Te":                true,
	"Trailer":           true,
	"Upgrade":           true,
}

// optionHeaders are resolved through Options rather than the bags.
var optionHeaders = map[string]bool{
	"Accept":       true,
	"Connection":   true,
	"Content-Type": true,
	"Referer":      true,
	"User-Agent":   true,
}

// IsReserved reports whether name is managed by the transport.
func IsReserved(name string) bool {
	return reserved[http.CanonicalHeaderKey(name)]
}

// IsOptionHeader reports whether name is resolved through Options.
func IsOptionHeader(name string) bool {
	return optionHeaders[http.CanonicalHeaderKey(name)]
}

// Merge copies the bags onto dst in order; a later bag replaces the values
// an earlier one set for the same name. Reserved names are skipped and
// returned.
func Merge(dst http.Header, bags ...http.Header) []string {
	var skipped []string
	for _, bag := range bags {
		for name, values := range bag {
			if IsReserved(name) {
				skipped = append(skipped, name)
				continue
			}
			dst[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return skipped
}
