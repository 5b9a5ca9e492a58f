package form

import "strings"

// Encode joins pairs as key=value with '&'. Nothing is escaped.
func Encode(pairs []KeyValue) string {
	if len(pairs) == 0 {
		return ""
	}

	var b strings.Builder
	for i, kv := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

// Decode parses a raw query string into ordered pairs. A token without '='
// is kept as a value with an empty key. Duplicate keys are all kept.
func Decode(query string) []KeyValue {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return nil
	}

	tokens := strings.Split(query, "&")
	pairs := make([]KeyValue, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		key, value, found := strings.Cut(token, "=")
		if !found {
			key, value = "", token
		}
		pairs = append(pairs, Field(key, value))
	}
	return pairs
}

// SplitURL drops any fragment and splits the URL at the first '?'.
func SplitURL(rawURL string) (base, query string) {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	base, query, _ = strings.Cut(rawURL, "?")
	return base, query
}

// Lines renders pairs as key=value strings, file pairs as key=@path.
func Lines(pairs []KeyValue) []string {
	out := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if kv.IsFile() {
			out = append(out, kv.Key+"=@"+kv.FilePath)
			continue
		}
		out = append(out, kv.Key+"="+kv.Value)
	}
	return out
}
