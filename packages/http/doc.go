// Package http provides the fluent request builder and executor.
//
// A Client holds one conversation with a server:
//   - Session defaults (Default* calls) and a cookie jar that outlive requests
//   - A per-request state reset by NewRequest, filled by chained builder calls
//   - Execution through a registered interceptor or the network transport
//   - Result accessors for text, bytes, files and images
//
// Per-request options win over session defaults field by field; see
// header.Resolve for the exact rule.
//
//	c, err := http.With("https://example.com/search?q=go")
//	if err != nil {
//		return err
//	}
//	text, err := c.Data("page", "2").UserAgent("bot/1.0").GetForString()
package http
