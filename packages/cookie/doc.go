// Package cookie provides the domain-scoped cookie store owned by a request
// session. Cookies set for one authority are never sent to another.
//
// The jar is backed by net/http/cookiejar with the public suffix list from
// golang.org/x/net, which makes it safe to share between sessions.
package cookie
