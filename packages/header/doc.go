// Package header resolves the headers and transport options of an outgoing
// request from three sources: values set on the request itself, session
// defaults, and the named-header bags.
//
// Every resolvable field is an Opt, so "the caller set this on this request"
// is tracked explicitly instead of being inferred by comparing values.
package header
