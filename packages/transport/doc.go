// Package transport is the dispatch layer between the request builder and
// the network.
//
// A Prepared request carries both the net/http request and the resolved
// options that only the transport can honour (timeout, redirect policy,
// keep-alive, client certificates). Anything implementing Dispatcher can
// stand in for the network; NetTransport is the real one.
package transport
