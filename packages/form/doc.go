// Package form holds the key/value model shared by query strings, url-encoded
// bodies and multipart uploads.
//
// The query codec is deliberately raw:
//   - Encode joins key=value pairs with '&' and performs no escaping
//   - Decode splits on '&' and the first '=' and performs no unescaping
//   - key-less tokens ("=v" or a bare "v") are kept with an empty key
//
// Values that contain '&' or '=' therefore do not survive a round trip.
package form
