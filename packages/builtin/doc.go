// Package builtin holds the functions available inside {{name(args)}}
// placeholders on the command line and in mock route bodies.
//
//	{{uuid()}}              random UUID v4
//	{{now()}}               current UTC time, RFC 3339
//	{{date(2006-01-02)}}    current UTC time in a Go layout
//	{{timestamp()}}         Unix seconds; timestampMs() for milliseconds
//	{{random(1, 6)}}        integer in [min, max]
//	{{randomString(12)}}    alphanumeric string
//	{{base64(text)}}        base64Decode, md5, sha256, urlEncode, urlDecode
//	{{env(HOME)}}           environment variable
package builtin
