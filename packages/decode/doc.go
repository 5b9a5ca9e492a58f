// Package decode turns response bodies into text, files or images.
//
// Text decoding optionally unwraps gzip (github.com/klauspost/compress) and
// converts from the named character encoding to UTF-8
// (golang.org/x/net/html/charset). The label Auto sniffs the encoding with
// github.com/saintfish/chardet.
package decode
