// Package output renders finished exchanges for the command line, either as
// colored human text or as a JSON document.
package output
