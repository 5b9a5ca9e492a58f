// Package capture pulls values out of responses: JSON paths in the body
// (gjson syntax), header values and the status code. It also validates JSON
// bodies against a JSON Schema file.
//
// Captured values feed later requests through the {{name}} syntax of the
// env resolver.
package capture
