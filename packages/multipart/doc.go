// Package multipart frames an ordered list of form fields and file
// attachments as a multipart/form-data body.
//
// File contents are streamed from disk into the writer; nothing is
// buffered whole. The boundary is derived from the current time so that
// every Encoder gets its own.
package multipart
