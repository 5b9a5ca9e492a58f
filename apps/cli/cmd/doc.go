// Package cmd implements the easyhttp CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, delete: Send one request built from flags
//   - bench: Load test endpoints with independent sessions
//   - history: List, show, replay and query stored exchanges
//   - mock: Serve canned responses from a routes file
//   - record: Run a recording proxy in front of a server
//   - init: Write a configuration file with session defaults
//   - version: Show easyhttp version information
//
// The request commands support form fields, multipart uploads, cookies,
// placeholders, JSON captures and schema checks, and a watch mode that
// resends when local files change.
package cmd
