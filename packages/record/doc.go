// Package record wraps a transport.Dispatcher and keeps a copy of every
// exchange that passes through it. Recordings export as JSON, or as a mock
// route table that replays the same answers.
package record
