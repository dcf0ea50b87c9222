// Package ui defines where streamed workflow output goes.
package ui

import "io"

// Sink receives streamed completion chunks and status updates. Chunks
// arrive in production order.
type Sink interface {
	Chunk(text string)
	Status(status string)
}

// SilentSink discards everything.
type SilentSink struct{}

func (SilentSink) Chunk(string)  {}
func (SilentSink) Status(string) {}

// WriterSink forwards chunks to a writer as they arrive, which is what the
// plain CLI commands use.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Chunk(text string) {
	io.WriteString(s.W, text)
}

func (s WriterSink) Status(string) {}
