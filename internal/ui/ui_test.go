package ui

import (
	"strings"
	"testing"
)

func TestWriterSink(t *testing.T) {
	var sb strings.Builder
	s := WriterSink{W: &sb}

	s.Chunk("hello ")
	s.Chunk("world")
	s.Status("ignored")

	if sb.String() != "hello world" {
		t.Errorf("got %q", sb.String())
	}
}

func TestSilentSink(t *testing.T) {
	var s Sink = SilentSink{}
	s.Chunk("dropped")
	s.Status("dropped")
}
