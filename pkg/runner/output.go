package runner

import (
	"bytes"
	"io"
	"sync"

	"github.com/acarl005/stripansi"
)

// maxPending bounds the bytes held back while waiting for a line end
const maxPending = 64 * 1024

// ANSIWriter removes terminal escape sequences before forwarding output.
// Output is forwarded per line so that a sequence split across two writes
// is still recognized.
type ANSIWriter struct {
	mu      sync.Mutex
	w       io.Writer
	pending []byte
}

// StripANSI wraps w so that escape sequences written to it are dropped.
// Call Flush once the writer is done to forward an unterminated last line.
func StripANSI(w io.Writer) *ANSIWriter {
	return &ANSIWriter{w: w}
}

func (s *ANSIWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, p...)
	end := bytes.LastIndexAny(s.pending, "\n\r")
	if end < 0 {
		if len(s.pending) < maxPending {
			return len(p), nil
		}
		end = len(s.pending) - 1
	}
	if err := s.forward(s.pending[:end+1]); err != nil {
		return 0, err
	}
	s.pending = append(s.pending[:0], s.pending[end+1:]...)
	return len(p), nil
}

// Flush forwards whatever was written after the last line end
func (s *ANSIWriter) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	err := s.forward(s.pending)
	s.pending = s.pending[:0]
	return err
}

func (s *ANSIWriter) forward(chunk []byte) error {
	_, err := io.WriteString(s.w, stripansi.Strip(string(chunk)))
	return err
}
