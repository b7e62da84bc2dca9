package pkg

import (
	"io"
	"sync"

	"go.uber.org/multierr"
)

// TeeWriter copies every write to all of its writers. A failing writer does not
// stop the others and is tried again on the next write.
type TeeWriter struct {
	mu       sync.Mutex
	writers  []io.Writer
	failures int
}

func NewTeeWriter(writers ...io.Writer) *TeeWriter {
	return &TeeWriter{
		writers: writers,
	}
}

// Write reports len(p) when at least one writer took the whole of p, and the
// combined errors of the writers that did not.
func (tw *TeeWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var err error
	delivered := false
	for _, w := range tw.writers {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			tw.failures++
			continue
		}
		delivered = true
	}

	if !delivered {
		return 0, err
	}
	return len(p), err
}

// Failures returns how many single-writer writes have failed so far.
func (tw *TeeWriter) Failures() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.failures
}
