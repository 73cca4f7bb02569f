package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when the context ends before an answer arrives.
var ErrInputCancelled = errors.New("input canceled")

type lineResult struct {
	err  error
	line string
}

// NonBlockingReader reads answers line by line and gives up on a read when
// its context ends. A line that arrives after the caller gave up is handed to
// the next ReadLine instead of being lost.
type NonBlockingReader struct {
	src     *bufio.Reader
	pending chan lineResult
	mu      sync.Mutex
}

// NewNonBlockingReader wraps src.
func NewNonBlockingReader(src io.Reader) *NonBlockingReader {
	if src == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{src: bufio.NewReader(src)}
}

// ReadLine returns the next line without surrounding whitespace. A final line
// without a trailing newline is returned together with io.EOF.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	results := r.await()
	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-results:
		r.mu.Lock()
		r.pending = nil
		r.mu.Unlock()
		return finishLine(res)
	}
}

// await returns the channel of the read in flight, starting one if needed.
func (r *NonBlockingReader) await() chan lineResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		results := make(chan lineResult, 1)
		r.pending = results
		go func() {
			line, err := r.src.ReadString('\n')
			results <- lineResult{line: line, err: err}
		}()
	}
	return r.pending
}

func finishLine(res lineResult) (string, error) {
	line := strings.TrimSpace(res.line)
	switch {
	case res.err == nil:
		return line, nil
	case errors.Is(res.err, io.EOF) && res.line != "":
		return line, io.EOF
	default:
		return "", res.err
	}
}
