// Package stream parses server-sent event responses produced by the
// answer endpoint. The scanner is pull-based: callers advance it one
// frame at a time, and only the trailing partial line is buffered
// between reads, so arbitrarily long streams run in constant memory.
package stream

import (
	"bufio"
	"bytes"
	"io"
)

const doneSentinel = "[DONE]"

var dataPrefix = []byte("data:")

// FrameScanner iterates over the data frames of an event stream.
type FrameScanner struct {
	scanner *bufio.Scanner
	frame   []byte
	done    bool
}

// NewFrameScanner wraps r in a frame scanner. Frames larger than one
// megabyte terminate the scan with bufio.ErrTooLong.
func NewFrameScanner(r io.Reader) *FrameScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &FrameScanner{scanner: sc}
}

// Next advances to the next data frame. It returns false when the
// stream ends, errors, or the [DONE] sentinel arrives.
func (s *FrameScanner) Next() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || !bytes.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if string(payload) == doneSentinel {
			s.done = true
			return false
		}
		s.frame = append(s.frame[:0], payload...)
		return true
	}
	return false
}

// Frame returns the payload of the current frame. The slice is only
// valid until the next call to Next.
func (s *FrameScanner) Frame() []byte {
	return s.frame
}

// Done reports whether the [DONE] sentinel terminated the stream.
func (s *FrameScanner) Done() bool {
	return s.done
}

// Err returns the first non-EOF error encountered while scanning.
func (s *FrameScanner) Err() error {
	return s.scanner.Err()
}
