package fetch

import (
	"errors"
	"fmt"
	"io"
)

// Stream yields a response body in chunks and tracks how much has arrived.
// It is not safe for concurrent use.
type Stream struct {
	body       io.ReadCloser
	total      uint64
	downloaded uint64
	buf        []byte
	done       bool
}

// Total returns the declared content length.
func (s *Stream) Total() uint64 { return s.total }

// Downloaded returns the bytes received so far, never more than Total.
func (s *Stream) Downloaded() uint64 { return min(s.downloaded, s.total) }

// Next returns the next chunk. The slice is only valid until the following
// call. io.EOF marks the end of the body.
func (s *Stream) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.downloaded += uint64(n)
			if errors.Is(err, io.EOF) {
				s.done = true
			}
			return s.buf[:n], nil
		}
		if errors.Is(err, io.EOF) {
			s.done = true
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
	}
}

// Close releases the connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
