package transport

import (
	"bufio"
	"io"
	"sync"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/frame"
)

// CaptureWriter records frames to a length-prefixed stream for offline replay.
// Bodies are copied into the buffered writer before Publish returns.
type CaptureWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	c      io.Closer
	limits frame.Limits
	closed bool
}

// NewCaptureWriter wraps w. If w is an io.Closer it is closed with the writer.
func NewCaptureWriter(w io.Writer, limits frame.Limits) *CaptureWriter {
	cw := &CaptureWriter{w: bufio.NewWriter(w), limits: limits}
	if c, ok := w.(io.Closer); ok {
		cw.c = c
	}
	return cw
}

func (c *CaptureWriter) Publish(kind protocol.FrameKind, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := frame.WriteFrame(c.w, frame.Frame{Kind: kind, Body: body}, c.limits); err != nil {
		return err
	}
	// Batch boundaries are durable points in the capture.
	if kind == protocol.KindFinalize || kind == protocol.KindExit {
		return c.w.Flush()
	}
	return nil
}

func (c *CaptureWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.w.Flush()
	if c.c != nil {
		if cerr := c.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// CaptureReader replays a capture stream as a Source.
type CaptureReader struct {
	r      *bufio.Reader
	c      io.Closer
	limits frame.Limits
}

func NewCaptureReader(r io.Reader, limits frame.Limits) *CaptureReader {
	cr := &CaptureReader{r: bufio.NewReader(r), limits: limits}
	if c, ok := r.(io.Closer); ok {
		cr.c = c
	}
	return cr
}

// Next returns the next captured frame including its kind.
func (c *CaptureReader) Next() (frame.Frame, error) {
	return frame.ReadFrame(c.r, c.limits)
}

func (c *CaptureReader) Receive() ([]byte, error) {
	f, err := c.Next()
	if err != nil {
		return nil, err
	}
	return f.Body, nil
}

func (c *CaptureReader) Close() error {
	if c.c == nil {
		return nil
	}
	return c.c.Close()
}
