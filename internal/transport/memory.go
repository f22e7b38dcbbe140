package transport

import (
	"io"
	"sync"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/frame"
)

// Recorder is an in-memory Publisher that copies every frame it receives.
// It also serves the recorded frames back as a Source.
type Recorder struct {
	mu     sync.Mutex
	frames []frame.Frame
	next   int
	closed bool
	// FailAt makes the n-th Publish call (1-based) return Err. Zero disables.
	FailAt int
	Err    error
	calls  int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(kind protocol.FrameKind, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.calls++
	if r.FailAt > 0 && r.calls == r.FailAt {
		return r.Err
	}
	r.frames = append(r.frames, frame.Frame{Kind: kind, Body: append([]byte(nil), body...)})
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Frames returns a snapshot of everything published so far.
func (r *Recorder) Frames() []frame.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]frame.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Reset drops recorded frames and rewinds the read cursor.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
	r.next = 0
}

// Receive replays recorded frames in order, then io.EOF.
func (r *Recorder) Receive() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.frames) {
		return nil, io.EOF
	}
	f := r.frames[r.next]
	r.next++
	return f.Body, nil
}
