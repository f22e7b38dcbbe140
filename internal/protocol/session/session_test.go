package session

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/batch"
	"github.com/danmuck/plotwire/internal/protocol/container"
	"github.com/danmuck/plotwire/internal/protocol/dtype"
	"github.com/danmuck/plotwire/internal/protocol/frame"
	"github.com/danmuck/plotwire/internal/testutil/testlog"
	"github.com/danmuck/plotwire/internal/transport"
)

type fakeLauncher struct {
	addr string
	err  error
}

func (f *fakeLauncher) Launch(_ context.Context, addr string) error {
	f.addr = addr
	return f.err
}

type unsupported struct{}

func (unsupported) Shape() []int                 { return []int{1} }
func (unsupported) Len() int                     { return 1 }
func (unsupported) Descriptor() dtype.Descriptor { return dtype.Unsupported }
func (unsupported) Bytes() []byte                { return []byte{0} }

// lying reports more elements than its view holds.
type lying struct{ container.Vector[float64] }

func (l lying) Len() int     { return l.Vector.Len() + 1 }
func (l lying) Shape() []int { return []int{l.Len()} }

// miscounted reports a Len its shape does not describe.
type miscounted struct{ container.Vector[float64] }

func (m miscounted) Len() int { return m.Vector.Len() + 1 }

// huge claims a shape whose element count overflows an int.
type huge struct{ container.Vector[float64] }

func (huge) Shape() []int { return []int{math.MaxInt / 2, 3} }

func TestSendFramingOrder(t *testing.T) {
	testlog.Start(t)
	rec := transport.NewRecorder()
	s := New(rec)

	x := []float64{1, 2, 3}
	y := container.MustMatrix(2, 2, []int32{1, 2, 3, 4})
	s.Push("plt.plot(x, y[0])")
	if err := s.Send(Named("x", container.NewVector(x)), Named("y", y)); err != nil {
		t.Fatalf("send: %v", err)
	}

	frames := rec.Frames()
	wantKinds := []protocol.FrameKind{
		protocol.KindHeader, protocol.KindPayload,
		protocol.KindHeader, protocol.KindPayload,
		protocol.KindCommands, protocol.KindFinalize,
	}
	if len(frames) != len(wantKinds) {
		t.Fatalf("frame count got=%d want=%d", len(frames), len(wantKinds))
	}
	for i, f := range frames {
		if f.Kind != wantKinds[i] {
			t.Fatalf("frame %d kind got=%v want=%v", i, f.Kind, wantKinds[i])
		}
	}
	if string(frames[0].Body) != "data|x|d|3|(3,)" {
		t.Fatalf("header1 got=%q", frames[0].Body)
	}
	if !bytes.Equal(frames[1].Body, container.NewVector(x).Bytes()) {
		t.Fatalf("payload1 mismatch")
	}
	if string(frames[2].Body) != "data|y|i|4|(2,2)" {
		t.Fatalf("header2 got=%q", frames[2].Body)
	}
	if len(frames[3].Body) != 16 {
		t.Fatalf("payload2 len got=%d", len(frames[3].Body))
	}
	if string(frames[4].Body) != "plt.plot(x, y[0])\n" {
		t.Fatalf("commands got=%q", frames[4].Body)
	}
	if string(frames[5].Body) != protocol.SentinelFinalize {
		t.Fatalf("finalize got=%q", frames[5].Body)
	}
	if s.Pending() != "" {
		t.Fatalf("command buffer must be empty after send, got %q", s.Pending())
	}
}

func TestSendReassemblesAsBatch(t *testing.T) {
	testlog.Start(t)
	rec := transport.NewRecorder()
	s := New(rec)
	s.Raw(`
		import numpy as np
		for row in m:
		    print(row)
	`)
	s.Pushf("plt.title(%q)", "temps")
	m := container.MustMatrix(2, 3, []float32{0.5, 1, 1.5, 2, 2.5, 3})
	if err := s.Send(Named("m", m)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Send(); err != nil {
		t.Fatalf("empty send: %v", err)
	}

	asm := batch.NewAssembler(rec)
	first, err := asm.Next()
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if len(first.Items) != 1 || first.Items[0].Header.Name != "m" {
		t.Fatalf("unexpected items: %+v", first.Items)
	}
	vals, err := first.Items[0].Values()
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	if vals.Data[5] != 3 || len(vals.Shape) != 2 || vals.Shape[1] != 3 {
		t.Fatalf("unexpected values: %+v", vals)
	}
	wantCmds := "import numpy as np\nfor row in m:\n    print(row)\nplt.title(\"temps\")\n"
	if first.Commands != wantCmds {
		t.Fatalf("commands got=%q want=%q", first.Commands, wantCmds)
	}

	second, err := asm.Next()
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if len(second.Items) != 0 || second.Commands != "" {
		t.Fatalf("second batch must be empty: %+v", second)
	}
}

func TestSendRejectsBeforePublishing(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		item Item
		want error
	}{
		{"unsupported type", Named("u", unsupported{}), protocol.ErrUnsupportedType},
		{"nil data", Named("n", nil), protocol.ErrUnsupportedType},
		{"bad name", Named("a|b", container.NewVector([]int8{1})), protocol.ErrInvalidName},
		{"view size mismatch", Named("l", lying{container.NewVector([]float64{1})}), protocol.ErrPayloadSize},
		{"count disagrees with shape", Named("m", miscounted{container.NewVector([]float64{1})}), protocol.ErrShapeMismatch},
		{"shape overflows", Named("h", huge{container.NewVector([]float64{})}), protocol.ErrShapeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := transport.NewRecorder()
			s := New(rec)
			s.Push("keep me")
			err := s.Send(Named("ok", container.NewVector([]int8{1})), tc.item)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if n := len(rec.Frames()); n != 0 {
				t.Fatalf("rejected batch published %d frames", n)
			}
			if s.Pending() != "keep me\n" {
				t.Fatalf("commands must survive a rejected batch, got %q", s.Pending())
			}
		})
	}
}

func TestSendRefusesBareExitCommandFrame(t *testing.T) {
	testlog.Start(t)
	rec := transport.NewRecorder()
	s := New(rec)
	s.Raw("exit")
	if err := s.Send(); !errors.Is(err, protocol.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if n := len(rec.Frames()); n != 0 {
		t.Fatalf("refused batch published %d frames", n)
	}

	// After a data frame the same text is unambiguous.
	if err := s.Send(Named("x", container.NewVector([]int8{1}))); err != nil {
		t.Fatalf("send with data: %v", err)
	}
	asm := batch.NewAssembler(rec)
	b, err := asm.Next()
	if err != nil {
		t.Fatalf("reassemble: %v", err)
	}
	if b.Commands != "exit" || len(b.Items) != 1 {
		t.Fatalf("unexpected batch: %+v", b)
	}
}

func TestSendTransportFailureKeepsCommands(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("boom")
	rec := &transport.Recorder{FailAt: 2, Err: boom}
	s := New(rec)
	s.Push("plt.show()")
	err := s.Send(Named("x", container.NewVector([]uint16{1, 2})))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(rec.Frames()) != 1 {
		t.Fatalf("send must stop at the failing frame, got %d frames", len(rec.Frames()))
	}
	if s.Pending() != "plt.show()\n" {
		t.Fatalf("commands lost after transport failure: %q", s.Pending())
	}
}

func TestPayloadLengthMatchesHeaderForEveryKind(t *testing.T) {
	testlog.Start(t)
	for _, d := range dtype.All() {
		for _, shape := range [][]int{{4}, {2, 2}} {
			c, err := container.FromFloat64s(d.Code, shape, []float64{1, 2, 3, 4})
			if err != nil {
				t.Fatalf("%c: %v", d.Code, err)
			}
			rec := transport.NewRecorder()
			if err := New(rec).Send(Named("v", c)); err != nil {
				t.Fatalf("%c send: %v", d.Code, err)
			}
			asm := batch.NewAssembler(rec)
			b, err := asm.Next()
			if err != nil {
				t.Fatalf("%c reassemble: %v", d.Code, err)
			}
			if got := len(b.Items[0].Payload); got != d.Size*4 {
				t.Fatalf("%c payload len got=%d want=%d", d.Code, got, d.Size*4)
			}
		}
	}
}

func TestCloseSendsExitOnce(t *testing.T) {
	testlog.Start(t)
	rec := transport.NewRecorder()
	s := New(rec)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	frames := rec.Frames()
	if len(frames) != 1 || frames[0].Kind != protocol.KindExit || string(frames[0].Body) != "exit" {
		t.Fatalf("unexpected frames after close: %+v", frames)
	}
	if !rec.Closed() {
		t.Fatalf("publisher not closed")
	}
	if err := s.Send(); !errors.Is(err, protocol.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := batch.NewAssembler(rec).Next(); !errors.Is(err, batch.ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
}

func TestOpenBindsLaunchesAndCaptures(t *testing.T) {
	testlog.Start(t)
	if testing.Short() {
		t.Skip("opens local sockets")
	}
	capture := filepath.Join(t.TempDir(), "session.pltw")
	cfg := DefaultConfig()
	cfg.Address = "tcp://127.0.0.1:0"
	cfg.BindDelay = time.Millisecond
	cfg.ReadyDelay = time.Millisecond
	cfg.CapturePath = capture
	cfg.Linger = 10 * time.Millisecond
	l := &fakeLauncher{}

	s, err := Open(context.Background(), cfg, WithLauncher(l))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if l.addr == "" || l.addr != s.Addr() {
		t.Fatalf("launcher got addr=%q session addr=%q", l.addr, s.Addr())
	}

	// A second binder on the same endpoint must fail.
	if _, err := Open(context.Background(), Config{Address: s.Addr()}, WithLauncher(&fakeLauncher{})); err == nil {
		t.Fatalf("expected bind failure on %s", s.Addr())
	}

	s.Push("plt.show()")
	if err := s.Send(Named("x", container.NewVector([]float64{1, 2}))); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(capture)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer f.Close()
	asm := batch.NewAssembler(transport.NewCaptureReader(f, frame.DefaultLimits()))
	b, err := asm.Next()
	if err != nil {
		t.Fatalf("captured batch: %v", err)
	}
	if len(b.Items) != 1 || b.Commands != "plt.show()\n" {
		t.Fatalf("unexpected captured batch: %+v", b)
	}
	if _, err := asm.Next(); !errors.Is(err, batch.ErrExit) {
		t.Fatalf("expected captured exit, got %v", err)
	}
}

func TestOpenLaunchFailureReleasesChannel(t *testing.T) {
	testlog.Start(t)
	if testing.Short() {
		t.Skip("opens local sockets")
	}
	boom := errors.New("no consumer")
	cfg := Config{Address: "tcp://127.0.0.1:0"}
	if _, err := Open(context.Background(), cfg, WithLauncher(&fakeLauncher{err: boom})); !errors.Is(err, boom) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestOpenHonoursCancellation(t *testing.T) {
	testlog.Start(t)
	if testing.Short() {
		t.Skip("opens local sockets")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{Address: "tcp://127.0.0.1:0", BindDelay: time.Hour}
	if _, err := Open(ctx, cfg, WithLauncher(&fakeLauncher{})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCommandBuffer(t *testing.T) {
	testlog.Start(t)
	var b CommandBuffer
	b.Push("a")
	b.Raw("\n    b\n    c\n")
	b.Raw("   \n  ")
	b.Pushf("d=%d", 4)
	if got := b.String(); got != "a\nb\nc\nd=4\n" {
		t.Fatalf("buffer got=%q", got)
	}
	if b.Entries() != 3 {
		t.Fatalf("entries got=%d", b.Entries())
	}
	held := b.Bytes()
	b.Reset()
	b.Push("zzzz")
	if string(held) != "a\nb\nc\nd=4\n" {
		t.Fatalf("reset must not reuse memory still held by a frame: %q", held)
	}
	if b.Len() != 5 {
		t.Fatalf("len got=%d", b.Len())
	}
}
