package batch

import (
	"errors"
	"io"
	"testing"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/testutil/testlog"
)

type sliceSource struct {
	frames [][]byte
}

func (s *sliceSource) Receive() ([]byte, error) {
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func frames(parts ...string) *sliceSource {
	src := &sliceSource{}
	for _, p := range parts {
		src.frames = append(src.frames, []byte(p))
	}
	return src
}

func TestNextReadsBatchesInOrder(t *testing.T) {
	testlog.Start(t)
	src := frames(
		"data|a|b|2|(2,)", "\x01\xff",
		"data|c|c|3|(3,)", "abc",
		"plot(a)\n", "finalize",
		"", "finalize",
		"exit",
	)
	asm := NewAssembler(src)

	b, err := asm.Next()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if len(b.Items) != 2 || b.Commands != "plot(a)\n" {
		t.Fatalf("unexpected first batch: %+v", b)
	}
	vals, err := b.Items[0].Values()
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	if vals.Data[0] != 1 || vals.Data[1] != -1 {
		t.Fatalf("int8 values got=%v", vals.Data)
	}
	chars, err := b.Items[1].Values()
	if err != nil {
		t.Fatalf("char values: %v", err)
	}
	if chars.Data[0] != 'a' {
		t.Fatalf("char values got=%v", chars.Data)
	}

	empty, err := asm.Next()
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(empty.Items) != 0 || empty.Commands != "" || empty.ID == b.ID {
		t.Fatalf("unexpected second batch: %+v", empty)
	}

	if _, err := asm.Next(); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	if _, err := asm.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestNextRejectsMalformedBatches(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		src  *sliceSource
		want error
	}{
		{"short payload", frames("data|a|d|2|(2,)", "1234", "", "finalize"), protocol.ErrPayloadSize},
		{"bad header", frames("data|a|z|2|(2,)", "12", "", "finalize"), protocol.ErrUnsupportedType},
		{"missing finalize", frames("cmds", "cmds again"), protocol.ErrUnexpectedFrame},
		{"truncated after header", frames("data|a|b|1|(1,)"), io.EOF},
		{"truncated before finalize", frames("cmds"), io.EOF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAssembler(tc.src).Next()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestExitInsideBatchIsCommandText(t *testing.T) {
	testlog.Start(t)
	src := frames(
		"data|a|b|1|(1,)", "\x07",
		"exit", "finalize",
		"exit",
	)
	asm := NewAssembler(src)
	b, err := asm.Next()
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(b.Items) != 1 || b.Commands != "exit" {
		t.Fatalf("exit after data must be read as commands, got %+v", b)
	}
	if _, err := asm.Next(); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit between batches, got %v", err)
	}
}
