package session

import (
	"bytes"
	"fmt"

	"github.com/danmuck/plotwire/internal/dedent"
)

// CommandBuffer accumulates command text for the next batch.
type CommandBuffer struct {
	buf   bytes.Buffer
	lines int
}

// Push appends cmds followed by a newline.
func (b *CommandBuffer) Push(cmds string) {
	b.buf.WriteString(cmds)
	b.buf.WriteByte('\n')
	b.lines++
}

// Pushf formats a command line.
func (b *CommandBuffer) Pushf(format string, args ...any) {
	b.Push(fmt.Sprintf(format, args...))
}

// Raw appends an indented block after dedenting it. No newline is added.
func (b *CommandBuffer) Raw(block string) {
	text := dedent.String(block)
	if text == "" {
		return
	}
	b.buf.WriteString(text)
	b.lines++
}

// Len is the buffered size in bytes.
func (b *CommandBuffer) Len() int { return b.buf.Len() }

// Entries counts Push and Raw calls since the last Reset.
func (b *CommandBuffer) Entries() int { return b.lines }

// Bytes returns the buffered text. The slice is valid until the next write
// or Reset.
func (b *CommandBuffer) Bytes() []byte { return b.buf.Bytes() }

func (b *CommandBuffer) String() string { return b.buf.String() }

// Reset empties the buffer for the next batch. The backing array is dropped,
// not reused, since a transport may still hold the last command frame.
func (b *CommandBuffer) Reset() {
	b.buf = bytes.Buffer{}
	b.lines = 0
}
