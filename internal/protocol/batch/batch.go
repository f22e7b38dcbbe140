// Package batch reassembles published frames into batches the way the plot
// consumer reads them: data pairs, one command frame, then "finalize".
package batch

import (
	"errors"
	"fmt"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/container"
	"github.com/danmuck/plotwire/internal/protocol/header"
	"github.com/google/uuid"
)

// ErrExit is returned by Next once the publisher has sent the exit sentinel.
var ErrExit = errors.New("batch: exit received")

// Item is one named payload of a batch.
type Item struct {
	Header  header.Header
	Payload []byte
}

// Values widens the payload for inspection.
func (i Item) Values() (container.Values, error) {
	return container.Decode(i.Header.Descriptor, i.Header.Shape, i.Payload)
}

// Batch is one complete visualization update.
type Batch struct {
	ID       uuid.UUID
	Items    []Item
	Commands string
}

// Source yields frame bodies in arrival order.
type Source interface {
	Receive() ([]byte, error)
}

// Assembler reads batches from a Source. It is not safe for concurrent use.
type Assembler struct {
	src Source
}

func NewAssembler(src Source) *Assembler {
	return &Assembler{src: src}
}

// Next blocks until a full batch has arrived. Source errors (including io.EOF)
// are returned unwrapped when they fall between batches.
func (a *Assembler) Next() (Batch, error) {
	b := Batch{ID: uuid.New()}
	started := false
	for {
		body, err := a.src.Receive()
		if err != nil {
			if started {
				return Batch{}, fmt.Errorf("batch: incomplete batch: %w", err)
			}
			return Batch{}, err
		}
		// exit is only a sentinel between batches; inside one it is data.
		if !started && string(body) == protocol.SentinelExit {
			return Batch{}, ErrExit
		}
		started = true

		if header.IsHeader(body) {
			h, err := header.Parse(string(body))
			if err != nil {
				return Batch{}, err
			}
			payload, err := a.src.Receive()
			if err != nil {
				return Batch{}, fmt.Errorf("batch: missing payload for %q: %w", h.Name, err)
			}
			if len(payload) != h.PayloadSize() {
				return Batch{}, fmt.Errorf("%w: %q want %d bytes, got %d",
					protocol.ErrPayloadSize, h.Name, h.PayloadSize(), len(payload))
			}
			b.Items = append(b.Items, Item{Header: h, Payload: payload})
			continue
		}

		b.Commands = string(body)
		final, err := a.src.Receive()
		if err != nil {
			return Batch{}, fmt.Errorf("batch: missing finalize: %w", err)
		}
		if string(final) != protocol.SentinelFinalize {
			return Batch{}, fmt.Errorf("%w: want %q, got %q", protocol.ErrUnexpectedFrame, protocol.SentinelFinalize, final)
		}
		return b, nil
	}
}
