// Package transport carries plot frames between a session and its consumers.
//
// Publishers receive one frame per call together with its role in the batch.
// Bodies are borrowed for the duration of Publish: a publisher must not modify
// them and must not reference them once Publish returns.
package transport

import (
	"errors"

	"github.com/danmuck/plotwire/internal/protocol"
)

var ErrClosed = errors.New("transport: closed")

// Publisher sends discrete frames in call order.
type Publisher interface {
	Publish(kind protocol.FrameKind, body []byte) error
	Close() error
}

// Source yields frame bodies in arrival order. Receive returns io.EOF once the
// source is exhausted.
type Source interface {
	Receive() ([]byte, error)
	Close() error
}
