package transport

import (
	"errors"

	"github.com/danmuck/plotwire/internal/protocol"
)

// Tee fans every frame out to several publishers in order. Publish stops at
// the first failing publisher; Close closes all of them.
type Tee []Publisher

func (t Tee) Publish(kind protocol.FrameKind, body []byte) error {
	for _, p := range t {
		if err := p.Publish(kind, body); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Close() error {
	var errs []error
	for _, p := range t {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
