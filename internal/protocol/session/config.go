package session

import (
	"time"

	"github.com/danmuck/plotwire/internal/launch"
	"github.com/danmuck/plotwire/internal/transport"
)

// Config defines channel and bootstrap settings for Open.
type Config struct {
	Address     string
	BindDelay   time.Duration
	ReadyDelay  time.Duration
	SendTimeout time.Duration
	// Linger is how long Close leaves queued frames, exit included, to reach
	// the consumer before the channel is torn down.
	Linger time.Duration
	// CapturePath, when set, tees every frame into a capture file.
	CapturePath string
	Launch      launch.Config
}

// DefaultConfig returns the delays the consumer has historically needed to
// subscribe after being spawned.
func DefaultConfig() Config {
	return Config{
		Address:    transport.DefaultAddress,
		BindDelay:  100 * time.Millisecond,
		ReadyDelay: 1500 * time.Millisecond,
		Linger:     transport.DefaultLinger,
	}
}
