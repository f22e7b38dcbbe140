package transport

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/go-zeromq/zmq4"
)

const (
	// DefaultAddress is where sessions bind when no address is configured.
	DefaultAddress = "tcp://127.0.0.1:5555"
	// DefaultLinger is how long Close leaves queued frames to reach subscribers.
	DefaultLinger = 500 * time.Millisecond
)

// PubConfig tunes a bound PUB socket.
type PubConfig struct {
	SendTimeout time.Duration
	// Linger is how long Close waits before tearing down connections when
	// frames were published. The socket writes from a background queue and
	// reports no completion, so this is a wait, not a drain.
	Linger time.Duration
}

// ZMQPublisher publishes frames on a bound PUB socket. The socket queues
// messages and writes them to subscribers later from its own goroutine, so
// Publish copies body into the message: callers may reuse the memory as soon
// as Publish returns.
type ZMQPublisher struct {
	sock    zmq4.Socket
	addr    string
	linger  time.Duration
	pending bool
}

// ListenPub binds a PUB socket at addr. Only one publisher may bind an address.
func ListenPub(ctx context.Context, addr string, cfg PubConfig) (*ZMQPublisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = DefaultAddress
	}
	var opts []zmq4.Option
	if cfg.SendTimeout > 0 {
		opts = append(opts, zmq4.WithTimeout(cfg.SendTimeout))
	}
	sock := zmq4.NewPub(ctx, opts...)
	if err := sock.Listen(addr); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: bind %s: %w", addr, err)
	}
	// Resolve ephemeral ports so consumers can be pointed at the real endpoint.
	if a := sock.Addr(); a != nil && a.Network() == "tcp" {
		addr = "tcp://" + a.String()
	}
	return &ZMQPublisher{sock: sock, addr: addr, linger: cfg.Linger}, nil
}

// Addr is the bound endpoint.
func (p *ZMQPublisher) Addr() string { return p.addr }

func (p *ZMQPublisher) Publish(_ protocol.FrameKind, body []byte) error {
	if err := p.sock.Send(zmq4.NewMsg(bytes.Clone(body))); err != nil {
		return fmt.Errorf("transport: publish on %s: %w", p.addr, err)
	}
	p.pending = true
	return nil
}

// Close waits out the linger if anything was published, then closes the
// socket. Frames still queued after the linger are dropped.
func (p *ZMQPublisher) Close() error {
	if p.pending && p.linger > 0 {
		time.Sleep(p.linger)
	}
	p.pending = false
	return p.sock.Close()
}

// ZMQSubscriber receives every frame published at an address.
type ZMQSubscriber struct {
	sock zmq4.Socket
	addr string
}

// DialSub connects a SUB socket subscribed to all frames.
func DialSub(ctx context.Context, addr string, retry time.Duration) (*ZMQSubscriber, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = DefaultAddress
	}
	var opts []zmq4.Option
	if retry > 0 {
		opts = append(opts, zmq4.WithDialerRetry(retry))
	}
	sock := zmq4.NewSub(ctx, opts...)
	if err := sock.Dial(addr); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: subscribe %s: %w", addr, err)
	}
	return &ZMQSubscriber{sock: sock, addr: addr}, nil
}

func (s *ZMQSubscriber) Receive() ([]byte, error) {
	msg, err := s.sock.Recv()
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

func (s *ZMQSubscriber) Close() error {
	return s.sock.Close()
}
