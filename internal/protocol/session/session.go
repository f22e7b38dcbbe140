package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/danmuck/plotwire/internal/launch"
	"github.com/danmuck/plotwire/internal/observability"
	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/container"
	"github.com/danmuck/plotwire/internal/protocol/frame"
	"github.com/danmuck/plotwire/internal/protocol/header"
	"github.com/danmuck/plotwire/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	finalizeFrame = []byte(protocol.SentinelFinalize)
	exitFrame     = []byte(protocol.SentinelExit)
)

// Item pairs a container with the name the consumer binds it to.
type Item struct {
	Name string
	Data container.Container
}

// Named builds an Item.
func Named(name string, data container.Container) Item {
	return Item{Name: name, Data: data}
}

// Session publishes batches to one consumer.
type Session struct {
	pub      transport.Publisher
	cmds     CommandBuffer
	logger   zerolog.Logger
	launcher launch.Launcher
	addr     string
	closed   bool
}

type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithLauncher replaces the process launcher used by Open.
func WithLauncher(l launch.Launcher) Option {
	return func(s *Session) { s.launcher = l }
}

// New wraps an existing publisher. No consumer is launched.
func New(pub transport.Publisher, opts ...Option) *Session {
	s := &Session{pub: pub, logger: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open binds the channel, launches the consumer and waits for it to
// subscribe. A bind or launch failure is fatal; the channel is released.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	s := New(nil, opts...)
	if s.launcher == nil {
		logger := s.logger
		s.launcher = launch.ExecLauncher{Config: cfg.Launch, Logger: &logger}
	}

	// The socket outlives the bootstrap context.
	zpub, err := transport.ListenPub(context.WithoutCancel(ctx), cfg.Address, transport.PubConfig{
		SendTimeout: cfg.SendTimeout,
		Linger:      cfg.Linger,
	})
	if err != nil {
		return nil, err
	}
	s.addr = zpub.Addr()
	s.pub = zpub
	if cfg.CapturePath != "" {
		f, err := os.Create(cfg.CapturePath)
		if err != nil {
			_ = zpub.Close()
			return nil, fmt.Errorf("session: open capture: %w", err)
		}
		s.pub = transport.Tee{zpub, transport.NewCaptureWriter(f, frame.DefaultLimits())}
	}
	s.logger.Info().Str("addr", s.addr).Msg("channel bound")

	if err := sleep(ctx, cfg.BindDelay); err != nil {
		_ = s.pub.Close()
		return nil, err
	}
	if err := s.launcher.Launch(ctx, s.addr); err != nil {
		_ = s.pub.Close()
		return nil, err
	}
	if err := sleep(ctx, cfg.ReadyDelay); err != nil {
		_ = s.pub.Close()
		return nil, err
	}
	return s, nil
}

// Addr is the bound channel endpoint, empty for sessions built with New.
func (s *Session) Addr() string { return s.addr }

// Push queues a command line for the next batch.
func (s *Session) Push(cmds string) { s.cmds.Push(cmds) }

// Pushf queues a formatted command line.
func (s *Session) Pushf(format string, args ...any) { s.cmds.Pushf(format, args...) }

// Raw queues an indented multi-line block after dedenting it.
func (s *Session) Raw(block string) { s.cmds.Raw(block) }

// Discard drops the queued commands without sending them.
func (s *Session) Discard() { s.cmds.Reset() }

// Pending returns the commands queued for the next batch.
func (s *Session) Pending() string { return s.cmds.String() }

// Send publishes one batch: a header and payload frame per item in argument
// order, the queued commands, then the finalize sentinel.
//
// Every item is validated before the first frame goes out, so a rejected
// batch publishes nothing. Payload frames borrow the containers' memory until
// Send returns; the caller may mutate them afterwards. On a transport error
// the batch is abandoned and the queued commands are kept.
func (s *Session) Send(items ...Item) error {
	if s.closed {
		return protocol.ErrSessionClosed
	}
	headers := make([][]byte, len(items))
	for i, item := range items {
		if item.Data == nil {
			return fmt.Errorf("%w: %q has no data", protocol.ErrUnsupportedType, item.Name)
		}
		h, err := header.New(item.Name, item.Data)
		if err != nil {
			return err
		}
		if got := len(item.Data.Bytes()); got != h.PayloadSize() {
			return fmt.Errorf("%w: %q header implies %d bytes, view has %d",
				protocol.ErrPayloadSize, item.Name, h.PayloadSize(), got)
		}
		headers[i] = []byte(h.String())
	}
	// With no data frames the command frame opens the batch, where the
	// consumer reads a bare exit as the sentinel.
	if len(items) == 0 && s.cmds.String() == protocol.SentinelExit {
		return fmt.Errorf("%w: command frame %q would end the session", protocol.ErrInvalidValue, protocol.SentinelExit)
	}

	id := uuid.New()
	start := time.Now()
	err := s.sendFrames(items, headers)
	observability.RecordBatch(err == nil, time.Since(start))
	if err != nil {
		s.logger.Error().Err(err).Str("batch_id", id.String()).Msg("batch aborted")
		return err
	}
	s.logger.Info().
		Str("batch_id", id.String()).
		Int("items", len(items)).
		Int("command_bytes", s.cmds.Len()).
		Dur("duration", time.Since(start)).
		Msg("batch sent")
	s.cmds.Reset()
	return nil
}

func (s *Session) sendFrames(items []Item, headers [][]byte) error {
	for i, item := range items {
		if err := s.publish(protocol.KindHeader, headers[i]); err != nil {
			return err
		}
		if err := s.publish(protocol.KindPayload, item.Data.Bytes()); err != nil {
			return err
		}
	}
	if err := s.publish(protocol.KindCommands, s.cmds.Bytes()); err != nil {
		return err
	}
	return s.publish(protocol.KindFinalize, finalizeFrame)
}

func (s *Session) publish(kind protocol.FrameKind, body []byte) error {
	if err := s.pub.Publish(kind, body); err != nil {
		return err
	}
	observability.RecordFrame(kind.String(), len(body))
	s.logger.Debug().Str("kind", kind.String()).Int("bytes", len(body)).Msg("frame published")
	return nil
}

// Close tells the consumer to exit and releases the channel once the
// publisher's linger has passed. Later calls are no-ops.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.publish(protocol.KindExit, exitFrame)
	if cerr := s.pub.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	s.logger.Info().Str("addr", s.addr).Msg("session closed")
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
