package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/plotwire/internal/protocol"
)

// Capture stream framing. The plot socket delimits frames itself; files and
// pipes need an explicit length, so every frame is prefixed with this header.
const (
	FixedHeaderLen        = 16
	Magic          uint32 = 0x504C5457 // "PLTW"
	Version        uint16 = 1
)

var (
	ErrShortHeader    = errors.New("frame: short fixed header")
	ErrInvalidMagic   = errors.New("frame: invalid magic")
	ErrBadVersion     = errors.New("frame: unsupported version")
	ErrInvalidKind    = errors.New("frame: invalid kind")
	ErrBodyTooLarge   = errors.New("frame: body too large")
	ErrTruncatedFrame = errors.New("frame: truncated body")
)

// Header is the fixed capture header.
type Header struct {
	Magic   uint32
	Version uint16
	Kind    protocol.FrameKind
	BodyLen uint64
}

// Frame is one captured plot frame.
type Frame struct {
	Kind protocol.FrameKind
	Body []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxBodyBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxBodyBytes: 256 * 1024 * 1024,
	}
}

// ReadFrame returns io.EOF only when the stream ends cleanly between frames.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.BodyLen > limits.MaxBodyBytes {
		return Frame{}, ErrBodyTooLarge
	}

	body := make([]byte, h.BodyLen)
	if h.BodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Frame{}, ErrTruncatedFrame
			}
			return Frame{}, err
		}
	}
	return Frame{Kind: h.Kind, Body: body}, nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if !f.Kind.Valid() {
		return ErrInvalidKind
	}
	bodyLen := uint64(len(f.Body))
	if bodyLen > limits.MaxBodyBytes {
		return ErrBodyTooLarge
	}
	hb := EncodeHeader(Header{Magic: Magic, Version: Version, Kind: f.Kind, BodyLen: bodyLen})
	if _, err := w.Write(hb); err != nil {
		return err
	}
	if bodyLen > 0 {
		if _, err := w.Write(f.Body); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Kind))
	binary.BigEndian.PutUint64(buf[8:16], h.BodyLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != FixedHeaderLen {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	h := Header{
		Magic:   binary.BigEndian.Uint32(b[0:4]),
		Version: binary.BigEndian.Uint16(b[4:6]),
		Kind:    protocol.FrameKind(binary.BigEndian.Uint16(b[6:8])),
		BodyLen: binary.BigEndian.Uint64(b[8:16]),
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, ErrBadVersion
	}
	if !h.Kind.Valid() {
		return Header{}, ErrInvalidKind
	}
	return h, nil
}
