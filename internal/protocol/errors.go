package protocol

import "errors"

var (
	ErrUnsupportedType = errors.New("protocol: unsupported element type")
	ErrInvalidName     = errors.New("protocol: invalid container name")
	ErrShapeMismatch   = errors.New("protocol: shape does not match data length")
	ErrInvalidValue    = errors.New("protocol: value not representable in element type")
	ErrMalformedHeader = errors.New("protocol: malformed data header")
	ErrPayloadSize     = errors.New("protocol: payload size mismatch")
	ErrUnexpectedFrame = errors.New("protocol: unexpected frame in batch")
	ErrSessionClosed   = errors.New("protocol: session closed")
)
