package protocol

// FieldMarker prefixes every header frame.
const FieldMarker = "data"

// HeaderSeparator delimits header fields.
const HeaderSeparator = "|"

// Sentinel frame bodies.
const (
	SentinelFinalize = "finalize"
	SentinelExit     = "exit"
)

// FrameKind classifies a frame by its role in a batch. It never travels on the
// plot socket itself; the socket frames are self-describing by position.
type FrameKind uint16

const (
	KindHeader FrameKind = iota + 1
	KindPayload
	KindCommands
	KindFinalize
	KindExit
)

func (k FrameKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindPayload:
		return "payload"
	case KindCommands:
		return "commands"
	case KindFinalize:
		return "finalize"
	case KindExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a known frame kind.
func (k FrameKind) Valid() bool {
	return k >= KindHeader && k <= KindExit
}

// IsSentinel reports whether body is the finalize or exit sentinel.
func IsSentinel(body []byte) bool {
	s := string(body)
	return s == SentinelFinalize || s == SentinelExit
}
