// Package header builds and parses the textual data header that precedes every
// payload frame:
//
//	data|<name>|<code>|<count>|<shape>
package header

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/container"
	"github.com/danmuck/plotwire/internal/protocol/dtype"
)

// Header describes one named payload.
type Header struct {
	Name       string
	Descriptor dtype.Descriptor
	Count      int
	Shape      []int
}

// PayloadSize is the exact length of the payload frame that follows.
func (h Header) PayloadSize() int {
	return h.Descriptor.Size * h.Count
}

func (h Header) String() string {
	return strings.Join([]string{
		protocol.FieldMarker,
		h.Name,
		string(h.Descriptor.Code),
		strconv.Itoa(h.Count),
		container.ShapeString(h.Shape),
	}, protocol.HeaderSeparator)
}

// New derives the header for c. It rejects unsupported descriptors so the
// sentinel code never reaches the wire, and shapes that disagree with Len.
func New(name string, c container.Container) (Header, error) {
	if err := ValidateName(name); err != nil {
		return Header{}, err
	}
	d := c.Descriptor()
	if !d.Valid() {
		return Header{}, fmt.Errorf("%w: %q", protocol.ErrUnsupportedType, name)
	}
	n, err := container.ShapeCount(c.Shape())
	if err != nil {
		return Header{}, fmt.Errorf("%q: %w", name, err)
	}
	if n != c.Len() {
		return Header{}, fmt.Errorf("%w: %q has %d elements, shape %v holds %d",
			protocol.ErrShapeMismatch, name, c.Len(), c.Shape(), n)
	}
	return Header{
		Name:       name,
		Descriptor: d,
		Count:      c.Len(),
		Shape:      c.Shape(),
	}, nil
}

// Build renders the header for c.
func Build(name string, c container.Container) (string, error) {
	h, err := New(name, c)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// ValidateName accepts identifier-like labels: a letter or underscore followed
// by letters, digits or underscores.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", protocol.ErrInvalidName)
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return fmt.Errorf("%w: %q", protocol.ErrInvalidName, name)
		}
	}
	return nil
}

// IsHeader reports whether a frame body looks like a data header.
func IsHeader(body []byte) bool {
	return strings.HasPrefix(string(body), protocol.FieldMarker+protocol.HeaderSeparator)
}

// Parse is the inverse of Header.String.
func Parse(s string) (Header, error) {
	parts := strings.Split(s, protocol.HeaderSeparator)
	if len(parts) != 5 || parts[0] != protocol.FieldMarker {
		return Header{}, fmt.Errorf("%w: %q", protocol.ErrMalformedHeader, s)
	}
	if err := ValidateName(parts[1]); err != nil {
		return Header{}, err
	}
	if len(parts[2]) != 1 {
		return Header{}, fmt.Errorf("%w: type code %q", protocol.ErrMalformedHeader, parts[2])
	}
	d, ok := dtype.Lookup(parts[2][0])
	if !ok {
		return Header{}, fmt.Errorf("%w: type code %q", protocol.ErrUnsupportedType, parts[2])
	}
	count, err := strconv.Atoi(parts[3])
	if err != nil || count < 0 {
		return Header{}, fmt.Errorf("%w: count %q", protocol.ErrMalformedHeader, parts[3])
	}
	shape, err := ParseShape(parts[4])
	if err != nil {
		return Header{}, err
	}
	n, err := container.ShapeCount(shape)
	if err != nil {
		return Header{}, err
	}
	if n != count {
		return Header{}, fmt.Errorf("%w: count %d vs shape %s", protocol.ErrShapeMismatch, count, parts[4])
	}
	if count > math.MaxInt/d.Size {
		return Header{}, fmt.Errorf("%w: %d elements of %d bytes", protocol.ErrPayloadSize, count, d.Size)
	}
	return Header{Name: parts[1], Descriptor: d, Count: count, Shape: shape}, nil
}

// ParseShape reads "(n,)" or "(r,c)".
func ParseShape(s string) ([]int, error) {
	if len(s) < 3 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("%w: shape %q", protocol.ErrMalformedHeader, s)
	}
	inner := s[1 : len(s)-1]
	var fields []string
	if strings.HasSuffix(inner, ",") {
		fields = []string{strings.TrimSuffix(inner, ",")}
	} else {
		fields = strings.Split(inner, ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: shape %q", protocol.ErrMalformedHeader, s)
		}
	}
	shape := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: shape %q", protocol.ErrMalformedHeader, s)
		}
		shape[i] = n
	}
	return shape, nil
}
