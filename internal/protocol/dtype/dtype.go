// Package dtype maps Go element types to the single-character codes of the
// portable struct-packing convention the remote decoder unpacks with.
package dtype

import (
	"reflect"
	"strconv"
)

// Char is a one-byte character element, distinct from int8/uint8 on the wire.
type Char byte

// Kind enumerates the supported scalar element kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindChar
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindLong
	KindULong
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
)

// UnsupportedCode marks a type with no registered descriptor.
const UnsupportedCode byte = '0'

// Descriptor is the wire identity of one element kind.
type Descriptor struct {
	Kind Kind
	Code byte
	Size int
}

// Unsupported is returned for unmapped element types. It must never reach a
// header frame.
var Unsupported = Descriptor{Kind: KindInvalid, Code: UnsupportedCode, Size: 0}

// Valid reports whether d can describe a payload.
func (d Descriptor) Valid() bool {
	return d.Kind != KindInvalid && d.Code != UnsupportedCode && d.Size > 0
}

func (d Descriptor) String() string {
	if !d.Valid() {
		return "unsupported"
	}
	return string(d.Code) + "/" + strconv.Itoa(d.Size)
}

// Element lists the Go types the typed container adapters accept.
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int | ~uint | ~int64 | ~uint64 | ~float32 | ~float64
}

var table = [...]Descriptor{
	{Kind: KindChar, Code: 'c', Size: 1},
	{Kind: KindInt8, Code: 'b', Size: 1},
	{Kind: KindUint8, Code: 'B', Size: 1},
	{Kind: KindInt16, Code: 'h', Size: 2},
	{Kind: KindUint16, Code: 'H', Size: 2},
	{Kind: KindInt32, Code: 'i', Size: 4},
	{Kind: KindUint32, Code: 'I', Size: 4},
	{Kind: KindLong, Code: 'l', Size: strconv.IntSize / 8},
	{Kind: KindULong, Code: 'L', Size: strconv.IntSize / 8},
	{Kind: KindInt64, Code: 'q', Size: 8},
	{Kind: KindUint64, Code: 'Q', Size: 8},
	{Kind: KindFloat32, Code: 'f', Size: 4},
	{Kind: KindFloat64, Code: 'd', Size: 8},
}

// All returns every registered descriptor in kind order.
func All() []Descriptor {
	out := make([]Descriptor, len(table))
	copy(out, table[:])
	return out
}

// OfKind returns the descriptor registered for k.
func OfKind(k Kind) Descriptor {
	if k == KindInvalid || int(k) > len(table) {
		return Unsupported
	}
	return table[k-1]
}

// Lookup resolves a wire type code.
func Lookup(code byte) (Descriptor, bool) {
	for _, d := range table {
		if d.Code == code {
			return d, true
		}
	}
	return Unsupported, false
}

// For returns the descriptor of element type T, or Unsupported. Defined types
// resolve through their underlying kind, except Char which keeps its own code.
func For[T any]() Descriptor {
	t := reflect.TypeFor[T]()
	if t == reflect.TypeFor[Char]() {
		return OfKind(KindChar)
	}
	switch t.Kind() {
	case reflect.Int8:
		return OfKind(KindInt8)
	case reflect.Uint8:
		return OfKind(KindUint8)
	case reflect.Int16:
		return OfKind(KindInt16)
	case reflect.Uint16:
		return OfKind(KindUint16)
	case reflect.Int32:
		return OfKind(KindInt32)
	case reflect.Uint32:
		return OfKind(KindUint32)
	case reflect.Int:
		return OfKind(KindLong)
	case reflect.Uint:
		return OfKind(KindULong)
	case reflect.Int64:
		return OfKind(KindInt64)
	case reflect.Uint64:
		return OfKind(KindUint64)
	case reflect.Float32:
		return OfKind(KindFloat32)
	case reflect.Float64:
		return OfKind(KindFloat64)
	default:
		return Unsupported
	}
}
