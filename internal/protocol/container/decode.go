package container

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/dtype"
)

// Values is a received payload widened to float64 for inspection. 64-bit
// integers beyond 2^53 lose precision.
type Values struct {
	Descriptor dtype.Descriptor
	Shape      []int
	Data       []float64
}

// Decode reads a payload frame produced by a Container of descriptor d.
func Decode(d dtype.Descriptor, shape []int, payload []byte) (Values, error) {
	if !d.Valid() {
		return Values{}, protocol.ErrUnsupportedType
	}
	count, err := ShapeCount(shape)
	if err != nil {
		return Values{}, err
	}
	if len(payload) != count*d.Size {
		return Values{}, fmt.Errorf("%w: want %d bytes for %d x %c, got %d",
			protocol.ErrPayloadSize, count*d.Size, count, d.Code, len(payload))
	}
	out := make([]float64, count)
	ne := binary.NativeEndian
	for i := range out {
		b := payload[i*d.Size : (i+1)*d.Size]
		switch d.Kind {
		case dtype.KindChar, dtype.KindUint8:
			out[i] = float64(b[0])
		case dtype.KindInt8:
			out[i] = float64(int8(b[0]))
		case dtype.KindInt16:
			out[i] = float64(int16(ne.Uint16(b)))
		case dtype.KindUint16:
			out[i] = float64(ne.Uint16(b))
		case dtype.KindInt32:
			out[i] = float64(int32(ne.Uint32(b)))
		case dtype.KindUint32:
			out[i] = float64(ne.Uint32(b))
		case dtype.KindLong, dtype.KindInt64:
			if d.Size == 4 {
				out[i] = float64(int32(ne.Uint32(b)))
			} else {
				out[i] = float64(int64(ne.Uint64(b)))
			}
		case dtype.KindULong, dtype.KindUint64:
			if d.Size == 4 {
				out[i] = float64(ne.Uint32(b))
			} else {
				out[i] = float64(ne.Uint64(b))
			}
		case dtype.KindFloat32:
			out[i] = float64(math.Float32frombits(ne.Uint32(b)))
		case dtype.KindFloat64:
			out[i] = math.Float64frombits(ne.Uint64(b))
		}
	}
	return Values{Descriptor: d, Shape: append([]int(nil), shape...), Data: out}, nil
}

// FromFloat64s builds an owned container of the kind named by code. Integer
// kinds reject values that do not convert exactly.
func FromFloat64s(code byte, shape []int, values []float64) (Container, error) {
	d, ok := dtype.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("%w: type code %q", protocol.ErrUnsupportedType, code)
	}
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	count, err := ShapeCount(shape)
	if err != nil {
		return nil, err
	}
	if count != len(values) {
		return nil, fmt.Errorf("%w: shape %s needs %d values, got %d",
			protocol.ErrShapeMismatch, ShapeString(shape), count, len(values))
	}
	switch d.Kind {
	case dtype.KindChar:
		return build[dtype.Char](shape, values, true)
	case dtype.KindInt8:
		return build[int8](shape, values, true)
	case dtype.KindUint8:
		return build[uint8](shape, values, true)
	case dtype.KindInt16:
		return build[int16](shape, values, true)
	case dtype.KindUint16:
		return build[uint16](shape, values, true)
	case dtype.KindInt32:
		return build[int32](shape, values, true)
	case dtype.KindUint32:
		return build[uint32](shape, values, true)
	case dtype.KindLong:
		return build[int](shape, values, true)
	case dtype.KindULong:
		return build[uint](shape, values, true)
	case dtype.KindInt64:
		return build[int64](shape, values, true)
	case dtype.KindUint64:
		return build[uint64](shape, values, true)
	case dtype.KindFloat32:
		return build[float32](shape, values, false)
	default:
		return build[float64](shape, values, false)
	}
}

func build[T dtype.Element](shape []int, values []float64, exact bool) (Container, error) {
	data := make([]T, len(values))
	for i, v := range values {
		if exact && (math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v)) {
			return nil, fmt.Errorf("%w: value[%d]=%v is not an integer", protocol.ErrInvalidValue, i, v)
		}
		data[i] = T(v)
		if exact && float64(data[i]) != v {
			return nil, fmt.Errorf("%w: value[%d]=%v out of range", protocol.ErrInvalidValue, i, v)
		}
	}
	if len(shape) == 1 {
		return NewVector(data), nil
	}
	return NewMatrix(shape[0], shape[1], data)
}

// ShapeCount is the number of elements a rank 1 or rank 2 shape describes.
// Shapes whose product does not fit in an int are rejected.
func ShapeCount(shape []int) (int, error) {
	if len(shape) != 1 && len(shape) != 2 {
		return 0, fmt.Errorf("%w: rank %d not supported", protocol.ErrShapeMismatch, len(shape))
	}
	count := 1
	for _, n := range shape {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", protocol.ErrShapeMismatch, shape)
		}
		if n != 0 && count > math.MaxInt/n {
			return 0, fmt.Errorf("%w: %v overflows the element count", protocol.ErrShapeMismatch, shape)
		}
		count *= n
	}
	return count, nil
}
