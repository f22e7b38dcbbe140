// Package container exposes numeric containers to the header builder through
// one capability set: shape, element count, descriptor and a borrowed raw view.
//
// Payload layout is contiguous, host byte order. Matrices are row-major, which
// is what a C-order reshape on the consumer side expects.
package container

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/dtype"
)

// Container is implemented by every container kind the session can publish.
//
// Bytes returns a view of the backing store, not a copy. The caller keeps
// ownership and must not mutate the store until the publish that carries it
// has returned.
type Container interface {
	Shape() []int
	Len() int
	Descriptor() dtype.Descriptor
	Bytes() []byte
}

// ShapeString renders a shape the way the consumer parses it: "(n,)" or "(r,c)".
func ShapeString(shape []int) string {
	if len(shape) == 1 {
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// ByteLen is the payload length implied by c's descriptor and element count.
func ByteLen(c Container) int {
	return c.Descriptor().Size * c.Len()
}

func rawBytes[T dtype.Element](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data)*int(unsafe.Sizeof(zero)))
}

// Vector is a flat sequence.
type Vector[T dtype.Element] struct {
	data []T
}

// NewVector borrows data as a flat container.
func NewVector[T dtype.Element](data []T) Vector[T] {
	return Vector[T]{data: data}
}

func (v Vector[T]) Shape() []int                 { return []int{len(v.data)} }
func (v Vector[T]) Len() int                     { return len(v.data) }
func (v Vector[T]) Descriptor() dtype.Descriptor { return dtype.For[T]() }
func (v Vector[T]) Bytes() []byte                { return rawBytes(v.data) }

// Values returns the borrowed slice.
func (v Vector[T]) Values() []T { return v.data }

// Matrix is a dense 2-D container stored row-major.
type Matrix[T dtype.Element] struct {
	rows int
	cols int
	data []T
}

// NewMatrix borrows a row-major backing slice of rows*cols elements.
func NewMatrix[T dtype.Element](rows, cols int, data []T) (Matrix[T], error) {
	n, err := ShapeCount([]int{rows, cols})
	if err != nil {
		return Matrix[T]{}, err
	}
	if n != len(data) {
		return Matrix[T]{}, fmt.Errorf("%w: %dx%d needs %d elements, got %d",
			protocol.ErrShapeMismatch, rows, cols, n, len(data))
	}
	return Matrix[T]{rows: rows, cols: cols, data: data}, nil
}

// MustMatrix is NewMatrix for literal data known to be well formed.
func MustMatrix[T dtype.Element](rows, cols int, data []T) Matrix[T] {
	m, err := NewMatrix(rows, cols, data)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Matrix[T]) Shape() []int                 { return []int{m.rows, m.cols} }
func (m Matrix[T]) Len() int                     { return len(m.data) }
func (m Matrix[T]) Descriptor() dtype.Descriptor { return dtype.For[T]() }
func (m Matrix[T]) Bytes() []byte                { return rawBytes(m.data) }

func (m Matrix[T]) Rows() int { return m.rows }
func (m Matrix[T]) Cols() int { return m.cols }

// At returns the element at row r, column c.
func (m Matrix[T]) At(r, c int) T { return m.data[r*m.cols+c] }
