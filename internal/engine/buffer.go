// Package engine implements the memory model and the operation graph: typed
// Buffers, the Allocator arena that owns them, and the Operation nodes whose
// kernels fill them.
//
// Every Buffer and Operation is created through an Allocator and addressed by
// a generation-checked handle. Nothing created by an Allocator may be used
// after the Allocator tears it down.
package engine

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/shapes"
)

// Buffer is typed flat storage plus shape metadata.
//
// Storage is absent until Initialize is called. Once present its size is
// fixed; an operation that needs a different shape gets a new Buffer.
type Buffer struct {
	id     BufferID
	alloc  *Allocator
	dtype  shapes.DataType
	shape  shapes.Shape
	data   []byte
	owners int  // live operations whose output this buffer is
	writer OpID // last operation that computed into data
}

// ID returns the buffer's arena handle.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Allocator returns the owning allocator.
func (b *Buffer) Allocator() *Allocator {
	return b.alloc
}

// DType returns the element type.
func (b *Buffer) DType() shapes.DataType {
	return b.dtype
}

// Shape returns the buffer's dimensions. Callers must not modify it.
func (b *Buffer) Shape() shapes.Shape {
	return b.shape
}

// NumElements returns the product of the shape's dimensions.
func (b *Buffer) NumElements() int {
	return b.shape.NumElements()
}

// ByteSize returns the storage size in bytes, whether or not it is allocated.
func (b *Buffer) ByteSize() int {
	return b.NumElements() * b.dtype.Size()
}

// Initialized reports whether storage is present.
func (b *Buffer) Initialized() bool {
	return b.data != nil
}

// Owners returns how many live operations currently output into b.
func (b *Buffer) Owners() int {
	return b.owners
}

// Writer returns the last operation that computed into b. It is zero when
// the data was supplied by the caller.
func (b *Buffer) Writer() OpID {
	return b.writer
}

// Initialize allocates zeroed storage through the owning allocator.
// It is a no-op when storage is already present.
func (b *Buffer) Initialize() {
	if b.data != nil {
		return
	}
	b.alloc.allocate(b)
}

// Bytes returns the raw storage.
// WARNING: Direct access to underlying memory. Use with caution.
func (b *Buffer) Bytes() []byte {
	b.mustBeInitialized()
	return b.data
}

// CopyFrom overwrites b's elements with src's. Shapes and dtypes must match.
// b is initialized if needed.
func (b *Buffer) CopyFrom(src *Buffer) {
	if src.dtype != b.dtype {
		panic(errors.Errorf("buffer: copy dtype mismatch %s <- %s", b.dtype, src.dtype))
	}
	if !src.shape.Equal(b.shape) {
		panic(errors.Errorf("buffer: copy shape mismatch %v <- %v", b.shape, src.shape))
	}
	src.mustBeInitialized()
	b.Initialize()
	copy(b.data, src.data)
	b.writer = OpID{}
}

// Float64 reads element i converted to float64, whatever the dtype.
// Bool reads as 0 or 1.
func (b *Buffer) Float64(i int) float64 {
	switch b.dtype {
	case shapes.Uint8:
		return float64(Get[uint8](b, i))
	case shapes.Int8:
		return float64(Get[int8](b, i))
	case shapes.Uint16:
		return float64(Get[uint16](b, i))
	case shapes.Int16:
		return float64(Get[int16](b, i))
	case shapes.Uint32:
		return float64(Get[uint32](b, i))
	case shapes.Int32:
		return float64(Get[int32](b, i))
	case shapes.Uint64:
		return float64(Get[uint64](b, i))
	case shapes.Int64:
		return float64(Get[int64](b, i))
	case shapes.Float32:
		return float64(Get[float32](b, i))
	case shapes.Float64:
		return Get[float64](b, i)
	case shapes.Bool:
		if Get[bool](b, i) {
			return 1
		}
		return 0
	default:
		panic(errors.Errorf("buffer: bad data type %s", b.dtype))
	}
}

func (b *Buffer) mustBeInitialized() {
	if b.data == nil {
		panic(errors.Errorf("buffer: access to uninitialized buffer %v %s", b.shape, b.dtype))
	}
}

// View interprets the storage as []T without copying.
// Panics if T does not match the buffer's dtype or storage is absent.
func View[T shapes.Element](b *Buffer) []T {
	if want := shapes.Of[T](); want != b.dtype {
		panic(errors.Errorf("buffer: dtype is %s, not %s", b.dtype, want))
	}
	b.mustBeInitialized()
	//nolint:gosec // unsafe.Slice for zero-copy access, length bounded by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), b.NumElements())
}

// Get returns element i. Panics on dtype mismatch, absent storage or an
// out-of-range index.
func Get[T shapes.Element](b *Buffer, i int) T {
	data := View[T](b)
	if i < 0 || i >= len(data) {
		panic(errors.Errorf("buffer: index %d out of range [0, %d)", i, len(data)))
	}
	return data[i]
}

// Set stores v at element i with the same checks as Get.
func Set[T shapes.Element](b *Buffer, i int, v T) {
	data := View[T](b)
	if i < 0 || i >= len(data) {
		panic(errors.Errorf("buffer: index %d out of range [0, %d)", i, len(data)))
	}
	data[i] = v
}
