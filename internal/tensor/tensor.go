// Package tensor provides the caller-facing Tensor handle: leaf factories,
// operation constructors that apply the buffer reuse policy, and the
// stack-based evaluator.
//
// A Tensor is a light handle. Dropping it never frees anything; the graph it
// points into lives until its Allocator is uprooted.
package tensor

import (
	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
)

// Tensor binds one Operation to its Allocator and dtype, and counts the
// downstream operations that took over its buffer.
//
// Example:
//
//	alloc := engine.NewAllocator()
//	x, _ := tensor.FromValues(alloc, shapes.Shape{3}, []float32{1, 2, 3})
//	y := x.Add(tensor.Scalar(alloc, float32(5)))
//	fmt.Println(tensor.Values[float32](y)) // [6 7 8]
type Tensor struct {
	op       *engine.Operation
	alloc    *engine.Allocator
	dtype    shapes.DataType
	children int
}

// Wrap returns a handle over an existing operation.
func Wrap(op *engine.Operation) *Tensor {
	return &Tensor{
		op:    op,
		alloc: op.Allocator(),
		dtype: op.DType(),
	}
}

// Operation returns the wrapped graph node.
func (t *Tensor) Operation() *engine.Operation {
	return t.op
}

// Allocator returns the arena owning t's graph.
func (t *Tensor) Allocator() *engine.Allocator {
	return t.alloc
}

// Buffer returns the current output buffer without evaluating.
func (t *Tensor) Buffer() *engine.Buffer {
	return t.op.Output()
}

// Shape returns the output shape.
func (t *Tensor) Shape() shapes.Shape {
	return t.op.Output().Shape()
}

// DType returns the element type.
func (t *Tensor) DType() shapes.DataType {
	return t.dtype
}

// NumElements returns the output element count.
func (t *Tensor) NumElements() int {
	return t.op.Output().NumElements()
}

// Children returns how many downstream operations took over t's buffer, plus
// one for each combination of t with itself.
func (t *Tensor) Children() int {
	return t.children
}

// Uproot frees t's operation and every ancestor no other live operation
// reads. t must not be used afterwards.
func (t *Tensor) Uproot() {
	t.alloc.UprootOperation(t.op)
}

// Values evaluates t and returns a copy of its elements.
// Panics if T does not match t's dtype.
func Values[T shapes.Element](t *Tensor) []T {
	if want := shapes.Of[T](); want != t.dtype {
		panic(errors.Errorf("tensor: values of %s tensor requested as %s", t.dtype, want))
	}
	data := engine.View[T](t.Operate())
	out := make([]T, len(data))
	copy(out, data)
	return out
}
