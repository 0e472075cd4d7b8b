package tensor

import (
	"fmt"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
)

// New creates a zero-filled Constant.
//
// Example:
//
//	t, err := tensor.New(alloc, shapes.Shape{3, 4}, shapes.Float32)
func New(alloc *engine.Allocator, shape shapes.Shape, dtype shapes.DataType) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid data type %d", int(dtype))
	}

	b := alloc.NewBuffer(shape, dtype)
	b.Initialize()
	return leaf(alloc, engine.Constant, nil, b), nil
}

// FromValues creates a Constant holding a copy of values.
func FromValues[T shapes.Element](alloc *engine.Allocator, shape shapes.Shape, values []T) (*Tensor, error) {
	b, err := filled(alloc, shape, values)
	if err != nil {
		return nil, err
	}
	return leaf(alloc, engine.Constant, nil, b), nil
}

// NewVariable creates a named Variable holding a copy of values. Graphs
// substitute Variable data by name.
func NewVariable[T shapes.Element](alloc *engine.Allocator, name string, shape shapes.Shape, values []T) (*Tensor, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name must not be empty")
	}
	b, err := filled(alloc, shape, values)
	if err != nil {
		return nil, err
	}
	return leaf(alloc, engine.Variable, engine.VariableAttrs{Name: name}, b), nil
}

// Scalar creates a one-element Constant.
func Scalar[T shapes.Element](alloc *engine.Allocator, v T) *Tensor {
	t, err := FromValues(alloc, shapes.Shape{1}, []T{v})
	if err != nil {
		panic(err) // a one-element shape is always valid
	}
	return t
}

func filled[T shapes.Element](alloc *engine.Allocator, shape shapes.Shape, values []T) (*engine.Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(values))
	}

	b := alloc.NewBuffer(shape, shapes.Of[T]())
	b.Initialize()
	copy(engine.View[T](b), values)
	return b, nil
}

func leaf(alloc *engine.Allocator, kind engine.Kind, attrs engine.Attributes, b *engine.Buffer) *Tensor {
	return &Tensor{
		op:    alloc.NewOperation(kind, attrs, b),
		alloc: alloc,
		dtype: b.DType(),
	}
}

// Placeholder creates a zero-filled Variable of a dtype known only at run
// time, typically a Graph parameter whose data arrives with Compute.
func Placeholder(alloc *engine.Allocator, name string, shape shapes.Shape, dtype shapes.DataType) (*Tensor, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name must not be empty")
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid data type %d", int(dtype))
	}

	b := alloc.NewBuffer(shape, dtype)
	b.Initialize()
	return leaf(alloc, engine.Variable, engine.VariableAttrs{Name: name}, b), nil
}
