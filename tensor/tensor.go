// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
	"github.com/born-ml/graphite/internal/tensor"
)

// Type aliases for public API

// Tensor is a handle over one graph node.
type Tensor = tensor.Tensor

// Allocator owns every Buffer and Operation of one graph.
type Allocator = engine.Allocator

// Option configures an Allocator.
type Option = engine.Option

// Stats summarizes an Allocator's allocations.
type Stats = engine.Stats

// Buffer is typed flat storage plus shape metadata.
type Buffer = engine.Buffer

// Operation is a graph node.
type Operation = engine.Operation

// Shape represents the dimensions of a tensor, outermost first.
type Shape = shapes.Shape

// DataType identifies an element type.
type DataType = shapes.DataType

// Element is the constraint satisfied by every supported Go element type.
type Element = shapes.Element

// Data type constants.
const (
	Uint8   DataType = shapes.Uint8
	Int8    DataType = shapes.Int8
	Uint16  DataType = shapes.Uint16
	Int16   DataType = shapes.Int16
	Uint32  DataType = shapes.Uint32
	Int32   DataType = shapes.Int32
	Uint64  DataType = shapes.Uint64
	Int64   DataType = shapes.Int64
	Float32 DataType = shapes.Float32
	Float64 DataType = shapes.Float64
	Bool    DataType = shapes.Bool
)

// Padding selects how Conv2D treats the image border.
type Padding = engine.Padding

// Padding modes.
const (
	PaddingValid Padding = engine.PaddingValid
	PaddingSame  Padding = engine.PaddingSame
)

// NewAllocator creates an empty Allocator.
func NewAllocator(opts ...Option) *Allocator {
	return engine.NewAllocator(opts...)
}

// WithLogger is passed to NewAllocator to receive teardown diagnostics.
var WithLogger = engine.WithLogger

// ParseDataType resolves a name such as "float32".
func ParseDataType(name string) (DataType, error) {
	return shapes.ParseDataType(name)
}

// ParsePadding resolves "same" or "valid".
func ParsePadding(s string) (Padding, error) {
	return engine.ParsePadding(s)
}

// New creates a zero-filled Constant.
func New(alloc *Allocator, shape Shape, dtype DataType) (*Tensor, error) {
	return tensor.New(alloc, shape, dtype)
}

// FromValues creates a Constant holding a copy of values.
func FromValues[T Element](alloc *Allocator, shape Shape, values []T) (*Tensor, error) {
	return tensor.FromValues(alloc, shape, values)
}

// NewVariable creates a named Variable holding a copy of values.
func NewVariable[T Element](alloc *Allocator, name string, shape Shape, values []T) (*Tensor, error) {
	return tensor.NewVariable(alloc, name, shape, values)
}

// Placeholder creates a zero-filled named Variable.
func Placeholder(alloc *Allocator, name string, shape Shape, dtype DataType) (*Tensor, error) {
	return tensor.Placeholder(alloc, name, shape, dtype)
}

// Scalar creates a one-element Constant.
func Scalar[T Element](alloc *Allocator, v T) *Tensor {
	return tensor.Scalar(alloc, v)
}

// Values evaluates t and returns a copy of its elements.
func Values[T Element](t *Tensor) []T {
	return tensor.Values[T](t)
}

// View returns b's elements without copying.
func View[T Element](b *Buffer) []T {
	return engine.View[T](b)
}
