// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public entry point of the Graphite tensor engine.
//
// # Overview
//
// Graphite builds directed acyclic graphs of typed numeric operations over
// flat buffers. Building a graph computes nothing; Operate evaluates a Tensor
// bottom-up and returns its buffer. Every buffer and operation belongs to an
// Allocator, which tracks statistics and frees memory only when asked.
//
// # Basic Usage
//
//	import "github.com/born-ml/graphite/tensor"
//
//	func main() {
//	    alloc := tensor.NewAllocator()
//	    defer alloc.Uproot()
//
//	    ones, _ := tensor.FromValues(alloc, tensor.Shape{2, 2}, []float32{1, 1, 1, 1})
//	    twos, _ := tensor.FromValues(alloc, tensor.Shape{2, 2}, []float32{2, 2, 2, 2})
//
//	    product := ones.MatMul(twos)
//	    fmt.Print(product) // [ 4 4 ]
//	                       // [ 4 4 ]
//	}
//
// # Supported Data Types
//
//   - uint8, int8, uint16, int16, uint32, int32, uint64, int64
//   - float32, float64
//   - bool (Cast only; arithmetic rejects it)
//
// # Broadcasting
//
// Element-wise operations broadcast a one-element operand against the other
// operand. Any other pair of operands must have equal element counts.
//
// # Buffer Reuse
//
// Operations write in place where that is safe. The first operation to
// consume a Tensor that nothing else reads takes over its buffer, so no
// memory is allocated. Once a buffer has been taken over and evaluated, the
// original Tensor may no longer be consumed or read: both panic. Build every
// use of a Tensor before operating on the result, and check Overwritten when
// in doubt.
//
// # Memory
//
// Tensors are light handles and never free anything when dropped. Release a
// subgraph with Tensor.Uproot, or everything with Allocator.Uproot.
package tensor
