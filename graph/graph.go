// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph turns a Tensor expression into a reusable template.
//
// A Graph clones an expression once, down to a set of leaves, and replays it
// with new data for its named Variables:
//
//	x, _ := tensor.Placeholder(alloc, "x", tensor.Shape{2}, tensor.Float32)
//	y := x.Mul(tensor.Scalar(alloc, float32(2)))
//
//	g, _ := graph.New(y, []*tensor.Tensor{x}, alloc)
//	out, err := g.Compute(map[string]*tensor.Tensor{"x": data})
package graph

import (
	"github.com/born-ml/graphite/internal/graph"
	"github.com/born-ml/graphite/tensor"
)

// Graph is a cloned, replayable expression.
type Graph = graph.Graph

// VariableInfo describes the data a named Variable accepts.
type VariableInfo = graph.VariableInfo

// ParameterError reports which parameter failed validation.
type ParameterError = graph.ParameterError

// Errors returned by Compute and New.
var (
	ErrParameterSet      = graph.ErrParameterSet
	ErrParameterShape    = graph.ErrParameterShape
	ErrParameterDType    = graph.ErrParameterDType
	ErrDuplicateVariable = graph.ErrDuplicateVariable
	ErrOverwrittenLeaf   = graph.ErrOverwrittenLeaf
)

// New clones root down to leaves into alloc.
func New(root *tensor.Tensor, leaves []*tensor.Tensor, alloc *tensor.Allocator) (*Graph, error) {
	return graph.New(root, leaves, alloc)
}

// NewMulti clones several roots sharing one set of Variables.
func NewMulti(roots, leaves []*tensor.Tensor, alloc *tensor.Allocator) (*Graph, error) {
	return graph.NewMulti(roots, leaves, alloc)
}
