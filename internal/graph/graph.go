// Package graph turns a built Tensor expression into a reusable template that
// can be replayed with new data for its named Variables.
package graph

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
	"github.com/born-ml/graphite/internal/tensor"
)

// VariableInfo describes the data a named Variable accepts.
type VariableInfo struct {
	Shape shapes.Shape
	DType shapes.DataType
}

// Graph is a private clone of an expression, cut at a set of leaves.
//
// Every cloned interior node writes into its own buffer, so replays never
// observe data from earlier ones. Results returned by Compute are the graph's
// own buffers and are overwritten by the next Compute.
type Graph struct {
	id        uuid.UUID
	alloc     *engine.Allocator
	logger    *slog.Logger
	heads     []*engine.Operation
	variables map[string]*engine.Operation
	nodes     []*engine.Operation // in creation order, operands first
	replays   int
}

// New clones root down to leaves into alloc.
//
// Variables reached by the clone become the graph's parameters. Other
// designated leaves are frozen at their current value, evaluating them if
// needed; the clone does not descend past them. A Constant or designated
// leaf whose data an evaluated in-place operation already replaced yields
// ErrOverwrittenLeaf.
func New(root *tensor.Tensor, leaves []*tensor.Tensor, alloc *engine.Allocator) (*Graph, error) {
	return NewMulti([]*tensor.Tensor{root}, leaves, alloc)
}

// NewMulti is New for several heads sharing one set of Variables.
func NewMulti(roots, leaves []*tensor.Tensor, alloc *engine.Allocator) (*Graph, error) {
	if len(roots) == 0 {
		return nil, errors.New("graph: at least one root is required")
	}

	g := &Graph{
		id:        uuid.New(),
		alloc:     alloc,
		variables: make(map[string]*engine.Operation),
	}
	g.logger = alloc.Logger().With("graph", g.id.String())

	c := &cloner{
		g:      g,
		leaves: make(map[*engine.Operation]*tensor.Tensor, len(leaves)),
		clones: make(map[*engine.Operation]*engine.Operation),
	}
	for _, leaf := range leaves {
		c.leaves[leaf.Operation()] = leaf
	}

	for _, root := range roots {
		head, err := c.clone(root.Operation())
		if err != nil {
			g.Uproot()
			return nil, err
		}
		g.heads = append(g.heads, head)
	}

	g.logger.Debug("graph cloned", "heads", len(g.heads), "nodes", len(g.nodes), "variables", len(g.variables))
	return g, nil
}

// ID returns the graph's identity.
func (g *Graph) ID() uuid.UUID {
	return g.id
}

// Heads returns handles over the cloned roots, in construction order.
func (g *Graph) Heads() []*tensor.Tensor {
	heads := make([]*tensor.Tensor, len(g.heads))
	for i, h := range g.heads {
		heads[i] = tensor.Wrap(h)
	}
	return heads
}

// Variables returns the parameters Compute expects.
func (g *Graph) Variables() map[string]VariableInfo {
	info := make(map[string]VariableInfo, len(g.variables))
	for name, v := range g.variables {
		out := v.Output()
		info[name] = VariableInfo{Shape: out.Shape().Clone(), DType: out.DType()}
	}
	return info
}

// Compute copies params into the graph's Variables and evaluates every head.
//
// The key set of params must equal the Variables' names, and each parameter
// must match its Variable's shape and dtype. Nothing is copied unless every
// parameter is valid.
func (g *Graph) Compute(params map[string]*tensor.Tensor) ([]*engine.Buffer, error) {
	names, err := g.checkNames(params)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		p, dst := params[name], g.variables[name].Output()
		if p == nil {
			return nil, &ParameterError{Name: name, Err: ErrParameterSet, Details: "nil tensor"}
		}
		if p.Overwritten() {
			return nil, &ParameterError{Name: name, Err: ErrOverwrittenLeaf}
		}
		if p.DType() != dst.DType() {
			return nil, &ParameterError{Name: name, Err: ErrParameterDType,
				Details: "got " + p.DType().String() + ", want " + dst.DType().String()}
		}
		if !p.Shape().Equal(dst.Shape()) {
			return nil, &ParameterError{Name: name, Err: ErrParameterShape,
				Details: "got " + p.Shape().String() + ", want " + dst.Shape().String()}
		}
	}

	for _, name := range names {
		g.variables[name].Output().CopyFrom(params[name].Operate())
	}
	for _, op := range g.nodes {
		op.Reset()
	}

	results := make([]*engine.Buffer, len(g.heads))
	for i, h := range g.heads {
		results[i] = tensor.Wrap(h).Operate()
	}

	g.replays++
	g.logger.Debug("graph computed", "replay", g.replays, "parameters", len(names))
	return results, nil
}

// MustCompute is like Compute but panics on error.
func (g *Graph) MustCompute(params map[string]*tensor.Tensor) []*engine.Buffer {
	results, err := g.Compute(params)
	if err != nil {
		panic(errors.WithStack(err))
	}
	return results
}

// Uproot frees every node the graph cloned and their buffers. Nodes outside
// the graph are untouched. The graph is empty afterwards.
func (g *Graph) Uproot() {
	for i := len(g.nodes) - 1; i >= 0; i-- {
		g.alloc.FreeOperation(g.nodes[i])
	}
	g.logger.Debug("graph uprooted", "nodes", len(g.nodes))

	g.nodes = nil
	g.heads = nil
	g.variables = make(map[string]*engine.Operation)
}

func (g *Graph) checkNames(params map[string]*tensor.Tensor) ([]string, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		if _, ok := g.variables[name]; !ok {
			return nil, &ParameterError{Name: name, Err: ErrParameterSet, Details: "not a variable of this graph"}
		}
		names = append(names, name)
	}
	if len(names) != len(g.variables) {
		for name := range g.variables {
			if _, ok := params[name]; !ok {
				return nil, &ParameterError{Name: name, Err: ErrParameterSet, Details: "missing"}
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

type cloner struct {
	g      *Graph
	leaves map[*engine.Operation]*tensor.Tensor
	clones map[*engine.Operation]*engine.Operation
}

func (c *cloner) clone(op *engine.Operation) (*engine.Operation, error) {
	if dup, ok := c.clones[op]; ok {
		return dup, nil
	}

	alloc := c.g.alloc
	leaf, designated := c.leaves[op]

	var dup *engine.Operation
	switch {
	case op.Kind() == engine.Variable:
		dup = alloc.NewOperation(engine.Variable, op.Attributes(), copyOf(alloc, op.Output()))
		c.g.nodes = append(c.g.nodes, dup)
		if _, taken := c.g.variables[op.Name()]; taken {
			return nil, &ParameterError{Name: op.Name(), Err: ErrDuplicateVariable}
		}
		c.g.variables[op.Name()] = dup

	case designated:
		if leaf.Overwritten() {
			return nil, errors.Wrapf(ErrOverwrittenLeaf, "graph: designated %s leaf %v", op.Kind(), op.Output().Shape())
		}
		dup = alloc.NewOperation(engine.Constant, nil, copyOf(alloc, leaf.Operate()))
		c.g.nodes = append(c.g.nodes, dup)

	case op.IsLeaf():
		if tensor.Wrap(op).Overwritten() {
			return nil, errors.Wrapf(ErrOverwrittenLeaf, "graph: %s leaf %v", op.Kind(), op.Output().Shape())
		}
		dup = alloc.NewOperation(engine.Constant, nil, copyOf(alloc, op.Output()))
		c.g.nodes = append(c.g.nodes, dup)

	default:
		operands := make([]*engine.Operation, op.Arity())
		for i := range operands {
			operand, err := c.clone(op.Operand(i))
			if err != nil {
				return nil, err
			}
			operands[i] = operand
		}
		out := alloc.NewBuffer(op.Output().Shape(), op.DType())
		dup = alloc.NewOperation(op.Kind(), op.Attributes(), out, operands...)
		c.g.nodes = append(c.g.nodes, dup)
	}

	c.clones[op] = dup
	return dup, nil
}

// copyOf registers a buffer in alloc holding src's current data.
func copyOf(alloc *engine.Allocator, src *engine.Buffer) *engine.Buffer {
	b := alloc.NewBuffer(src.Shape(), src.DType())
	if src.Initialized() {
		b.CopyFrom(src)
	} else {
		b.Initialize()
	}
	return b
}
