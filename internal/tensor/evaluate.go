package tensor

import (
	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/engine"
)

// step is one entry of the leaves-first order. Expanded steps consume their
// operands' results; the rest contribute their buffer as is.
type step struct {
	op       *engine.Operation
	expanded bool
}

// frame is a node whose operands are still being ordered.
type frame struct {
	op   *engine.Operation
	next int
}

// Operate evaluates t bottom-up and returns its output buffer.
//
// The first pass walks operand links from t and records every node after its
// operands. A node reached along several paths is expanded on the first one
// and referenced on the rest. The second pass replays that order against a
// results stack. Computed nodes are not descended into and are not
// recomputed.
//
// Operate panics when t's value was already overwritten in place by an
// evaluated descendant.
func (t *Tensor) Operate() *engine.Buffer {
	t.mustBeIntact()
	if t.op.IsLeaf() || t.op.Computed() {
		return t.op.Output()
	}
	return evaluate(t.op)
}

func evaluate(root *engine.Operation) *engine.Buffer {
	var order []step
	seen := map[engine.OpID]bool{root.ID(): true}
	frames := []frame{{op: root}}
	for len(frames) > 0 {
		top := &frames[len(frames)-1]
		if top.next == top.op.Arity() {
			order = append(order, step{op: top.op, expanded: true})
			frames = frames[:len(frames)-1]
			continue
		}

		operand := top.op.Operand(top.next)
		top.next++
		if operand.IsLeaf() || operand.Computed() || seen[operand.ID()] {
			order = append(order, step{op: operand})
			continue
		}
		seen[operand.ID()] = true
		frames = append(frames, frame{op: operand})
	}

	results := make([]*engine.Buffer, 0, len(order))
	for _, s := range order {
		if !s.expanded {
			results = append(results, s.op.Output())
			continue
		}

		n := s.op.Arity()
		if len(results) < n {
			panic(errors.Errorf("evaluate: %s needs %d operand results, %d ready", s.op.Kind(), n, len(results)))
		}
		inputs := make([]*engine.Buffer, n)
		copy(inputs, results[len(results)-n:])
		results = results[:len(results)-n]
		results = append(results, s.op.Compute(inputs...))
	}

	if len(results) != 1 {
		panic(errors.Errorf("evaluate: %d results left, want 1", len(results)))
	}
	return results[0]
}
