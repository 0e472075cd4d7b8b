package tensor

import (
	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/kernels"
	"github.com/born-ml/graphite/internal/shapes"
)

// Add returns t + other. Either operand may be a one-element scalar.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.elementwise(engine.Addition, other)
}

// Sub returns t - other.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.elementwise(engine.Subtraction, other)
}

// Mul returns t * other.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return t.elementwise(engine.Multiplication, other)
}

// Div returns t / other. Integer division truncates.
func (t *Tensor) Div(other *Tensor) *Tensor {
	return t.elementwise(engine.Division, other)
}

// Pow returns t raised to other, converted back to t's dtype.
func (t *Tensor) Pow(other *Tensor) *Tensor {
	return t.elementwise(engine.Power, other)
}

// MatMul multiplies the trailing two dimensions of t and other as row-major
// matrices, one product per leading batch index.
//
// Both operands need the same rank (at least 2), the same leading dimensions
// and t[-1] == other[-2].
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	mustShareAllocator(engine.MatrixMultiplication, t, other)
	mustMatchNumeric(engine.MatrixMultiplication, t, other)

	as, bs := t.Shape(), other.Shape()
	if as.Rank() < 2 || as.Rank() != bs.Rank() {
		panic(errors.Errorf("matmul: operands must share a rank of at least 2, got %v and %v", as, bs))
	}
	if !as.Leading(2).Equal(bs.Leading(2)) {
		panic(errors.Errorf("matmul: batch dimensions differ, got %v and %v", as, bs))
	}
	if as.Dim(-1) != bs.Dim(-2) {
		panic(errors.Errorf("matmul: inner dimensions differ, got %v and %v", as, bs))
	}

	shape := append(as.Leading(2).Clone(), as.Dim(-2), bs.Dim(-1))
	return derive(engine.MatrixMultiplication, nil, shape, t.dtype, false, t, other)
}

// Conv2D convolves the trailing two dimensions of t with a 2D kernel. Leading
// dimensions of t are batches sharing the kernel.
func (t *Tensor) Conv2D(kernel *Tensor, stride [2]int, padding engine.Padding) *Tensor {
	mustShareAllocator(engine.Convolution2D, t, kernel)
	mustMatchNumeric(engine.Convolution2D, t, kernel)

	g, err := kernels.NewConv2DGeometry(t.Shape(), kernel.Shape(), stride[0], stride[1], padding == engine.PaddingSame)
	if err != nil {
		panic(errors.WithStack(err))
	}

	attrs := engine.Conv2DAttrs{Stride: stride, Padding: padding}
	return derive(engine.Convolution2D, attrs, g.OutputShape(t.Shape()), t.dtype, false, t, kernel)
}

// Cast converts every element to dtype. It always gets a fresh buffer.
func (t *Tensor) Cast(dtype shapes.DataType) *Tensor {
	if !dtype.Valid() {
		panic(errors.Errorf("cast: bad data type %d", int(dtype)))
	}
	return derive(engine.Cast, nil, t.Shape(), dtype, false, t)
}

// Sqrt returns the element-wise square root. t must be floating point.
func (t *Tensor) Sqrt() *Tensor {
	return t.floatUnary(engine.SquareRoot)
}

// Exp returns e raised to each element. t must be floating point.
func (t *Tensor) Exp() *Tensor {
	return t.floatUnary(engine.Exponential)
}

func (t *Tensor) floatUnary(kind engine.Kind) *Tensor {
	if !t.dtype.IsFloat() {
		panic(errors.Errorf("%s: data type must be floating point, got %s", kind, t.dtype))
	}
	return derive(kind, nil, t.Shape(), t.dtype, true, t)
}

func (t *Tensor) elementwise(kind engine.Kind, other *Tensor) *Tensor {
	mustShareAllocator(kind, t, other)
	mustMatchNumeric(kind, t, other)

	n, err := kernels.BroadcastLen(t.NumElements(), other.NumElements())
	if err != nil {
		panic(errors.Wrapf(err, "%s: shapes %v and %v", kind, t.Shape(), other.Shape()))
	}
	shape := t.Shape()
	if t.NumElements() != n {
		shape = other.Shape()
	}
	return derive(kind, nil, shape, t.dtype, true, t, other)
}

func mustShareAllocator(kind engine.Kind, a, b *Tensor) {
	if a.alloc != b.alloc {
		panic(errors.Errorf("%s: allocator mismatch, %s vs %s", kind, a.alloc.ID(), b.alloc.ID()))
	}
}

func mustMatchNumeric(kind engine.Kind, a, b *Tensor) {
	if a.dtype != b.dtype {
		panic(errors.Errorf("%s: dtype mismatch, %s vs %s", kind, a.dtype, b.dtype))
	}
	if !a.dtype.IsNumeric() {
		panic(errors.Errorf("%s: data type must be numeric, got %s", kind, a.dtype))
	}
}

// derive registers a node of kind over parents and picks its output buffer.
//
// When inPlace is set the node may write into a parent's buffer: a parent no
// other operation reads is aliased directly; otherwise a parent that alone
// writes its buffer hands that buffer over and keeps a private copy. Every
// other already-read parent whose buffer another operation writes is moved to
// a private copy first, so in-place writes never reach a value someone else
// still needs.
func derive(kind engine.Kind, attrs engine.Attributes, shape shapes.Shape, dtype shapes.DataType, inPlace bool, parents ...*Tensor) *Tensor {
	alloc := parents[0].alloc

	var donor *Tensor
	if inPlace {
		donor = pickDonor(shape.NumElements(), dtype, parents)
	}
	if len(parents) == 2 && parents[0] == parents[1] {
		parents[0].children++
	}
	for _, p := range parents {
		if p != donor {
			p.detach()
		}
	}

	var out *engine.Buffer
	if donor != nil {
		out = donor.op.Output()
	} else {
		out = alloc.NewBuffer(shape, dtype)
	}

	operands := make([]*engine.Operation, len(parents))
	for i, p := range parents {
		operands[i] = p.op
	}
	op := alloc.NewOperation(kind, attrs, out, operands...)

	if donor != nil {
		donor.children++
		// Readers other than op keep seeing the donor's value.
		if donor.op.Consumers() > 1 {
			donor.mustBeIntact()
			alloc.Detach(donor.op)
		}
	}

	return &Tensor{op: op, alloc: alloc, dtype: dtype}
}

// pickDonor chooses the parent whose buffer the new node takes over, larger
// parent first. Only parents matching the output size and dtype qualify.
func pickDonor(n int, dtype shapes.DataType, parents []*Tensor) *Tensor {
	if len(parents) == 2 && parents[0] == parents[1] {
		return nil
	}

	candidates := make([]*Tensor, 0, len(parents))
	for _, p := range parents {
		if p.NumElements() == n && p.dtype == dtype {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 2 && candidates[1].NumElements() > candidates[0].NumElements() {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}

	for _, c := range candidates {
		if c.op.Consumers() == 0 {
			return c
		}
	}
	for _, c := range candidates {
		if c.op.Output().Owners() == 1 {
			return c
		}
	}
	return nil
}

// detach moves t onto a private copy of its buffer when t is already read by
// another operation and some other operation also writes that buffer.
func (t *Tensor) detach() {
	out := t.op.Output()
	if t.op.Consumers() == 0 || out.Owners() < 2 {
		return
	}
	t.mustBeIntact()
	t.alloc.Detach(t.op)
}

// Overwritten reports whether t's value was replaced by an evaluated
// operation that wrote into t's buffer in place.
func (t *Tensor) Overwritten() bool {
	b := t.op.Output()
	if !b.Initialized() {
		return false
	}
	if t.op.IsLeaf() {
		return !b.Writer().IsZero()
	}
	return t.op.Computed() && b.Writer() != t.op.ID()
}

func (t *Tensor) mustBeIntact() {
	if t.Overwritten() {
		panic(errors.Errorf("tensor: %s %v was overwritten in place by an evaluated operation; derive every use before operating",
			t.op.Kind(), t.Shape()))
	}
}
