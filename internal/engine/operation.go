package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/shapes"
)

// Kind tags the closed set of operation variants.
type Kind uint8

// Operation kinds.
const (
	Constant Kind = iota
	Variable
	Addition
	Subtraction
	Multiplication
	Division
	Power
	MatrixMultiplication
	Convolution2D
	Cast
	SquareRoot
	Exponential
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Addition:
		return "addition"
	case Subtraction:
		return "subtraction"
	case Multiplication:
		return "multiplication"
	case Division:
		return "division"
	case Power:
		return "power"
	case MatrixMultiplication:
		return "matmul"
	case Convolution2D:
		return "conv2d"
	case Cast:
		return "cast"
	case SquareRoot:
		return "sqrt"
	case Exponential:
		return "exp"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Arity returns the number of operands the kind takes.
func (k Kind) Arity() int {
	switch k {
	case Constant, Variable:
		return 0
	case Cast, SquareRoot, Exponential:
		return 1
	case Addition, Subtraction, Multiplication, Division, Power, MatrixMultiplication, Convolution2D:
		return 2
	default:
		panic(errors.Errorf("operation: unknown kind %d", uint8(k)))
	}
}

// Elementwise reports whether the kind combines operands position by position.
func (k Kind) Elementwise() bool {
	switch k {
	case Addition, Subtraction, Multiplication, Division, Power, SquareRoot, Exponential:
		return true
	default:
		return false
	}
}

// Attributes carries the fields only some kinds have.
type Attributes interface {
	attributes()
}

// VariableAttrs names a substitutable input.
type VariableAttrs struct {
	Name string
}

func (VariableAttrs) attributes() {}

// Padding selects how Conv2D treats the image border.
type Padding uint8

// Padding modes.
const (
	PaddingValid Padding = iota
	PaddingSame
)

// String returns "valid" or "same".
func (p Padding) String() string {
	if p == PaddingSame {
		return "same"
	}
	return "valid"
}

// ParsePadding resolves "same" or "valid".
func ParsePadding(s string) (Padding, error) {
	switch s {
	case "valid":
		return PaddingValid, nil
	case "same":
		return PaddingSame, nil
	default:
		return 0, fmt.Errorf("unknown padding %q (want \"same\" or \"valid\")", s)
	}
}

// Conv2DAttrs holds the stride pair and padding mode of a convolution.
type Conv2DAttrs struct {
	Stride  [2]int
	Padding Padding
}

func (Conv2DAttrs) attributes() {}

// Operation is one graph node: a kind, up to two operands and one output
// buffer. Operations are created through Allocator.NewOperation.
type Operation struct {
	id        OpID
	alloc     *Allocator
	kind      Kind
	attrs     Attributes
	operands  []OpID
	output    BufferID
	computed  bool
	consumers int // live operations reading this one
}

// NewOperation registers an operation of kind over operands, writing into out.
// Operand count must match the kind's arity. out's dtype is the operation's dtype.
func (a *Allocator) NewOperation(kind Kind, attrs Attributes, out *Buffer, operands ...*Operation) *Operation {
	if len(operands) != kind.Arity() {
		panic(errors.Errorf("operation: %s takes %d operands, got %d", kind, kind.Arity(), len(operands)))
	}
	if !a.OwnsBuffer(out) {
		panic(errors.Errorf("operation: %s output buffer is not live in this allocator", kind))
	}
	switch kind {
	case Variable:
		if _, ok := attrs.(VariableAttrs); !ok {
			panic(errors.Errorf("operation: variable requires VariableAttrs, got %T", attrs))
		}
	case Convolution2D:
		if _, ok := attrs.(Conv2DAttrs); !ok {
			panic(errors.Errorf("operation: conv2d requires Conv2DAttrs, got %T", attrs))
		}
	default:
		if attrs != nil {
			panic(errors.Errorf("operation: %s takes no attributes, got %T", kind, attrs))
		}
	}

	op := &Operation{
		alloc:  a,
		kind:   kind,
		attrs:  attrs,
		output: out.id,
	}
	for _, parent := range operands {
		if !a.OwnsOperation(parent) {
			panic(errors.Errorf("operation: %s operand is not live in this allocator", kind))
		}
		parent.consumers++
		op.operands = append(op.operands, parent.id)
	}
	out.owners++

	op.id = OpID{a.ops.insert(op)}
	a.charge(operationHeaderSize)
	return op
}

// ID returns the operation's arena handle.
func (op *Operation) ID() OpID {
	return op.id
}

// Allocator returns the owning allocator.
func (op *Operation) Allocator() *Allocator {
	return op.alloc
}

// Kind returns the variant tag.
func (op *Operation) Kind() Kind {
	return op.kind
}

// Attributes returns the variant-specific fields, or nil.
func (op *Operation) Attributes() Attributes {
	return op.attrs
}

// Name returns a Variable's name, or "" for other kinds.
func (op *Operation) Name() string {
	if v, ok := op.attrs.(VariableAttrs); ok {
		return v.Name
	}
	return ""
}

// Arity returns the number of operands.
func (op *Operation) Arity() int {
	return len(op.operands)
}

// Operand resolves operand i. Panics if it has been freed.
func (op *Operation) Operand(i int) *Operation {
	parent, ok := op.alloc.ops.get(op.operands[i].handle)
	if !ok {
		panic(errors.Errorf("operation: %s operand %d is no longer alive", op.kind, i))
	}
	return parent
}

// Output resolves the output buffer. Panics if it has been freed.
func (op *Operation) Output() *Buffer {
	b, ok := op.alloc.buffers.get(op.output.handle)
	if !ok {
		panic(errors.Errorf("operation: %s output buffer is no longer alive", op.kind))
	}
	return b
}

// DType returns the output element type.
func (op *Operation) DType() shapes.DataType {
	return op.Output().dtype
}

// Computed reports whether the output reflects the latest inputs.
func (op *Operation) Computed() bool {
	return op.computed
}

// Reset clears the computed flag so the next evaluation recomputes op.
func (op *Operation) Reset() {
	op.computed = false
}

// Consumers returns how many live operations read op.
func (op *Operation) Consumers() int {
	return op.consumers
}

// IsLeaf reports whether op is a Constant or Variable.
func (op *Operation) IsLeaf() bool {
	return op.kind.Arity() == 0
}

// Operate recursively computes every operand, then op itself, and returns
// the output. Leaves and computed operations return their buffer unchanged;
// call Reset to compute again.
func (op *Operation) Operate() *Buffer {
	if op.IsLeaf() || op.computed {
		return op.Output()
	}
	inputs := make([]*Buffer, len(op.operands))
	for i := range op.operands {
		inputs[i] = op.Operand(i).Operate()
	}
	return op.Compute(inputs...)
}

// Compute fills op's output from already computed operand buffers and marks
// op computed. Leaves return their buffer unchanged.
func (op *Operation) Compute(inputs ...*Buffer) *Buffer {
	out := op.Output()
	if op.IsLeaf() {
		op.computed = true
		return out
	}
	if len(inputs) != len(op.operands) {
		panic(errors.Errorf("operation: %s computes from %d buffers, got %d", op.kind, len(op.operands), len(inputs)))
	}

	out.Initialize()
	if len(inputs) == 1 {
		computeUnary(op, inputs[0], out)
	} else {
		computeBinary(op, inputs[0], inputs[1], out)
	}
	out.writer = op.id
	op.computed = true
	return out
}
