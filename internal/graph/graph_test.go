package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
	"github.com/born-ml/graphite/internal/tensor"
)

func variable[T shapes.Element](t *testing.T, alloc *engine.Allocator, name string, shape shapes.Shape, values ...T) *tensor.Tensor {
	t.Helper()
	v, err := tensor.NewVariable(alloc, name, shape, values)
	require.NoError(t, err)
	return v
}

func constant[T shapes.Element](t *testing.T, alloc *engine.Allocator, shape shapes.Shape, values ...T) *tensor.Tensor {
	t.Helper()
	c, err := tensor.FromValues(alloc, shape, values)
	require.NoError(t, err)
	return c
}

// affine builds 2x + 1 over a Variable named "x".
func affine(t *testing.T, alloc *engine.Allocator) (*tensor.Tensor, *tensor.Tensor) {
	x := variable[float32](t, alloc, "x", shapes.Shape{2}, 0, 0)
	y := x.Mul(tensor.Scalar(alloc, float32(2))).Add(tensor.Scalar(alloc, float32(1)))
	return x, y
}

func TestComputeReplaysWithoutResidue(t *testing.T) {
	alloc := engine.NewAllocator()
	x, y := affine(t, alloc)

	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)

	data1 := constant[float32](t, alloc, shapes.Shape{2}, 1, 2)
	data2 := constant[float32](t, alloc, shapes.Shape{2}, 10, 20)

	out, err := g.Compute(map[string]*tensor.Tensor{"x": data1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float32{3, 5}, engine.View[float32](out[0]))

	out, err = g.Compute(map[string]*tensor.Tensor{"x": data2})
	require.NoError(t, err)
	assert.Equal(t, []float32{21, 41}, engine.View[float32](out[0]))

	out = g.MustCompute(map[string]*tensor.Tensor{"x": data1})
	assert.Equal(t, []float32{3, 5}, engine.View[float32](out[0]))
}

func TestComputeLeavesParametersUntouched(t *testing.T) {
	alloc := engine.NewAllocator()
	x, y := affine(t, alloc)
	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)

	data := constant[float32](t, alloc, shapes.Shape{2}, 1, 2)
	g.MustCompute(map[string]*tensor.Tensor{"x": data})
	g.MustCompute(map[string]*tensor.Tensor{"x": data})

	assert.Equal(t, []float32{1, 2}, tensor.Values[float32](data))
}

func TestVariables(t *testing.T) {
	alloc := engine.NewAllocator()
	x, y := affine(t, alloc)
	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)

	assert.Equal(t, map[string]VariableInfo{
		"x": {Shape: shapes.Shape{2}, DType: shapes.Float32},
	}, g.Variables())
}

func TestComputeValidatesParameters(t *testing.T) {
	alloc := engine.NewAllocator()
	x, y := affine(t, alloc)
	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)

	good := constant[float32](t, alloc, shapes.Shape{2}, 1, 2)
	tests := []struct {
		name   string
		params map[string]*tensor.Tensor
		want   error
		param  string
	}{
		{"missing", map[string]*tensor.Tensor{}, ErrParameterSet, "x"},
		{"unknown", map[string]*tensor.Tensor{"x": good, "z": good}, ErrParameterSet, "z"},
		{"renamed", map[string]*tensor.Tensor{"w": good}, ErrParameterSet, "w"},
		{"shape", map[string]*tensor.Tensor{"x": constant[float32](t, alloc, shapes.Shape{1, 2}, 1, 2)}, ErrParameterShape, "x"},
		{"dtype", map[string]*tensor.Tensor{"x": constant[float64](t, alloc, shapes.Shape{2}, 1, 2)}, ErrParameterDType, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Compute(tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var perr *ParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.param, perr.Name)

			assert.Panics(t, func() { g.MustCompute(tt.params) })
		})
	}
}

func TestDuplicateVariableNames(t *testing.T) {
	alloc := engine.NewAllocator()
	a := variable[int32](t, alloc, "x", shapes.Shape{1}, 1)
	b := variable[int32](t, alloc, "x", shapes.Shape{1}, 2)
	sum := a.Add(b)

	before := alloc.LiveOperations()
	_, err := New(sum, []*tensor.Tensor{a, b}, alloc)
	require.ErrorIs(t, err, ErrDuplicateVariable)
	assert.Equal(t, before, alloc.LiveOperations(), "partial clone is freed")
}

func TestNoRoots(t *testing.T) {
	_, err := NewMulti(nil, nil, engine.NewAllocator())
	assert.Error(t, err)
}

func TestDesignatedInteriorLeafIsFrozen(t *testing.T) {
	alloc := engine.NewAllocator()
	a := constant[float64](t, alloc, shapes.Shape{2}, 0, 1)
	h := a.Mul(tensor.Scalar(alloc, 3.0))
	x := variable[float64](t, alloc, "x", shapes.Shape{2}, 0, 0)
	y := h.Add(x)

	before := alloc.LiveOperations()
	g, err := New(y, []*tensor.Tensor{h, x}, alloc)
	require.NoError(t, err)
	assert.Equal(t, before+3, alloc.LiveOperations(), "frozen leaf, variable and sum")

	out := g.MustCompute(map[string]*tensor.Tensor{"x": constant[float64](t, alloc, shapes.Shape{2}, 1, 1)})
	assert.Equal(t, []float64{1, 4}, engine.View[float64](out[0]))
}

func TestSharedNodeClonedOnce(t *testing.T) {
	alloc := engine.NewAllocator()
	x := variable[int64](t, alloc, "x", shapes.Shape{1}, 0)
	sq := x.Mul(x)

	before := alloc.LiveOperations()
	g, err := New(sq, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)
	assert.Equal(t, before+2, alloc.LiveOperations())

	out := g.MustCompute(map[string]*tensor.Tensor{"x": constant[int64](t, alloc, shapes.Shape{1}, 7)})
	assert.Equal(t, []int64{49}, engine.View[int64](out[0]))
}

func TestNewMultiSharesVariables(t *testing.T) {
	alloc := engine.NewAllocator()
	x := variable[float32](t, alloc, "x", shapes.Shape{2}, 0, 0)
	w := constant[float32](t, alloc, shapes.Shape{2}, 3, 4)
	sum := x.Add(w)
	product := x.Mul(w)

	g, err := NewMulti([]*tensor.Tensor{sum, product}, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)
	assert.Len(t, g.Variables(), 1)

	out := g.MustCompute(map[string]*tensor.Tensor{"x": constant[float32](t, alloc, shapes.Shape{2}, 1, 2)})
	require.Len(t, out, 2)
	assert.Equal(t, []float32{4, 6}, engine.View[float32](out[0]))
	assert.Equal(t, []float32{3, 8}, engine.View[float32](out[1]))

	heads := g.Heads()
	require.Len(t, heads, 2)
	assert.Equal(t, "[ 3 8 ]\n", heads[1].String())
}

func TestUprootFreesOnlyClones(t *testing.T) {
	alloc := engine.NewAllocator()
	x, y := affine(t, alloc)

	ops, bufs := alloc.LiveOperations(), alloc.LiveBuffers()
	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)
	g.MustCompute(map[string]*tensor.Tensor{"x": constant[float32](t, alloc, shapes.Shape{2}, 1, 1)})

	// The parameter constant above stays live.
	g.Uproot()
	assert.Equal(t, ops+1, alloc.LiveOperations())
	assert.Equal(t, bufs+1, alloc.LiveBuffers())
	assert.Empty(t, g.Variables())

	assert.Equal(t, []float32{1, 1}, tensor.Values[float32](y))
}

func TestCloneIntoSeparateAllocator(t *testing.T) {
	src, dst := engine.NewAllocator(), engine.NewAllocator()
	x, y := affine(t, src)

	g, err := New(y, []*tensor.Tensor{x}, dst)
	require.NoError(t, err)
	assert.Equal(t, 5, dst.LiveOperations())

	out := g.MustCompute(map[string]*tensor.Tensor{"x": constant[float32](t, src, shapes.Shape{2}, 2, 3)})
	assert.Equal(t, []float32{5, 7}, engine.View[float32](out[0]))

	g.Uproot()
	assert.Zero(t, dst.LiveOperations())
	assert.Zero(t, dst.LiveBuffers())
}

func TestNewRejectsOverwrittenConstant(t *testing.T) {
	alloc := engine.NewAllocator()
	c := constant[float32](t, alloc, shapes.Shape{2}, 1, 2)
	x := variable[float32](t, alloc, "x", shapes.Shape{2}, 5, 5)
	y := c.Add(x)

	// Evaluating the template writes the sum into c's buffer.
	require.Equal(t, []float32{6, 7}, tensor.Values[float32](y))

	before := alloc.LiveOperations()
	_, err := New(y, []*tensor.Tensor{x}, alloc)
	require.ErrorIs(t, err, ErrOverwrittenLeaf)
	assert.Equal(t, before, alloc.LiveOperations(), "partial clone is freed")
}

func TestNewBeforeEvaluationKeepsConstant(t *testing.T) {
	alloc := engine.NewAllocator()
	c := constant[float32](t, alloc, shapes.Shape{2}, 1, 2)
	x := variable[float32](t, alloc, "x", shapes.Shape{2}, 5, 5)
	y := c.Add(x)

	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)
	out := g.MustCompute(map[string]*tensor.Tensor{"x": constant[float32](t, alloc, shapes.Shape{2}, 10, 20)})
	assert.Equal(t, []float32{11, 22}, engine.View[float32](out[0]))

	// The template itself still evaluates from its own data.
	assert.Equal(t, []float32{6, 7}, tensor.Values[float32](y))
}

func TestNewRejectsOverwrittenDesignatedLeaf(t *testing.T) {
	alloc := engine.NewAllocator()
	a := constant[float64](t, alloc, shapes.Shape{2}, 1, 2)
	h := a.Exp()
	h.Operate()
	// Consuming h in place replaces its value once evaluated.
	next := h.Mul(tensor.Scalar(alloc, 2.0))
	next.Operate()

	_, err := New(h, []*tensor.Tensor{h}, alloc)
	require.ErrorIs(t, err, ErrOverwrittenLeaf)
}

func TestComputeRejectsNilParameter(t *testing.T) {
	alloc := engine.NewAllocator()
	x, y := affine(t, alloc)
	g, err := New(y, []*tensor.Tensor{x}, alloc)
	require.NoError(t, err)

	_, err = g.Compute(map[string]*tensor.Tensor{"x": nil})
	require.ErrorIs(t, err, ErrParameterSet)

	var perr *ParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "x", perr.Name)
}
