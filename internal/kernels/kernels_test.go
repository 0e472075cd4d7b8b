package kernels

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphite/internal/shapes"
)

func TestBinaryScalarBroadcast(t *testing.T) {
	b := []int32{1, 2, 3}

	left := make([]int32, 3)
	Add(left, []int32{5}, b)
	assert.Equal(t, []int32{6, 7, 8}, left)

	right := make([]int32, 3)
	Sub(right, b, []int32{1})
	assert.Equal(t, []int32{0, 1, 2}, right)

	scalarLeft := make([]int32, 3)
	Sub(scalarLeft, []int32{10}, b)
	assert.Equal(t, []int32{9, 8, 7}, scalarLeft)
}

func TestBinaryPositional(t *testing.T) {
	dst := make([]float64, 4)
	Mul(dst, []float64{1, 2, 3, 4}, []float64{2, 2, 0.5, -1})
	assert.Equal(t, []float64{2, 4, 1.5, -4}, dst)

	Div(dst, []float64{1, 2, 3, 4}, []float64{2, 4, 3, 8})
	assert.Equal(t, []float64{0.5, 0.5, 1, 0.5}, dst)
}

func TestBinaryInPlace(t *testing.T) {
	a := []float32{1, 2, 3}
	Add(a, a, []float32{10, 20, 30})
	assert.Equal(t, []float32{11, 22, 33}, a)
}

func TestBinaryLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		Add(make([]int64, 3), []int64{1, 2, 3}, []int64{1, 2})
	})
}

func TestIntegerDivisionTruncates(t *testing.T) {
	dst := make([]int16, 3)
	Div(dst, []int16{7, -7, 9}, []int16{2})
	assert.Equal(t, []int16{3, -3, 4}, dst)
}

func TestPowConvertsThroughDestination(t *testing.T) {
	ints := make([]uint8, 3)
	Pow(ints, []uint8{2, 3, 4}, []uint8{2})
	assert.Equal(t, []uint8{4, 9, 16}, ints)

	floats := make([]float64, 2)
	Pow(floats, []float64{4, 9}, []float64{0.5})
	assert.InDeltaSlice(t, []float64{2, 3}, floats, 1e-12)
}

func TestBroadcastLen(t *testing.T) {
	n, err := BroadcastLen(1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = BroadcastLen(4, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = BroadcastLen(3, 4)
	assert.Error(t, err)
}

func TestMatMul2x2(t *testing.T) {
	a := []int32{1, 1, 1, 1}
	b := []int32{2, 2, 2, 2}
	dst := make([]int32, 4)

	MatMul(dst, a, b, 1, 2, 2, 2)
	assert.Equal(t, []int32{4, 4, 4, 4}, dst)
}

func TestMatMulRectangularBatched(t *testing.T) {
	// Two batches of [2,3] @ [3,1].
	a := []float64{
		1, 2, 3,
		4, 5, 6,

		1, 0, 0,
		0, 1, 0,
	}
	b := []float64{
		1, 1, 1,

		7, 8, 9,
	}
	dst := make([]float64, 4)

	MatMul(dst, a, b, 2, 2, 3, 1)

	if diff := cmp.Diff([]float64{6, 15, 7, 8}, dst); diff != "" {
		t.Errorf("MatMul mismatch (-want +got):\n%s", diff)
	}
}

func TestConv2DValid(t *testing.T) {
	g, err := NewConv2DGeometry(shapes.Shape{3, 3}, shapes.Shape{2, 2}, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.OutH)
	assert.Equal(t, 2, g.OutW)

	image := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	kernel := []float32{1, 1, 1, 1}
	dst := make([]float32, 4)

	Conv2D(dst, image, kernel, g)
	assert.Equal(t, []float32{4, 4, 4, 4}, dst)
}

func TestConv2DFlipsKernel(t *testing.T) {
	g, err := NewConv2DGeometry(shapes.Shape{2, 2}, shapes.Shape{2, 2}, 1, 1, false)
	require.NoError(t, err)

	// A true convolution pairs image[0,0] with kernel[1,1].
	image := []int32{1, 0, 0, 0}
	kernel := []int32{1, 2, 3, 4}
	dst := make([]int32, 1)

	Conv2D(dst, image, kernel, g)
	assert.Equal(t, []int32{4}, dst)
}

func TestConv2DSamePadding(t *testing.T) {
	g, err := NewConv2DGeometry(shapes.Shape{3, 3}, shapes.Shape{3, 3}, 1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, g.PadTop)
	assert.Equal(t, 1, g.PadBottom)
	assert.Equal(t, shapes.Shape{3, 3}, g.OutputShape(shapes.Shape{3, 3}))

	image := []int32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	kernel := []int32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	dst := make([]int32, 9)

	Conv2D(dst, image, kernel, g)
	assert.Equal(t, []int32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}, dst)
}

func TestConv2DSameEvenKernel(t *testing.T) {
	g, err := NewConv2DGeometry(shapes.Shape{3, 3}, shapes.Shape{2, 2}, 1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, g.PadTop)
	assert.Equal(t, 0, g.PadBottom)

	image := []int32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	kernel := []int32{1, 1, 1, 1}
	dst := make([]int32, 9)

	Conv2D(dst, image, kernel, g)
	assert.Equal(t, []int32{
		1, 2, 2,
		2, 4, 4,
		2, 4, 4,
	}, dst)
}

func TestConv2DStrided(t *testing.T) {
	// Valid 2x2 kernel over 4x4 with stride 2: four disjoint windows.
	g, err := NewConv2DGeometry(shapes.Shape{4, 4}, shapes.Shape{2, 2}, 2, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.OutH)
	assert.Equal(t, 2, g.OutW)

	image := []int64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	kernel := []int64{1, 1, 1, 1}
	dst := make([]int64, 4)

	Conv2D(dst, image, kernel, g)
	assert.Equal(t, []int64{4, 8, 12, 16}, dst)
}

func TestConv2DStridedSame(t *testing.T) {
	// Same padding with stride 2 over 3x3: ceil(3/2) = 2 outputs per axis.
	g, err := NewConv2DGeometry(shapes.Shape{3, 3}, shapes.Shape{3, 3}, 2, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, g.OutH)
	assert.Equal(t, 2, g.OutW)

	image := []int32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	kernel := []int32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	dst := make([]int32, 4)

	Conv2D(dst, image, kernel, g)
	assert.Equal(t, []int32{4, 4, 4, 4}, dst)
}

func TestConv2DBatched(t *testing.T) {
	g, err := NewConv2DGeometry(shapes.Shape{2, 2, 2}, shapes.Shape{1, 1}, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Batches)
	assert.Equal(t, shapes.Shape{2, 2, 2}, g.OutputShape(shapes.Shape{2, 2, 2}))

	image := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]float64, 8)

	Conv2D(dst, image, []float64{2}, g)
	assert.Equal(t, []float64{2, 4, 6, 8, 10, 12, 14, 16}, dst)
}

func TestConv2DGeometryErrors(t *testing.T) {
	_, err := NewConv2DGeometry(shapes.Shape{4}, shapes.Shape{2, 2}, 1, 1, false)
	assert.Error(t, err)

	_, err = NewConv2DGeometry(shapes.Shape{4, 4}, shapes.Shape{2, 2, 2}, 1, 1, false)
	assert.Error(t, err)

	_, err = NewConv2DGeometry(shapes.Shape{4, 4}, shapes.Shape{2, 2}, 0, 1, false)
	assert.Error(t, err)

	_, err = NewConv2DGeometry(shapes.Shape{2, 2}, shapes.Shape{3, 3}, 1, 1, false)
	assert.Error(t, err)
}

func TestConvertRoundTrip(t *testing.T) {
	src := []int32{-3, 0, 7, 1000}
	floats := make([]float32, len(src))
	Convert(floats, src)

	back := make([]int32, len(src))
	Convert(back, floats)
	assert.Equal(t, src, back)
}

func TestBoolConversions(t *testing.T) {
	flags := make([]bool, 3)
	ToBool(flags, []float64{0, -2.5, 1})
	assert.Equal(t, []bool{false, true, true}, flags)

	ints := make([]uint16, 3)
	FromBool(ints, flags)
	assert.Equal(t, []uint16{0, 1, 1}, ints)
}

func TestSqrtExp(t *testing.T) {
	dst := make([]float64, 3)
	Sqrt(dst, []float64{0, 4, 2.25})
	assert.Equal(t, []float64{0, 2, 1.5}, dst)

	exp := make([]float32, 2)
	Exp(exp, []float32{0, 1})
	assert.Equal(t, float32(1), exp[0])
	assert.InDelta(t, math.E, float64(exp[1]), 1e-6)
}
