package engine

import (
	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/kernels"
	"github.com/born-ml/graphite/internal/shapes"
)

// computeBinary selects the kernel instantiation for out's dtype.
func computeBinary(op *Operation, a, b, out *Buffer) {
	if a.dtype != out.dtype || b.dtype != out.dtype {
		panic(errors.Errorf("%s: dtype mismatch %s, %s -> %s", op.kind, a.dtype, b.dtype, out.dtype))
	}

	switch out.dtype {
	case shapes.Uint8:
		binary[uint8](op, a, b, out)
	case shapes.Int8:
		binary[int8](op, a, b, out)
	case shapes.Uint16:
		binary[uint16](op, a, b, out)
	case shapes.Int16:
		binary[int16](op, a, b, out)
	case shapes.Uint32:
		binary[uint32](op, a, b, out)
	case shapes.Int32:
		binary[int32](op, a, b, out)
	case shapes.Uint64:
		binary[uint64](op, a, b, out)
	case shapes.Int64:
		binary[int64](op, a, b, out)
	case shapes.Float32:
		binary[float32](op, a, b, out)
	case shapes.Float64:
		binary[float64](op, a, b, out)
	default:
		panic(errors.Errorf("%s: bad data type %s", op.kind, out.dtype))
	}
}

func binary[T shapes.Number](op *Operation, a, b, out *Buffer) {
	dst, x, y := View[T](out), View[T](a), View[T](b)

	switch op.kind {
	case Addition:
		kernels.Add(dst, x, y)
	case Subtraction:
		kernels.Sub(dst, x, y)
	case Multiplication:
		kernels.Mul(dst, x, y)
	case Division:
		kernels.Div(dst, x, y)
	case Power:
		kernels.Pow(dst, x, y)
	case MatrixMultiplication:
		as, bs := a.shape, b.shape
		kernels.MatMul(dst, x, y, as.Leading(2).NumElements(), as.Dim(-2), as.Dim(-1), bs.Dim(-1))
	case Convolution2D:
		attrs := op.attrs.(Conv2DAttrs)
		g, err := kernels.NewConv2DGeometry(a.shape, b.shape, attrs.Stride[0], attrs.Stride[1], attrs.Padding == PaddingSame)
		if err != nil {
			panic(errors.WithStack(err))
		}
		kernels.Conv2D(dst, x, y, g)
	default:
		panic(errors.Errorf("operation: %s is not binary", op.kind))
	}
}

// computeUnary dispatches Cast on the destination dtype and the math kinds
// on the shared float dtype.
func computeUnary(op *Operation, src, out *Buffer) {
	switch op.kind {
	case Cast:
		castInto(src, out)
	case SquareRoot, Exponential:
		if src.dtype != out.dtype {
			panic(errors.Errorf("%s: dtype mismatch %s -> %s", op.kind, src.dtype, out.dtype))
		}
		switch out.dtype {
		case shapes.Float32:
			floatUnary[float32](op.kind, src, out)
		case shapes.Float64:
			floatUnary[float64](op.kind, src, out)
		default:
			panic(errors.Errorf("%s: data type must be floating point, got %s", op.kind, out.dtype))
		}
	default:
		panic(errors.Errorf("operation: %s is not unary", op.kind))
	}
}

func floatUnary[T shapes.Float](kind Kind, src, out *Buffer) {
	if kind == SquareRoot {
		kernels.Sqrt(View[T](out), View[T](src))
		return
	}
	kernels.Exp(View[T](out), View[T](src))
}

func castInto(src, out *Buffer) {
	switch out.dtype {
	case shapes.Uint8:
		castTo[uint8](src, out)
	case shapes.Int8:
		castTo[int8](src, out)
	case shapes.Uint16:
		castTo[uint16](src, out)
	case shapes.Int16:
		castTo[int16](src, out)
	case shapes.Uint32:
		castTo[uint32](src, out)
	case shapes.Int32:
		castTo[int32](src, out)
	case shapes.Uint64:
		castTo[uint64](src, out)
	case shapes.Int64:
		castTo[int64](src, out)
	case shapes.Float32:
		castTo[float32](src, out)
	case shapes.Float64:
		castTo[float64](src, out)
	case shapes.Bool:
		castToBool(src, out)
	default:
		panic(errors.Errorf("cast: bad destination data type %s", out.dtype))
	}
}

func castTo[D shapes.Number](src, out *Buffer) {
	dst := View[D](out)

	switch src.dtype {
	case shapes.Uint8:
		kernels.Convert(dst, View[uint8](src))
	case shapes.Int8:
		kernels.Convert(dst, View[int8](src))
	case shapes.Uint16:
		kernels.Convert(dst, View[uint16](src))
	case shapes.Int16:
		kernels.Convert(dst, View[int16](src))
	case shapes.Uint32:
		kernels.Convert(dst, View[uint32](src))
	case shapes.Int32:
		kernels.Convert(dst, View[int32](src))
	case shapes.Uint64:
		kernels.Convert(dst, View[uint64](src))
	case shapes.Int64:
		kernels.Convert(dst, View[int64](src))
	case shapes.Float32:
		kernels.Convert(dst, View[float32](src))
	case shapes.Float64:
		kernels.Convert(dst, View[float64](src))
	case shapes.Bool:
		kernels.FromBool(dst, View[bool](src))
	default:
		panic(errors.Errorf("cast: bad source data type %s", src.dtype))
	}
}

func castToBool(src, out *Buffer) {
	dst := View[bool](out)

	switch src.dtype {
	case shapes.Uint8:
		kernels.ToBool(dst, View[uint8](src))
	case shapes.Int8:
		kernels.ToBool(dst, View[int8](src))
	case shapes.Uint16:
		kernels.ToBool(dst, View[uint16](src))
	case shapes.Int16:
		kernels.ToBool(dst, View[int16](src))
	case shapes.Uint32:
		kernels.ToBool(dst, View[uint32](src))
	case shapes.Int32:
		kernels.ToBool(dst, View[int32](src))
	case shapes.Uint64:
		kernels.ToBool(dst, View[uint64](src))
	case shapes.Int64:
		kernels.ToBool(dst, View[int64](src))
	case shapes.Float32:
		kernels.ToBool(dst, View[float32](src))
	case shapes.Float64:
		kernels.ToBool(dst, View[float64](src))
	case shapes.Bool:
		copy(dst, View[bool](src))
	default:
		panic(errors.Errorf("cast: bad source data type %s", src.dtype))
	}
}
