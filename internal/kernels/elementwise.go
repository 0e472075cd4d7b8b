// Package kernels implements the numeric compute kernels of the engine.
//
// Kernels work on typed slices and plain integer geometry, never on buffers,
// so every kernel is a single generic function instantiated per element type.
// Callers select the instantiation once per call from the DataType table.
//
// Broadcasting is limited to the scalar case: a one-element operand combines
// with every element of the other operand.
package kernels

import (
	"fmt"
	"math"

	"github.com/born-ml/graphite/internal/shapes"
)

// Binary applies fn positionally over a and b and writes into dst.
// dst may alias a or b.
func Binary[T shapes.Number](dst, a, b []T, fn func(x, y T) T) {
	switch {
	case len(a) == 1:
		x := a[0]
		for i, y := range b {
			dst[i] = fn(x, y)
		}
	case len(b) == 1:
		y := b[0]
		for i, x := range a {
			dst[i] = fn(x, y)
		}
	default:
		if len(a) != len(b) {
			panic(fmt.Sprintf("elementwise: operand length mismatch %d vs %d", len(a), len(b)))
		}
		for i := range a {
			dst[i] = fn(a[i], b[i])
		}
	}
}

// BroadcastLen returns the element count produced by combining operands of
// lengths n and m, or an error when neither is a scalar and they differ.
func BroadcastLen(n, m int) (int, error) {
	switch {
	case n == m:
		return n, nil
	case n == 1:
		return m, nil
	case m == 1:
		return n, nil
	default:
		return 0, fmt.Errorf("element counts %d and %d are neither equal nor scalar", n, m)
	}
}

// Add computes dst = a + b.
func Add[T shapes.Number](dst, a, b []T) {
	Binary(dst, a, b, func(x, y T) T { return x + y })
}

// Sub computes dst = a - b.
func Sub[T shapes.Number](dst, a, b []T) {
	Binary(dst, a, b, func(x, y T) T { return x - y })
}

// Mul computes dst = a * b.
func Mul[T shapes.Number](dst, a, b []T) {
	Binary(dst, a, b, func(x, y T) T { return x * y })
}

// Div computes dst = a / b in the element type's arithmetic.
// Integer division by zero panics.
func Div[T shapes.Number](dst, a, b []T) {
	Binary(dst, a, b, func(x, y T) T { return x / y })
}

// Pow computes dst = a ** b through float64 and converts back to T.
func Pow[T shapes.Number](dst, a, b []T) {
	Binary(dst, a, b, func(x, y T) T { return T(math.Pow(float64(x), float64(y))) })
}
