package kernels

import (
	"math"

	"github.com/born-ml/graphite/internal/shapes"
)

// Sqrt computes dst = sqrt(src). dst may alias src.
func Sqrt[T shapes.Float](dst, src []T) {
	for i, v := range src {
		dst[i] = T(math.Sqrt(float64(v)))
	}
}

// Exp computes dst = exp(src). dst may alias src.
func Exp[T shapes.Float](dst, src []T) {
	for i, v := range src {
		dst[i] = T(math.Exp(float64(v)))
	}
}
