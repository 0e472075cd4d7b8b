package kernels

import "github.com/born-ml/graphite/internal/shapes"

// MatMul performs naive batched matrix multiplication.
//
// a holds batches matrices of [rows, inner], b holds batches matrices of
// [inner, cols] and dst receives batches matrices of [rows, cols], all
// row-major and packed back to back:
//
//	dst[n, r, c] = sum_v a[n, r, v] * b[n, v, c]
//
// dst must not alias a or b.
func MatMul[T shapes.Number](dst, a, b []T, batches, rows, inner, cols int) {
	aSize := rows * inner
	bSize := inner * cols
	outSize := rows * cols

	for n := 0; n < batches; n++ {
		aOff := n * aSize
		bOff := n * bSize
		outOff := n * outSize

		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				var sum T
				for v := 0; v < inner; v++ {
					sum += a[aOff+r*inner+v] * b[bOff+v*cols+c]
				}
				dst[outOff+r*cols+c] = sum
			}
		}
	}
}
