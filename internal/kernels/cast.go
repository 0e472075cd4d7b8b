package kernels

import "github.com/born-ml/graphite/internal/shapes"

// Convert casts src element-by-element into dst using Go conversion rules.
func Convert[D, S shapes.Number](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}

// ToBool maps non-zero elements to true.
func ToBool[S shapes.Number](dst []bool, src []S) {
	for i, v := range src {
		dst[i] = v != 0
	}
}

// FromBool maps true to one and false to zero.
func FromBool[D shapes.Number](dst []D, src []bool) {
	for i, v := range src {
		if v {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}
