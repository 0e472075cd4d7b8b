package shapes

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents the dimensions of a buffer, outermost first.
type Shape []int

// NumElements returns the product of all dimensions.
// An empty shape describes a scalar and has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Dim returns the dimension at axis, counting from the end when axis is negative.
func (s Shape) Dim(axis int) int {
	if axis < 0 {
		axis += len(s)
	}
	return s[axis]
}

// Leading returns the dimensions before the trailing n axes.
func (s Shape) Leading(n int) Shape {
	if n >= len(s) {
		return Shape{}
	}
	return s[:len(s)-n]
}

// String formats the shape as [d0 d1 ...].
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
