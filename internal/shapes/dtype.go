// Package shapes holds the closed data type table and shape metadata shared by
// every layer of the engine.
package shapes

import "fmt"

// Number is the constraint satisfied by every arithmetic element type.
// Kernels are instantiated once per member.
type Number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// Float is the subset of Number with a floating-point representation.
type Float interface {
	~float32 | ~float64
}

// Element is any type a Buffer can store.
type Element interface {
	Number | ~bool
}

// DataType represents runtime type information for buffers.
type DataType int

// Supported data types.
const (
	Uint8 DataType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float32
	Float64
	Bool
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Uint64:
		return "uint64"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Valid reports whether dt is a member of the table.
func (dt DataType) Valid() bool {
	return dt >= Uint8 && dt <= Bool
}

// IsFloat reports whether dt is Float32 or Float64.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// IsNumeric reports whether arithmetic kernels accept dt.
func (dt DataType) IsNumeric() bool {
	return dt.Valid() && dt != Bool
}

// ParseDataType resolves a name produced by String.
func ParseDataType(name string) (DataType, error) {
	for dt := Uint8; dt <= Bool; dt++ {
		if dt.String() == name {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", name)
}

// Of returns the DataType matching the type parameter.
func Of[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case int8:
		return Int8
	case uint16:
		return Uint16
	case int16:
		return Int16
	case uint32:
		return Uint32
	case int32:
		return Int32
	case uint64:
		return Uint64
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	case bool:
		return Bool
	default:
		panic(fmt.Sprintf("unsupported element type %T", zero))
	}
}
