package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
	"github.com/born-ml/graphite/internal/tensor"
)

const sample = `
parameter "x" {
  dtype  = "float32"
  shape  = [2, 2]
  values = [[1, 2], [3, 4.5]]
}

parameter "mask" {
  dtype  = "bool"
  shape  = [3]
  values = [true, false, true]
}

parameter "offset" {
  dtype  = "int16"
  shape  = [1]
  values = [-7]
}
`

func TestParse(t *testing.T) {
	alloc := engine.NewAllocator()
	got, err := Parse([]byte(sample), "sample.hcl", alloc)
	require.NoError(t, err)
	require.Len(t, got, 3)

	x := got["x"]
	assert.Equal(t, shapes.Float32, x.DType())
	assert.Equal(t, shapes.Shape{2, 2}, x.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4.5}, tensor.Values[float32](x))

	assert.Equal(t, []bool{true, false, true}, tensor.Values[bool](got["mask"]))
	assert.Equal(t, []int16{-7}, tensor.Values[int16](got["offset"]))
	assert.Equal(t, engine.Constant, got["offset"].Operation().Kind())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	got, err := LoadFile(path, engine.NewAllocator())
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.hcl"), engine.NewAllocator())
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `parameter "x" {`},
		{"missing attribute", `parameter "x" { dtype = "int32" shape = [1] }`},
		{"unknown dtype", `parameter "x" { dtype = "complex64" shape = [1] values = [1] }`},
		{"bad shape", `parameter "x" { dtype = "int32" shape = [0] values = [] }`},
		{"count mismatch", `parameter "x" { dtype = "int32" shape = [3] values = [1, 2] }`},
		{"fraction into int", `parameter "x" { dtype = "int32" shape = [1] values = [1.5] }`},
		{"negative into unsigned", `parameter "x" { dtype = "uint8" shape = [1] values = [-1] }`},
		{"out of range", `parameter "x" { dtype = "int8" shape = [1] values = [300] }`},
		{"number into bool", `parameter "x" { dtype = "bool" shape = [1] values = [1] }`},
		{"string value", `parameter "x" { dtype = "int32" shape = [1] values = ["1"] }`},
		{"duplicate", `
parameter "x" { dtype = "int32" shape = [1] values = [1] }
parameter "x" { dtype = "int32" shape = [1] values = [2] }
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl", engine.NewAllocator())
			assert.Error(t, err)
		})
	}
}

func TestParseEmptyFile(t *testing.T) {
	got, err := Parse(nil, "empty.hcl", engine.NewAllocator())
	require.NoError(t, err)
	assert.Empty(t, got)
}
