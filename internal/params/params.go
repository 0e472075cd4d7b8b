// Package params decodes HCL parameter files into named leaf Tensors, ready
// to pass to Graph.Compute.
//
// A file holds any number of parameter blocks:
//
//	parameter "x" {
//	  dtype  = "float32"
//	  shape  = [2, 2]
//	  values = [[1, 2], [3, 4]]
//	}
//
// Values may be nested to any depth; they are read in row-major order.
package params

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
	"github.com/born-ml/graphite/internal/tensor"
)

type hclFile struct {
	Parameters []*hclParameter `hcl:"parameter,block"`
}

type hclParameter struct {
	Name   string    `hcl:"name,label"`
	DType  string    `hcl:"dtype"`
	Shape  []int     `hcl:"shape"`
	Values cty.Value `hcl:"values"`
}

// LoadFile parses the HCL file at path into Constants registered in alloc.
func LoadFile(path string, alloc *engine.Allocator) (map[string]*tensor.Tensor, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, diags)
	}
	return decode(path, file.Body, alloc)
}

// Parse is LoadFile for in-memory source. filename is used in diagnostics.
func Parse(src []byte, filename string, alloc *engine.Allocator) (map[string]*tensor.Tensor, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", filename, diags)
	}
	return decode(filename, file.Body, alloc)
}

func decode(filename string, body hcl.Body, alloc *engine.Allocator) (map[string]*tensor.Tensor, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode parameter file %s: %w", filename, diags)
	}

	out := make(map[string]*tensor.Tensor, len(parsed.Parameters))
	for _, p := range parsed.Parameters {
		if _, dup := out[p.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate parameter %q", filename, p.Name)
		}
		t, err := p.tensor(alloc)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", filename, p.Name, err)
		}
		out[p.Name] = t
	}

	alloc.Logger().Debug("loaded parameters", "file", filename, "count", len(out))
	return out, nil
}

func (p *hclParameter) tensor(alloc *engine.Allocator) (*tensor.Tensor, error) {
	dtype, err := shapes.ParseDataType(p.DType)
	if err != nil {
		return nil, err
	}
	shape := shapes.Shape(p.Shape)
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	elems, err := flatten(p.Values, nil)
	if err != nil {
		return nil, err
	}
	if len(elems) != shape.NumElements() {
		return nil, fmt.Errorf("shape %v requires %d values, but got %d", shape, shape.NumElements(), len(elems))
	}

	switch dtype {
	case shapes.Uint8:
		return build[uint8](alloc, shape, elems)
	case shapes.Int8:
		return build[int8](alloc, shape, elems)
	case shapes.Uint16:
		return build[uint16](alloc, shape, elems)
	case shapes.Int16:
		return build[int16](alloc, shape, elems)
	case shapes.Uint32:
		return build[uint32](alloc, shape, elems)
	case shapes.Int32:
		return build[int32](alloc, shape, elems)
	case shapes.Uint64:
		return build[uint64](alloc, shape, elems)
	case shapes.Int64:
		return build[int64](alloc, shape, elems)
	case shapes.Float32:
		return build[float32](alloc, shape, elems)
	case shapes.Float64:
		return build[float64](alloc, shape, elems)
	case shapes.Bool:
		return build[bool](alloc, shape, elems)
	default:
		return nil, fmt.Errorf("unsupported data type %s", dtype)
	}
}

// flatten appends the scalar elements of v in row-major order.
func flatten(v cty.Value, dst []cty.Value) ([]cty.Value, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("values must be known and not null")
	}

	ty := v.Type()
	switch {
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			var err error
			if dst, err = flatten(elem, dst); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case ty == cty.Number || ty == cty.Bool:
		return append(dst, v), nil
	default:
		return nil, fmt.Errorf("values must be numbers or bools, got %s", ty.FriendlyName())
	}
}

func build[T shapes.Element](alloc *engine.Allocator, shape shapes.Shape, elems []cty.Value) (*tensor.Tensor, error) {
	values := make([]T, len(elems))
	for i, elem := range elems {
		if err := gocty.FromCtyValue(elem, &values[i]); err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
	}
	return tensor.FromValues(alloc, shape, values)
}
