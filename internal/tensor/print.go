package tensor

import (
	"io"
	"strconv"
	"strings"

	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/shapes"
)

// Format evaluates t and writes it one matrix row per line, "[ 1 2 3 ]".
// Leading dimensions print as consecutive matrices separated by a blank line.
func (t *Tensor) Format(w io.Writer) error {
	b := t.Operate()
	shape := b.Shape()

	rows, cols := 1, 1
	switch shape.Rank() {
	case 0:
	case 1:
		cols = shape[0]
	default:
		rows, cols = shape.Dim(-2), shape.Dim(-1)
	}
	batches := shape.Leading(2).NumElements()

	var sb strings.Builder
	for batch := range batches {
		if batch > 0 {
			sb.WriteByte('\n')
		}
		for r := range rows {
			sb.WriteString("[ ")
			for c := range cols {
				sb.WriteString(formatElement(b, (batch*rows+r)*cols+c))
				sb.WriteByte(' ')
			}
			sb.WriteString("]\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// String evaluates t and returns its Format output.
func (t *Tensor) String() string {
	var sb strings.Builder
	_ = t.Format(&sb) // strings.Builder never fails
	return sb.String()
}

func formatElement(b *engine.Buffer, i int) string {
	switch b.DType() {
	case shapes.Bool:
		return strconv.FormatBool(engine.Get[bool](b, i))
	case shapes.Int64:
		return strconv.FormatInt(engine.Get[int64](b, i), 10)
	case shapes.Uint64:
		return strconv.FormatUint(engine.Get[uint64](b, i), 10)
	case shapes.Float32:
		return strconv.FormatFloat(float64(engine.Get[float32](b, i)), 'g', -1, 32)
	default:
		return strconv.FormatFloat(b.Float64(i), 'g', -1, 64)
	}
}
