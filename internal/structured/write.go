package structured

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
)

// Write renders a frame as JSON. LayoutAuto writes the column layout.
// Columns keep their table order, which rules out building maps and
// letting encoding/json sort the keys.
func Write(w io.Writer, f *frame.Frame, layout Layout) error {
	var buf bytes.Buffer
	switch layout {
	case LayoutRow:
		writeRows(&buf, f)
	default:
		writeColumns(&buf, f)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Marshal renders a frame as JSON in memory.
func Marshal(f *frame.Frame, layout Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, layout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeColumns(buf *bytes.Buffer, f *frame.Frame) {
	buf.WriteByte('{')
	for i, col := range f.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		appendName(buf, col.Name)
		buf.WriteByte(':')
		buf.WriteByte('[')
		for j, v := range col.Values {
			if j > 0 {
				buf.WriteByte(',')
			}
			appendValue(buf, v, col.Type)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
}

func writeRows(buf *bytes.Buffer, f *frame.Frame) {
	buf.WriteByte('[')
	for r := 0; r < f.NumRows(); r++ {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for c, col := range f.Columns {
			if c > 0 {
				buf.WriteByte(',')
			}
			appendName(buf, col.Name)
			buf.WriteByte(':')
			appendValue(buf, col.Values[r], col.Type)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
}

func appendName(buf *bytes.Buffer, name string) {
	b, _ := json.Marshal(name)
	buf.Write(b)
}

// appendValue writes one cell as a JSON literal. Null is JSON null, and
// so are non-finite floats, which have no JSON representation.
func appendValue(buf *bytes.Buffer, v any, t frame.DataType) {
	if v == nil {
		buf.WriteString("null")
		return
	}
	switch t {
	case frame.Int32Type:
		if i, ok := v.(int32); ok {
			buf.WriteString(strconv.FormatInt(int64(i), 10))
			return
		}
	case frame.Float32Type:
		if f, ok := v.(float32); ok {
			f64 := float64(f)
			if math.IsNaN(f64) || math.IsInf(f64, 0) {
				buf.WriteString("null")
				return
			}
			buf.WriteString(strconv.FormatFloat(f64, 'g', -1, 32))
			return
		}
	case frame.BooleanType:
		if b, ok := v.(bool); ok {
			buf.WriteString(strconv.FormatBool(b))
			return
		}
	}
	b, _ := json.Marshal(frame.FormatValue(v, t))
	buf.Write(b)
}
