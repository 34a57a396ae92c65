package surface

import (
	"encoding/json"
	"io"
)

// JSONRenderer marshals reports to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) RenderReport(w io.Writer, report *Report) error {
	return encode(w, report)
}

func (r *JSONRenderer) RenderThresholds(w io.Writer, t *Thresholds) error {
	return encode(w, t)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
