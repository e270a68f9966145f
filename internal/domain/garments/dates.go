package garments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate acepta "YYYY-MM-DD" o RFC3339 y devuelve la fecha a medianoche UTC.
// Vacío devuelve nil.
func ParseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// FormatDate es el inverso de ParseDate para respuestas JSON.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

// PatchDate distingue en un PATCH entre campo ausente, null (borrar) y valor.
type PatchDate struct {
	Set   bool
	Value string
}

func (p *PatchDate) UnmarshalJSON(b []byte) error {
	p.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		p.Value = ""
		return nil
	}
	return json.Unmarshal(b, &p.Value)
}
