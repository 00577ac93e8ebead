// Package data provides the minimal columnar frame representation exchanged
// between the plugin services and the host: a frame is a named set of
// equally long fields, optionally bound to a live channel.
package data

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentstation/dsplugin/pkg/errors"
)

// FieldType names the element type of a field.
type FieldType string

// Supported field types.
const (
	FieldTypeTime    FieldType = "time"
	FieldTypeUint32  FieldType = "uint32"
	FieldTypeInt64   FieldType = "int64"
	FieldTypeFloat64 FieldType = "float64"
	FieldTypeString  FieldType = "string"
)

// Field is a named column of values.
type Field struct {
	Name   string    `json:"name"`
	Type   FieldType `json:"type"`
	Values any       `json:"values"`
}

// Values constrains the slices a field can hold.
type Values interface {
	[]time.Time | []uint32 | []int64 | []float64 | []string
}

// NewField creates a field named name holding values.
func NewField[V Values](name string, values V) *Field {
	f := &Field{Name: name}
	f.set(any(values))
	return f
}

// SetValues replaces the values of the field. The element type may change.
func (f *Field) SetValues(values any) error {
	switch values.(type) {
	case []time.Time, []uint32, []int64, []float64, []string:
		f.set(values)
		return nil
	default:
		return errors.NewValidationError(f.Name, values, fmt.Sprintf("unsupported field values %T", values))
	}
}

func (f *Field) set(values any) {
	switch v := values.(type) {
	case []time.Time:
		f.Type, f.Values = FieldTypeTime, v
	case []uint32:
		f.Type, f.Values = FieldTypeUint32, v
	case []int64:
		f.Type, f.Values = FieldTypeInt64, v
	case []float64:
		f.Type, f.Values = FieldTypeFloat64, v
	case []string:
		f.Type, f.Values = FieldTypeString, v
	}
}

// UnmarshalJSON decodes the values according to the field type.
func (f *Field) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name   string          `json:"name"`
		Type   FieldType       `json:"type"`
		Values json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var values any
	switch raw.Type {
	case FieldTypeTime:
		values = &[]time.Time{}
	case FieldTypeUint32:
		values = &[]uint32{}
	case FieldTypeInt64:
		values = &[]int64{}
	case FieldTypeFloat64:
		values = &[]float64{}
	case FieldTypeString:
		values = &[]string{}
	default:
		return errors.NewValidationError(raw.Name, raw.Type, fmt.Sprintf("unknown field type %q", raw.Type))
	}
	if len(raw.Values) > 0 && string(raw.Values) != "null" {
		if err := json.Unmarshal(raw.Values, values); err != nil {
			return err
		}
	}
	f.Name = raw.Name
	switch v := values.(type) {
	case *[]time.Time:
		f.set(*v)
	case *[]uint32:
		f.set(*v)
	case *[]int64:
		f.set(*v)
	case *[]float64:
		f.set(*v)
	case *[]string:
		f.set(*v)
	}
	return nil
}

// Len returns the number of values in the field.
func (f *Field) Len() int {
	switch v := f.Values.(type) {
	case []time.Time:
		return len(v)
	case []uint32:
		return len(v)
	case []int64:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	default:
		return 0
	}
}

// At returns the value at row i.
func (f *Field) At(i int) any {
	switch v := f.Values.(type) {
	case []time.Time:
		return v[i]
	case []uint32:
		return v[i]
	case []int64:
		return v[i]
	case []float64:
		return v[i]
	case []string:
		return v[i]
	default:
		return nil
	}
}

// Meta carries frame metadata.
type Meta struct {
	Channel string `json:"channel,omitempty"`
}

// Frame is a named collection of fields.
type Frame struct {
	Name   string   `json:"name"`
	Fields []*Field `json:"fields"`
	Meta   *Meta    `json:"meta,omitempty"`
}

// NewFrame creates a frame with the given fields.
func NewFrame(name string, fields ...*Field) *Frame {
	return &Frame{Name: name, Fields: fields}
}

// WithField appends a field and returns the frame.
func (f *Frame) WithField(field *Field) *Frame {
	f.Fields = append(f.Fields, field)
	return f
}

// SetChannel binds the frame to a live channel.
func (f *Frame) SetChannel(ch Channel) {
	if f.Meta == nil {
		f.Meta = &Meta{}
	}
	f.Meta.Channel = ch.String()
}

// Rows returns the number of rows, the length of the first field.
func (f *Frame) Rows() int {
	if len(f.Fields) == 0 {
		return 0
	}
	return f.Fields[0].Len()
}

// Check validates that the frame is well formed: every field has a name and
// all fields have the same length.
func (f *Frame) Check() (*Frame, error) {
	rows := f.Rows()
	for i, field := range f.Fields {
		if field == nil {
			return nil, errors.NewValidationError(fmt.Sprintf("fields[%d]", i), nil, "field is nil")
		}
		if field.Name == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("fields[%d]", i), nil, "field has no name")
		}
		if n := field.Len(); n != rows {
			return nil, errors.NewValidationError(field.Name, n, fmt.Sprintf("field has %d values, expected %d", n, rows))
		}
	}
	return f, nil
}

// Len returns the number of fields.
func (f *Frame) Len() int {
	return len(f.Fields)
}
