package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one named value of a Record. A nil Value is a null field.
type Field struct {
	Name  string
	Value *string
}

// Text returns a field holding value.
func Text(name, value string) Field {
	return Field{Name: name, Value: &value}
}

// Null returns a field with no value.
func Null(name string) Field {
	return Field{Name: name}
}

// Record represents one catalog entry extracted from a listing page.
// Field order is the order the extractor produced them in.
type Record struct {
	fields []Field
}

// NewRecord creates a record from the given fields. Values are copied so the
// record cannot be changed through the caller's pointers.
func NewRecord(fields ...Field) Record {
	return Record{fields: copyFields(fields)}
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

// Fields returns a copy of the record's fields.
func (r Record) Fields() []Field {
	return copyFields(r.fields)
}

// Lookup returns the value of the named field. ok is false when the field is
// absent or null.
func (r Record) Lookup(name string) (value string, ok bool) {
	for _, f := range r.fields {
		if f.Name == name {
			if f.Value == nil {
				return "", false
			}
			return *f.Value, true
		}
	}
	return "", false
}

// Has reports whether the record carries a field with this name, null or not.
func (r Record) Has(name string) bool {
	for _, f := range r.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// String returns a string representation of the record
func (r Record) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		if f.Value == nil {
			parts[i] = f.Name + "=<null>"
			continue
		}
		parts[i] = fmt.Sprintf("%s=%q", f.Name, *f.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the record as a JSON object with keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if f.Value == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object of string or null values, keeping
// key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected field name, got %v", tok)
		}

		var value *string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("record: field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	r.fields = fields
	return nil
}

func copyFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i].Name = f.Name
		if f.Value != nil {
			v := *f.Value
			out[i].Value = &v
		}
	}
	return out
}
