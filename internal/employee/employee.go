// Package employee holds the employee records served by the HRM API.
// Records keep every field the server returned, in server order, so views
// can render them verbatim.
package employee

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoIdentifier is returned when no employee identifier is cached locally.
var ErrNoIdentifier = errors.New("no employee identifier cached")

// Field is one key/value pair exactly as the server sent it.
type Field struct {
	Key   string
	Value string
	raw   json.RawMessage
}

// Personal holds an employee's personal details.
type Personal struct {
	Name       string
	ProfilePic string
	Fields     []Field
}

// Work holds an employee's work details.
type Work struct {
	Designation string
	Supervisor  string
	WorkEmail   string
	WorkPhone   string
	Fields      []Field
}

// Profile is everything the profile screen renders.
type Profile struct {
	EmployeeID string   `json:"employee_id"`
	Personal   Personal `json:"personal"`
	Work       Work     `json:"work"`
	Avatar     string   `json:"avatar"`
}

// Empty reports whether the server returned no personal details at all.
func (p Personal) Empty() bool { return len(p.Fields) == 0 }

// Empty reports whether the server returned no work details at all.
func (w Work) Empty() bool { return len(w.Fields) == 0 }

// Get returns the display value of a personal field.
func (p Personal) Get(key string) (string, bool) { return lookup(p.Fields, key) }

// Get returns the display value of a work field.
func (w Work) Get(key string) (string, bool) { return lookup(w.Fields, key) }

func (p *Personal) UnmarshalJSON(data []byte) error {
	fields, err := decodeFields(data)
	if err != nil {
		return fmt.Errorf("personal details: %w", err)
	}

	*p = Personal{Fields: fields}
	p.Name, _ = lookup(fields, "name")
	p.ProfilePic, _ = lookup(fields, "profilepic")
	return nil
}

func (p Personal) MarshalJSON() ([]byte, error) { return encodeFields(p.Fields) }

func (w *Work) UnmarshalJSON(data []byte) error {
	fields, err := decodeFields(data)
	if err != nil {
		return fmt.Errorf("work details: %w", err)
	}

	*w = Work{Fields: fields}
	w.Designation, _ = lookup(fields, "designation")
	w.Supervisor, _ = lookup(fields, "supervisor")
	w.WorkEmail, _ = lookup(fields, "workEmail")
	w.WorkPhone, _ = lookup(fields, "workPhone")
	return nil
}

func (w Work) MarshalJSON() ([]byte, error) { return encodeFields(w.Fields) }

func lookup(fields []Field, key string) (string, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// decodeFields walks a JSON object keeping key order. null or an empty body
// decodes to no fields.
func decodeFields(data []byte) ([]Field, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		k, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}

		fields = append(fields, Field{Key: k, Value: displayValue(raw), raw: raw})
	}

	return fields, nil
}

// displayValue renders a raw JSON value for display. strings lose their
// quotes, null becomes empty, everything else is shown as sent.
func displayValue(raw json.RawMessage) string {
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func encodeFields(fields []Field) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')

		v := f.raw
		if v == nil {
			v, err = json.Marshal(f.Value)
			if err != nil {
				return nil, err
			}
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
