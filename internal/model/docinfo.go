package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrDocInfoNotObject is returned when decoding a JSON value that is not an object.
var ErrDocInfoNotObject = errors.New("docinfo must be a JSON object")

// Field is one key/value pair of a DocInfo.
type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// DocInfo is the structured field map of a medical record. Values are
// strings, numbers or nil. Keys keep their insertion order, which is also the
// order rules scan them in.
type DocInfo struct {
	fields []Field
	index  map[string]int
}

// NewDocInfo builds a DocInfo from fields in order. A repeated key keeps its
// first position and takes the last value.
func NewDocInfo(fields ...Field) DocInfo {
	var d DocInfo
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return d
}

// ParseDocInfo decodes a stored field map. Empty, malformed or non-object
// input yields an empty DocInfo. A JSON string holding an encoded object is
// unwrapped once.
func ParseDocInfo(raw []byte) DocInfo {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return DocInfo{}
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return DocInfo{}
		}
		raw = bytes.TrimSpace([]byte(inner))
	}

	var d DocInfo
	if err := d.UnmarshalJSON(raw); err != nil {
		return DocInfo{}
	}
	return d
}

// Set stores value under key.
func (d *DocInfo) Set(key string, value any) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.fields[i].Value = value
		return
	}
	d.index[key] = len(d.fields)
	d.fields = append(d.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (d DocInfo) Get(key string) (any, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.fields[i].Value, true
}

// Lookup returns the first non-nil value among keys.
func (d DocInfo) Lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := d.Get(k); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (d DocInfo) Len() int {
	return len(d.fields)
}

// Fields returns a copy of the fields in order.
func (d DocInfo) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

func (d DocInfo) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *DocInfo) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = DocInfo{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrDocInfoNotObject
	}

	var out DocInfo
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return ErrDocInfoNotObject
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}
