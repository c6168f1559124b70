package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Properties is a JSON object whose key order is significant.
// Key order is preserved on decode and reproduced on encode.
type Properties struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewProperties builds Properties for the given columns, each with an empty schema
func NewProperties(columns []string) Properties {
	var p Properties
	for _, c := range columns {
		p.Set(c, json.RawMessage(`{}`))
	}
	return p
}

// Keys returns the keys in wire order
func (p Properties) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Get returns the raw value for a key
func (p Properties) Get(key string) (json.RawMessage, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Set adds or replaces a key. New keys are appended.
func (p *Properties) Set(key string, value json.RawMessage) {
	if p.values == nil {
		p.values = make(map[string]json.RawMessage)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Len returns the number of keys
func (p Properties) Len() int {
	return len(p.keys)
}

// UnmarshalJSON walks the object token by token to keep key order
func (p *Properties) UnmarshalJSON(data []byte) error {
	*p = Properties{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read properties: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties must be an object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read property key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected property key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to read property %q: %w", key, err)
		}
		p.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to close properties: %w", err)
	}
	return nil
}

// MarshalJSON writes the keys in insertion order
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v := p.values[key]
		if len(v) == 0 {
			v = json.RawMessage("null")
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
