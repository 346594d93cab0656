package tmdl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RuleRecord is one entry of the BestPracticeAnalyzer annotation array.
// The five well-known fields are typed; any other fields present in the
// source are carried through a save unchanged. A decoded record also
// remembers the order all its keys appeared in, well-known ones included,
// and marshals them back in that order. Records constructed in code use
// the canonical field order instead.
type RuleRecord struct {
	ID          string
	Name        string
	Category    string
	Description string
	Severity    int

	keys  []string
	extra []extraField
}

// extraField preserves an unknown key and its raw JSON value.
type extraField struct {
	key string
	raw json.RawMessage
}

// Extra returns the raw value of an unknown field carried by the record.
func (r *RuleRecord) Extra(key string) (json.RawMessage, bool) {
	for _, f := range r.extra {
		if f.key == key {
			return f.raw, true
		}
	}
	return nil, false
}

// ExtraKeys returns the unknown field names in their original order.
func (r *RuleRecord) ExtraKeys() []string {
	keys := make([]string, 0, len(r.extra))
	for _, f := range r.extra {
		keys = append(keys, f.key)
	}
	return keys
}

// SetExtra adds or replaces an unknown field. New keys append at the end,
// matching where a newly written key would land on save.
func (r *RuleRecord) SetExtra(key string, raw json.RawMessage) {
	for i, f := range r.extra {
		if f.key == key {
			r.extra[i].raw = raw
			return
		}
	}
	r.extra = append(r.extra, extraField{key: key, raw: raw})
	if len(r.keys) > 0 {
		r.keys = append(r.keys, key)
	}
}

// UnmarshalJSON decodes a record while remembering the order every field
// appeared in, so a later marshal reproduces the source layout.
func (r *RuleRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("rule record must be a JSON object, got %v", tok)
	}

	r.keys = nil
	r.extra = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}

		r.keys = append(r.keys, key)
		switch key {
		case "ID":
			err = json.Unmarshal(raw, &r.ID)
		case "Name":
			err = json.Unmarshal(raw, &r.Name)
		case "Category":
			err = json.Unmarshal(raw, &r.Category)
		case "Description":
			err = json.Unmarshal(raw, &r.Description)
		case "Severity":
			err = json.Unmarshal(raw, &r.Severity)
		default:
			r.extra = append(r.extra, extraField{key: key, raw: raw})
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON emits the record's fields in their remembered source order
// when the record was decoded, or in canonical order (the five well-known
// fields, then extras) for records constructed in code. The output is
// compact; SerializeRecords applies the indented layout used inside model
// files.
func (r RuleRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	writeExtra := func(key string) error {
		raw, ok := r.Extra(key)
		if !ok {
			return fmt.Errorf("field %q: recorded key has no value", key)
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(compact.Bytes())
		return nil
	}

	keys := r.keys
	if len(keys) == 0 {
		keys = []string{"ID", "Name", "Category", "Description", "Severity"}
		for _, f := range r.extra {
			keys = append(keys, f.key)
		}
	}

	for _, key := range keys {
		var err error
		switch key {
		case "ID":
			err = writeField(key, r.ID)
		case "Name":
			err = writeField(key, r.Name)
		case "Category":
			err = writeField(key, r.Category)
		case "Description":
			err = writeField(key, r.Description)
		case "Severity":
			err = writeField(key, r.Severity)
		default:
			err = writeExtra(key)
		}
		if err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
