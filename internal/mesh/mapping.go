package mesh

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"meshalias/internal"
)

// Mapping is the term-keyed record collection produced by the condenser.
// Iteration follows first-insertion order; overwriting a term keeps its slot.
type Mapping struct {
	order   []string
	records map[string]internal.ConditionRecord
}

func NewMapping() *Mapping {
	return &Mapping{records: map[string]internal.ConditionRecord{}}
}

// Set stores rec under term and reports whether an earlier record was replaced.
func (m *Mapping) Set(term string, rec internal.ConditionRecord) bool {
	if rec.Aliases == nil {
		rec.Aliases = []string{}
	}
	_, replaced := m.records[term]
	if !replaced {
		m.order = append(m.order, term)
	}
	m.records[term] = rec
	return replaced
}

func (m *Mapping) Get(term string) (internal.ConditionRecord, bool) {
	rec, ok := m.records[term]
	return rec, ok
}

func (m *Mapping) Len() int {
	return len(m.order)
}

func (m *Mapping) Terms() []string {
	return append([]string(nil), m.order...)
}

// Each calls fn for every term in order and stops at the first error.
func (m *Mapping) Each(fn func(term string, rec internal.ConditionRecord) error) error {
	for _, term := range m.order {
		if err := fn(term, m.records[term]); err != nil {
			return err
		}
	}
	return nil
}

// AliasCount is the number of rows an expansion of m produces.
func (m *Mapping) AliasCount() int {
	n := 0
	for _, rec := range m.records {
		n += len(rec.Aliases)
	}
	return n
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, term := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(term); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(m.records[term]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("condition mapping must be a JSON object")
	}

	out := NewMapping()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		term, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var rec internal.ConditionRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("record %q: %w", term, err)
		}
		out.Set(term, rec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *out
	return nil
}

// WriteMapping encodes m as indented JSON.
func WriteMapping(w io.Writer, m *Mapping) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(m)
}

func ReadMapping(r io.Reader) (*Mapping, error) {
	m := NewMapping()
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("decode condition mapping: %w", err)
	}
	return m, nil
}
