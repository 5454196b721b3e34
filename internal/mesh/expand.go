package mesh

import (
	"fmt"

	"meshalias/internal"
)

// RowSink receives the alias relation one row at a time. WriteHeader is
// called exactly once, before any row.
type RowSink interface {
	WriteHeader(fields []string) error
	WriteRow(row internal.AliasRow) error
}

var DefaultFields = []string{"alias", "term"}

type Expander struct {
	fields []string
}

func NewExpander(fields []string) *Expander {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	return &Expander{fields: fields}
}

// Expand writes one row per alias of every record in m and returns the row count.
// Terms without aliases produce no rows.
func (e *Expander) Expand(m *Mapping, sink RowSink) (int, error) {
	if err := sink.WriteHeader(e.fields); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	written := 0
	err := m.Each(func(term string, rec internal.ConditionRecord) error {
		for _, alias := range rec.Aliases {
			if err := sink.WriteRow(internal.AliasRow{Alias: alias, Term: term}); err != nil {
				return fmt.Errorf("write row %q -> %q: %w", alias, term, err)
			}
			written++
		}
		return nil
	})
	return written, err
}
